// Package event defines the push notifications flowing from the
// delivery layer to live connections. Events are fire-and-forget: a
// dropped event is recovered by the next status query, never retried.
package event

import (
	"market-chat/domain"

	"github.com/google/uuid"
)

// DomainEvent is anything the gateway can push over a live connection.
// Kind doubles as the wire frame type.
type DomainEvent interface {
	Kind() string
}

// MessageReceived is pushed to the recipient's connections when a
// message reaches them in real time.
type MessageReceived struct {
	Message domain.Message
}

func (MessageReceived) Kind() string { return "message:receive" }

// StatusAdvanced is the acknowledgement event pushed to the original
// sender when one of its messages moves forward in the lifecycle.
type StatusAdvanced struct {
	MessageID uuid.UUID
	Status    domain.Status
}

func (StatusAdvanced) Kind() string { return "message:status" }

// UserOnline is broadcast to every live connection when a user gains
// its first connection.
type UserOnline struct {
	UserID string
}

func (UserOnline) Kind() string { return "presence:userOnline" }

// UserOffline is broadcast when a user's last connection goes away.
type UserOffline struct {
	UserID string
}

func (UserOffline) Kind() string { return "presence:userOffline" }
