// Package domain contains core concepts of the marketplace messaging system.
// This file defines Message entities and the delivery status lifecycle.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the delivery state of a message. It only ever moves forward
// through sent -> delivered -> read.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

var statusRank = map[Status]int{
	StatusSent:      0,
	StatusDelivered: 1,
	StatusRead:      2,
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvance reports whether moving from s to next respects the
// monotonic ordering. A read message never goes back to delivered.
func (s Status) CanAdvance(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return statusRank[next] > statusRank[s]
}

// Message represents a single persisted text unit within a chat.
// Created only through the send path; mutated only by status transitions.
type Message struct {
	ID          uuid.UUID
	ChatID      uuid.UUID
	SenderID    string
	RecipientID string
	Content     string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TrimContent normalizes message content before validation and storage.
func TrimContent(content string) string {
	return strings.TrimSpace(content)
}
