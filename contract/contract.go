//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"market-chat/domain"
	"market-chat/domain/event"

	"github.com/google/uuid"
)

// EventSink is one live connection's inbox for push events.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// PresenceRegistry tracks which users currently hold live connections.
// It is the source of truth for "is this user reachable now" and owns
// nothing durable.
type PresenceRegistry interface {
	// MarkOnline binds a connection sink to a user. The bool reports
	// whether this was the user's first connection.
	MarkOnline(userID, connID string, sink EventSink) bool
	// MarkOffline removes a connection. The bool reports whether the
	// user is now fully offline.
	MarkOffline(userID, connID string) bool
	IsOnline(userID string) bool
	SinksFor(userID string) []EventSink
	AllSinks() []EventSink
}

// ChatRepository persists Chat entities.
type ChatRepository interface {
	// FindOrCreate returns the chat for the exact (pair, listing)
	// combination, creating it on first contact. Idempotent.
	FindOrCreate(userA, userB, listingID string) (domain.Chat, error)
	Get(chatID uuid.UUID) (domain.Chat, error)
	ChatsFor(userID string) ([]domain.Chat, error)
}

// MessageRepository persists Message entities and applies status
// transitions. Transitions never downgrade a status.
type MessageRepository interface {
	Append(chat domain.Chat, senderID, recipientID, content string) (domain.Message, error)
	List(chatID uuid.UUID, page, limit int) ([]domain.Message, error)
	// MarkDelivered bulk-moves every `sent` message addressed to the
	// recipient to `delivered` and returns the affected messages.
	MarkDelivered(recipientID string) ([]domain.Message, error)
	// MarkRead bulk-moves every not-yet-read message in the chat where
	// the reader is the recipient to `read` and returns the affected
	// messages.
	MarkRead(chatID uuid.UUID, readerID string) ([]domain.Message, error)
	UnreadCount(chatID uuid.UUID, userID string) (int, error)
	LastMessage(chatID uuid.UUID) (domain.Message, bool, error)
}

// Delivery governs the sent -> delivered -> read state machine and the
// acknowledgement pushes that fire on each transition.
type Delivery interface {
	Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	HandleOnline(ctx context.Context, userID string)
	HandleOffline(ctx context.Context, userID string)
	MarkRead(ctx context.Context, cmd domain.MarkReadCommand) error
}

// UserProfile is the display info the inbox view needs about a peer.
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// ListingSummary is the display info about the listing a chat
// originated from.
type ListingSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// Directory resolves display data owned by external systems (accounts,
// listings). Lookups are best-effort: a missing entry is not an error.
type Directory interface {
	User(userID string) (UserProfile, bool)
	Listing(listingID string) (ListingSummary, bool)
}
