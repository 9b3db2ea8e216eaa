package domain

import (
	"time"

	"github.com/google/uuid"
)

// Commands carry caller intent from the transport gateway into the
// delivery layer. Identity fields are always filled by the transport
// from the authenticated caller, never from request payloads.

type StartChatCommand struct {
	UserID      string
	RecipientID string
	ListingID   string
}

type SendMessageCommand struct {
	ChatID      uuid.UUID
	SenderID    string
	RecipientID string
	Content     string
	CreatedAt   time.Time
}

type MarkReadCommand struct {
	ChatID   uuid.UUID
	ReaderID string
}

type ListMessagesCommand struct {
	ChatID   uuid.UUID
	ViewerID string
	Page     int
	Limit    int
}
