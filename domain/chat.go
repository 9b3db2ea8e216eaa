package domain

import (
	"time"

	"github.com/google/uuid"
)

// Chat is a durable two-party conversation thread, optionally scoped to
// the listing it originated from. The participant pair is immutable and
// always holds exactly two distinct user identities.
type Chat struct {
	ID            uuid.UUID
	Participants  [2]string
	ListingID     string // empty when the chat is not tied to a listing
	LastMessageID uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (c Chat) HasParticipant(userID string) bool {
	return c.Participants[0] == userID || c.Participants[1] == userID
}

// PeerOf returns the other participant of the chat. Empty string when
// userID is not a participant.
func (c Chat) PeerOf(userID string) string {
	switch userID {
	case c.Participants[0]:
		return c.Participants[1]
	case c.Participants[1]:
		return c.Participants[0]
	}
	return ""
}
