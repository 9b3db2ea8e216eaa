package repositories

import (
	"encoding/json"
	"time"

	"market-chat/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Disk representations decouple the stored form from the domain
// entities, so a domain rename never silently corrupts old records.

type diskChat struct {
	ID            uuid.UUID `json:"id"`
	Participants  [2]string `json:"participants"`
	ListingID     string    `json:"listing_id,omitempty"`
	LastMessageID uuid.UUID `json:"last_message_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type diskMessage struct {
	ID          uuid.UUID     `json:"id"`
	ChatID      uuid.UUID     `json:"chat_id"`
	SenderID    string        `json:"sender_id"`
	RecipientID string        `json:"recipient_id"`
	Content     string        `json:"content"`
	Status      domain.Status `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func fromChat(c domain.Chat) diskChat   { return diskChat(c) }
func toChat(d diskChat) domain.Chat     { return domain.Chat(d) }
func fromMessage(m domain.Message) diskMessage { return diskMessage(m) }
func toMessage(d diskMessage) domain.Message   { return domain.Message(d) }

func encodeChat(c domain.Chat) ([]byte, error) {
	return json.Marshal(fromChat(c))
}

func decodeChat(b []byte) (domain.Chat, error) {
	var d diskChat
	if err := json.Unmarshal(b, &d); err != nil {
		return domain.Chat{}, err
	}
	return toChat(d), nil
}

func encodeMessage(m domain.Message) ([]byte, error) {
	return json.Marshal(fromMessage(m))
}

func decodeMessage(b []byte) (domain.Message, error) {
	var d diskMessage
	if err := json.Unmarshal(b, &d); err != nil {
		return domain.Message{}, err
	}
	return toMessage(d), nil
}

// readMessageAt follows an index value (a message key) to the message
// record inside the same transaction.
func readMessageAt(txn *badger.Txn, msgKey []byte) (domain.Message, error) {
	item, err := txn.Get(msgKey)
	if err != nil {
		return domain.Message{}, err
	}
	var msg domain.Message
	err = item.Value(func(val []byte) error {
		decoded, err := decodeMessage(val)
		if err != nil {
			return err
		}
		msg = decoded
		return nil
	})
	return msg, err
}
