//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"log/slog"
	"strings"
	"time"

	"market-chat/domain"
	"market-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// MessageRepository persists messages in BadgerDB.
//
// The key is formatted as "msg:{chat_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two
//     messages arrive at the same nanosecond.
//
// Secondary index keys (pending, unread) are written in the same
// transaction as the message, so bulk status transitions observe a
// consistent view and apply atomically.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// Append validates and stores a new message at status `sent`, and moves
// the chat's last-message reference forward. This is the only entry
// transition of the message lifecycle.
func (r MessageRepository) Append(chat domain.Chat, senderID, recipientID, content string) (domain.Message, error) {
	senderID = strings.TrimSpace(senderID)
	recipientID = strings.TrimSpace(recipientID)
	if senderID == recipientID {
		return domain.Message{}, errors.ErrSelfMessage
	}
	if !chat.HasParticipant(senderID) {
		return domain.Message{}, errors.ErrNotParticipant
	}
	if !chat.HasParticipant(recipientID) {
		return domain.Message{}, errors.ErrInvalidParticipant
	}
	content = domain.TrimContent(content)
	if content == "" {
		return domain.Message{}, errors.ErrEmptyContent
	}

	now := time.Now().UTC()
	msg := domain.Message{
		ID:          uuid.New(),
		ChatID:      chat.ID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		Status:      domain.StatusSent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		msgKey := messageKey(msg.ChatID, msg.CreatedAt, msg.ID)
		encoded, err := encodeMessage(msg)
		if err != nil {
			return err
		}
		if err := txn.Set(msgKey, encoded); err != nil {
			return err
		}
		if err := txn.Set(refKey(msg.ID), msgKey); err != nil {
			return err
		}
		if err := txn.Set(pendingKey(msg.RecipientID, msg.ID), msgKey); err != nil {
			return err
		}
		if err := txn.Set(unreadKey(msg.RecipientID, msg.ChatID, msg.ID), msgKey); err != nil {
			return err
		}

		chat.LastMessageID = msg.ID
		chat.UpdatedAt = now
		encodedChat, err := encodeChat(chat)
		if err != nil {
			return err
		}
		return txn.Set(chatKey(chat.ID), encodedChat)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// List returns messages of a chat in ascending creation order. Pages
// start at 1; limit defaults to 50 and is capped at 200.
func (r MessageRepository) List(chatID uuid.UUID, page, limit int) ([]domain.Message, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	skip := (page - 1) * limit

	var messages []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := messagePrefix(chatID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if skip > 0 {
				skip--
				continue
			}
			if len(messages) == limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				msg, err := decodeMessage(val)
				if err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkDelivered advances every `sent` message addressed to recipientID
// to `delivered` in a single transaction, and returns the affected
// messages so the delivery layer can acknowledge their senders.
func (r MessageRepository) MarkDelivered(recipientID string) ([]domain.Message, error) {
	var affected []domain.Message
	err := r.db.Update(func(txn *badger.Txn) error {
		msgKeys, err := collectIndexedKeys(txn, pendingPrefix(recipientID))
		if err != nil {
			return err
		}
		for _, msgKey := range msgKeys {
			msg, err := readMessageAt(txn, msgKey)
			if err != nil {
				return err
			}
			if !msg.Status.CanAdvance(domain.StatusDelivered) {
				// Stale index entry; drop it without touching the record.
				if err := txn.Delete(pendingKey(recipientID, msg.ID)); err != nil {
					return err
				}
				continue
			}
			msg.Status = domain.StatusDelivered
			msg.UpdatedAt = time.Now().UTC()
			encoded, err := encodeMessage(msg)
			if err != nil {
				return err
			}
			if err := txn.Set(msgKey, encoded); err != nil {
				return err
			}
			if err := txn.Delete(pendingKey(recipientID, msg.ID)); err != nil {
				return err
			}
			affected = append(affected, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}

// MarkRead advances every message in the chat where readerID is the
// recipient and the status is not yet `read`. Messages addressed to the
// other participant are untouched. Returns the affected messages.
func (r MessageRepository) MarkRead(chatID uuid.UUID, readerID string) ([]domain.Message, error) {
	var affected []domain.Message
	err := r.db.Update(func(txn *badger.Txn) error {
		msgKeys, err := collectIndexedKeys(txn, unreadPrefix(readerID, chatID))
		if err != nil {
			return err
		}
		for _, msgKey := range msgKeys {
			msg, err := readMessageAt(txn, msgKey)
			if err != nil {
				return err
			}
			if !msg.Status.CanAdvance(domain.StatusRead) {
				if err := txn.Delete(unreadKey(readerID, chatID, msg.ID)); err != nil {
					return err
				}
				continue
			}
			msg.Status = domain.StatusRead
			msg.UpdatedAt = time.Now().UTC()
			encoded, err := encodeMessage(msg)
			if err != nil {
				return err
			}
			if err := txn.Set(msgKey, encoded); err != nil {
				return err
			}
			if err := txn.Delete(unreadKey(readerID, chatID, msg.ID)); err != nil {
				return err
			}
			// A message read before any delivery ack also leaves the
			// pending set; read supersedes delivered.
			if err := txn.Delete(pendingKey(readerID, msg.ID)); err != nil {
				return err
			}
			affected = append(affected, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}

// UnreadCount counts persisted messages in the chat addressed to userID
// with status != read. Independent of presence state.
func (r MessageRepository) UnreadCount(chatID uuid.UUID, userID string) (int, error) {
	count := 0
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := unreadPrefix(userID, chatID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// LastMessage returns the most recent message of a chat, seeking to the
// end of the chat's key range and reading backwards.
func (r MessageRepository) LastMessage(chatID uuid.UUID) (domain.Message, bool, error) {
	var msg domain.Message
	found := false
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := messagePrefix(chatID)
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		it.Seek(seekKey)
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		return it.Item().Value(func(val []byte) error {
			decoded, err := decodeMessage(val)
			if err != nil {
				return err
			}
			msg = decoded
			found = true
			return nil
		})
	})
	if err != nil {
		return domain.Message{}, false, err
	}
	return msg, found, nil
}

// collectIndexedKeys materializes the message keys referenced by an
// index prefix before any mutation, since badger iterators must not
// observe writes from the same loop.
func collectIndexedKeys(txn *badger.Txn, prefix []byte) ([][]byte, error) {
	var msgKeys [][]byte
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		value, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		msgKeys = append(msgKeys, value)
	}
	return msgKeys, nil
}
