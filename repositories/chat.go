//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
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

// ChatRepository persists chats in BadgerDB.
//
// Lookups by participant pair go through the chatpair index so the same
// (pair, listing) combination always resolves to the same chat. A pair
// may hold one chat per listing plus one general chat with no listing;
// older chats created before listing scoping stay addressable through
// the general slot.
type ChatRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewChatRepository(db *badger.DB, log *slog.Logger) ChatRepository {
	return ChatRepository{db: db, log: log}
}

// FindOrCreate returns the chat for the exact (pair, listing)
// combination, creating it on first contact between the two identities.
// Idempotent for the same inputs.
func (r ChatRepository) FindOrCreate(userA, userB, listingID string) (domain.Chat, error) {
	userA = strings.TrimSpace(userA)
	userB = strings.TrimSpace(userB)
	if userA == "" || userB == "" || userA == userB {
		return domain.Chat{}, errors.ErrInvalidParticipant
	}

	lo, hi := userA, userB
	if hi < lo {
		lo, hi = hi, lo
	}
	key := pairKey(lo, hi, listingID)

	var chat domain.Chat
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == nil {
			var chatID uuid.UUID
			if err := item.Value(func(val []byte) error {
				parsed, err := uuid.Parse(string(val))
				chatID = parsed
				return err
			}); err != nil {
				return err
			}
			existing, err := getChat(txn, chatID)
			if err != nil {
				return err
			}
			chat = existing
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		now := time.Now().UTC()
		chat = domain.Chat{
			ID:           uuid.New(),
			Participants: [2]string{userA, userB},
			ListingID:    listingID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		encoded, err := encodeChat(chat)
		if err != nil {
			return err
		}
		if err := txn.Set(chatKey(chat.ID), encoded); err != nil {
			return err
		}
		if err := txn.Set(key, []byte(chat.ID.String())); err != nil {
			return err
		}
		if err := txn.Set(userChatKey(userA, chat.ID), []byte(chat.ID.String())); err != nil {
			return err
		}
		return txn.Set(userChatKey(userB, chat.ID), []byte(chat.ID.String()))
	})
	if err != nil {
		return domain.Chat{}, err
	}
	return chat, nil
}

func (r ChatRepository) Get(chatID uuid.UUID) (domain.Chat, error) {
	var chat domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		found, err := getChat(txn, chatID)
		if err != nil {
			return err
		}
		chat = found
		return nil
	})
	if err == badger.ErrKeyNotFound {
		return domain.Chat{}, errors.ErrChatNotFound
	}
	if err != nil {
		return domain.Chat{}, err
	}
	return chat, nil
}

// ChatsFor lists every chat the user participates in, in storage order.
// Callers sort by recency; the userchat index carries no ordering.
func (r ChatRepository) ChatsFor(userID string) ([]domain.Chat, error) {
	var ids []uuid.UUID
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := userChatPrefix(userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw := it.Item().Key()[len(prefix):]
			chatID, err := uuid.Parse(string(raw))
			if err != nil {
				r.log.Warn("skipping malformed userchat key", "key", string(it.Item().Key()))
				continue
			}
			ids = append(ids, chatID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	chats := make([]domain.Chat, 0, len(ids))
	err = r.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			chat, err := getChat(txn, id)
			if err != nil {
				return err
			}
			chats = append(chats, chat)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chats, nil
}

func getChat(txn *badger.Txn, chatID uuid.UUID) (domain.Chat, error) {
	item, err := txn.Get(chatKey(chatID))
	if err != nil {
		return domain.Chat{}, err
	}
	var chat domain.Chat
	err = item.Value(func(val []byte) error {
		decoded, err := decodeChat(val)
		if err != nil {
			return err
		}
		chat = decoded
		return nil
	})
	return chat, err
}
