package repositories

import (
	"fmt"
	"log/slog"
	"testing"

	"market-chat/domain"
	"market-chat/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

func seedChat(t *testing.T, chats ChatRepository, a, b string) domain.Chat {
	t.Helper()
	chat, err := chats.FindOrCreate(a, b, "")
	require.NoError(t, err)
	return chat
}

func Test_Append_Creates_At_Sent_And_Moves_Last_Message(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	chats := NewChatRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default())
	chat := seedChat(t, chats, "alice", "bob")

	msg, err := messages.Append(chat, "alice", "bob", "  hello bob  ")
	req.NoError(err)
	req.Equal(domain.StatusSent, msg.Status)
	req.Equal("hello bob", msg.Content)

	updated, err := chats.Get(chat.ID)
	req.NoError(err)
	req.Equal(msg.ID, updated.LastMessageID)
	req.False(updated.UpdatedAt.Before(chat.UpdatedAt))
}

func Test_Append_Validation(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	chats := NewChatRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default())
	chat := seedChat(t, chats, "alice", "bob")

	_, err := messages.Append(chat, "alice", "alice", "hi")
	req.ErrorIs(err, errors.ErrSelfMessage)

	_, err = messages.Append(chat, "mallory", "bob", "hi")
	req.ErrorIs(err, errors.ErrNotParticipant)

	_, err = messages.Append(chat, "alice", "mallory", "hi")
	req.ErrorIs(err, errors.ErrInvalidParticipant)

	_, err = messages.Append(chat, "alice", "bob", "   ")
	req.ErrorIs(err, errors.ErrEmptyContent)

	// Nothing was persisted by the failed attempts.
	history, err := messages.List(chat.ID, 1, 0)
	req.NoError(err)
	req.Empty(history)
}

func Test_List_Ascending_And_Paginated(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	chats := NewChatRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default())
	chat := seedChat(t, chats, "alice", "bob")

	for i := 0; i < 5; i++ {
		_, err := messages.Append(chat, "alice", "bob", fmt.Sprintf("message %d", i))
		req.NoError(err)
	}

	firstPage, err := messages.List(chat.ID, 1, 2)
	req.NoError(err)
	req.Equal([]string{"message 0", "message 1"}, contents(firstPage))

	secondPage, err := messages.List(chat.ID, 2, 2)
	req.NoError(err)
	req.Equal([]string{"message 2", "message 3"}, contents(secondPage))

	lastPage, err := messages.List(chat.ID, 3, 2)
	req.NoError(err)
	req.Equal([]string{"message 4"}, contents(lastPage))

	beyond, err := messages.List(chat.ID, 4, 2)
	req.NoError(err)
	req.Empty(beyond)
}

func contents(messages []domain.Message) []string {
	return lo.Map(messages, func(m domain.Message, _ int) string { return m.Content })
}

func Test_MarkDelivered_Bulk_And_Monotonic(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	chats := NewChatRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default())
	chat := seedChat(t, chats, "alice", "bob")

	first, err := messages.Append(chat, "alice", "bob", "one")
	req.NoError(err)
	second, err := messages.Append(chat, "alice", "bob", "two")
	req.NoError(err)

	affected, err := messages.MarkDelivered("bob")
	req.NoError(err)
	req.Len(affected, 2)
	for _, msg := range affected {
		req.Equal(domain.StatusDelivered, msg.Status)
	}

	// Second run finds nothing pending; no downgrade, no double ack.
	affected, err = messages.MarkDelivered("bob")
	req.NoError(err)
	req.Empty(affected)

	history, err := messages.List(chat.ID, 1, 0)
	req.NoError(err)
	req.Equal([]uuid.UUID{first.ID, second.ID},
		lo.Map(history, func(m domain.Message, _ int) uuid.UUID { return m.ID }))
	for _, msg := range history {
		req.Equal(domain.StatusDelivered, msg.Status)
	}
}

func Test_MarkRead_Only_Affects_Reader_Side(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	chats := NewChatRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default())
	chat := seedChat(t, chats, "alice", "bob")

	toBob, err := messages.Append(chat, "alice", "bob", "for bob")
	req.NoError(err)
	toAlice, err := messages.Append(chat, "bob", "alice", "for alice")
	req.NoError(err)

	affected, err := messages.MarkRead(chat.ID, "bob")
	req.NoError(err)
	req.Len(affected, 1)
	req.Equal(toBob.ID, affected[0].ID)
	req.Equal(domain.StatusRead, affected[0].Status)

	history, err := messages.List(chat.ID, 1, 0)
	req.NoError(err)
	byID := lo.KeyBy(history, func(m domain.Message) uuid.UUID { return m.ID })
	req.Equal(domain.StatusRead, byID[toBob.ID].Status)
	req.Equal(domain.StatusSent, byID[toAlice.ID].Status)
}

func Test_Read_Supersedes_Pending_Delivery(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	chats := NewChatRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default())
	chat := seedChat(t, chats, "alice", "bob")

	_, err := messages.Append(chat, "alice", "bob", "hello")
	req.NoError(err)

	// Bob reads the chat before any delivery ack happened.
	affected, err := messages.MarkRead(chat.ID, "bob")
	req.NoError(err)
	req.Len(affected, 1)
	req.Equal(domain.StatusRead, affected[0].Status)

	// The message no longer counts as pending; a later online
	// announcement must not move it backwards.
	delivered, err := messages.MarkDelivered("bob")
	req.NoError(err)
	req.Empty(delivered)

	history, err := messages.List(chat.ID, 1, 0)
	req.NoError(err)
	req.Equal(domain.StatusRead, history[0].Status)
}

func Test_UnreadCount_Tracks_Transitions(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	chats := NewChatRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default())
	chat := seedChat(t, chats, "alice", "bob")

	for i := 0; i < 3; i++ {
		_, err := messages.Append(chat, "alice", "bob", fmt.Sprintf("msg %d", i))
		req.NoError(err)
	}

	count, err := messages.UnreadCount(chat.ID, "bob")
	req.NoError(err)
	req.Equal(3, count)

	// Delivery does not mark anything as read.
	_, err = messages.MarkDelivered("bob")
	req.NoError(err)
	count, err = messages.UnreadCount(chat.ID, "bob")
	req.NoError(err)
	req.Equal(3, count)

	_, err = messages.MarkRead(chat.ID, "bob")
	req.NoError(err)
	count, err = messages.UnreadCount(chat.ID, "bob")
	req.NoError(err)
	req.Equal(0, count)

	count, err = messages.UnreadCount(chat.ID, "alice")
	req.NoError(err)
	req.Equal(0, count)
}

func Test_LastMessage(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	chats := NewChatRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default())
	chat := seedChat(t, chats, "alice", "bob")

	_, found, err := messages.LastMessage(chat.ID)
	req.NoError(err)
	req.False(found)

	_, err = messages.Append(chat, "alice", "bob", "first")
	req.NoError(err)
	latest, err := messages.Append(chat, "bob", "alice", "second")
	req.NoError(err)

	last, found, err := messages.LastMessage(chat.ID)
	req.NoError(err)
	req.True(found)
	req.Equal(latest.ID, last.ID)
	req.Equal("second", last.Content)
}
