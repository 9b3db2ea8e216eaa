package repositories

import (
	"log/slog"
	"testing"

	"market-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_FindOrCreate_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repository := NewChatRepository(openTestDB(t), slog.Default())

	first, err := repository.FindOrCreate("alice", "bob", "")
	req.NoError(err)
	second, err := repository.FindOrCreate("alice", "bob", "")
	req.NoError(err)
	req.Equal(first.ID, second.ID)

	// Pair order must not matter.
	third, err := repository.FindOrCreate("bob", "alice", "")
	req.NoError(err)
	req.Equal(first.ID, third.ID)
}

func Test_FindOrCreate_Scopes_By_Listing(t *testing.T) {
	req := require.New(t)
	repository := NewChatRepository(openTestDB(t), slog.Default())

	general, err := repository.FindOrCreate("alice", "bob", "")
	req.NoError(err)
	scoped, err := repository.FindOrCreate("alice", "bob", "listing-42")
	req.NoError(err)
	req.NotEqual(general.ID, scoped.ID)
	req.Equal("listing-42", scoped.ListingID)

	again, err := repository.FindOrCreate("bob", "alice", "listing-42")
	req.NoError(err)
	req.Equal(scoped.ID, again.ID)
}

func Test_FindOrCreate_Rejects_Self_And_Blank(t *testing.T) {
	req := require.New(t)
	repository := NewChatRepository(openTestDB(t), slog.Default())

	_, err := repository.FindOrCreate("alice", "alice", "")
	req.ErrorIs(err, errors.ErrInvalidParticipant)
	_, err = repository.FindOrCreate("alice", "  ", "")
	req.ErrorIs(err, errors.ErrInvalidParticipant)
}

func Test_Get_Unknown_Chat(t *testing.T) {
	req := require.New(t)
	repository := NewChatRepository(openTestDB(t), slog.Default())

	chat, err := repository.FindOrCreate("alice", "bob", "")
	req.NoError(err)

	found, err := repository.Get(chat.ID)
	req.NoError(err)
	req.Equal(chat.Participants, found.Participants)

	_, err = repository.Get(newUUID(t))
	req.ErrorIs(err, errors.ErrChatNotFound)
}

func Test_ChatsFor_Lists_Both_Sides(t *testing.T) {
	req := require.New(t)
	repository := NewChatRepository(openTestDB(t), slog.Default())

	chatAB, err := repository.FindOrCreate("alice", "bob", "")
	req.NoError(err)
	chatAC, err := repository.FindOrCreate("alice", "clara", "")
	req.NoError(err)

	aliceChats, err := repository.ChatsFor("alice")
	req.NoError(err)
	req.Len(aliceChats, 2)

	bobChats, err := repository.ChatsFor("bob")
	req.NoError(err)
	req.Len(bobChats, 1)
	req.Equal(chatAB.ID, bobChats[0].ID)

	claraChats, err := repository.ChatsFor("clara")
	req.NoError(err)
	req.Len(claraChats, 1)
	req.Equal(chatAC.ID, claraChats[0].ID)
}
