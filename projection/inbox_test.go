package projection

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"market-chat/contract"
	"market-chat/directory"
	"market-chat/domain/event"
	"market-chat/repositories"
	"market-chat/runtime"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

type inboxFixture struct {
	inbox    *Inbox
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	registry *runtime.Registry
	dir      *directory.InMemory
}

func newInboxFixture(t *testing.T) inboxFixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	chats := repositories.NewChatRepository(db, log)
	messages := repositories.NewMessageRepository(db, log)
	registry := runtime.NewRegistry()
	dir := directory.NewInMemory()
	return inboxFixture{
		inbox:    NewInbox(chats, messages, registry, dir),
		chats:    chats,
		messages: messages,
		registry: registry,
		dir:      dir,
	}
}

type nullSink struct{}

func (nullSink) Consume(context.Context, event.DomainEvent) error { return nil }

func Test_Inbox_Empty_For_New_User(t *testing.T) {
	fx := newInboxFixture(t)
	summaries, err := fx.inbox.Build("nobody")
	require.NoError(t, err)
	require.Empty(t, summaries)
}

func Test_Inbox_Composes_Peer_Listing_And_Unread(t *testing.T) {
	req := require.New(t)
	fx := newInboxFixture(t)
	fx.dir.AddUser(contract.UserProfile{ID: "alice", Name: "Alice", Photo: "alice.jpg"})
	fx.dir.AddListing(contract.ListingSummary{ID: "listing-7", Title: "Oak table", Thumbnail: "table.jpg"})

	chat, err := fx.chats.FindOrCreate("alice", "bob", "listing-7")
	req.NoError(err)
	_, err = fx.messages.Append(chat, "alice", "bob", "interested?")
	req.NoError(err)
	last, err := fx.messages.Append(chat, "alice", "bob", "price is firm")
	req.NoError(err)

	summaries, err := fx.inbox.Build("bob")
	req.NoError(err)
	req.Len(summaries, 1)

	summary := summaries[0]
	req.Equal(chat.ID, summary.ChatID)
	req.Equal("alice", summary.Peer.ID)
	req.Equal("Alice", summary.Peer.Name)
	req.False(summary.Peer.Online)
	req.NotNil(summary.Listing)
	req.Equal("Oak table", summary.Listing.Title)
	req.NotNil(summary.LastMessage)
	req.Equal(last.ID, summary.LastMessage.ID)
	req.Equal(2, summary.UnreadCount)
}

func Test_Inbox_Peer_Online_Flag_Tracks_Presence(t *testing.T) {
	req := require.New(t)
	fx := newInboxFixture(t)
	_, err := fx.chats.FindOrCreate("alice", "bob", "")
	req.NoError(err)

	summaries, err := fx.inbox.Build("bob")
	req.NoError(err)
	req.False(summaries[0].Peer.Online)

	fx.registry.MarkOnline("alice", "conn-1", nullSink{})
	summaries, err = fx.inbox.Build("bob")
	req.NoError(err)
	req.True(summaries[0].Peer.Online)
}

func Test_Inbox_Orders_By_Last_Activity(t *testing.T) {
	req := require.New(t)
	fx := newInboxFixture(t)

	older, err := fx.chats.FindOrCreate("bob", "alice", "")
	req.NoError(err)
	newer, err := fx.chats.FindOrCreate("bob", "carol", "")
	req.NoError(err)

	_, err = fx.messages.Append(older, "alice", "bob", "first")
	req.NoError(err)
	time.Sleep(2 * time.Millisecond)
	_, err = fx.messages.Append(newer, "carol", "bob", "second")
	req.NoError(err)

	summaries, err := fx.inbox.Build("bob")
	req.NoError(err)
	req.Len(summaries, 2)
	req.Equal(newer.ID, summaries[0].ChatID)
	req.Equal(older.ID, summaries[1].ChatID)
}

func Test_Inbox_Unknown_Peer_Falls_Back_To_ID(t *testing.T) {
	req := require.New(t)
	fx := newInboxFixture(t)
	_, err := fx.chats.FindOrCreate("alice", "ghost", "")
	req.NoError(err)

	summaries, err := fx.inbox.Build("alice")
	req.NoError(err)
	req.Equal("ghost", summaries[0].Peer.ID)
	req.Empty(summaries[0].Peer.Name)
	req.Nil(summaries[0].Listing)
	req.Nil(summaries[0].LastMessage)
	req.Zero(summaries[0].UnreadCount)
}
