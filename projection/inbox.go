// Package projection builds read-side views over the conversation
// store and the presence registry. It never mutates anything.
package projection

import (
	"sort"
	"time"

	"market-chat/contract"
	"market-chat/domain"

	"github.com/google/uuid"
)

// Peer is the other participant of a conversation as shown in the
// inbox, including the live online flag.
type Peer struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Photo  string `json:"photo,omitempty"`
	Online bool   `json:"online"`
}

// LastMessage summarizes the most recent message of a conversation.
type LastMessage struct {
	ID          uuid.UUID     `json:"id"`
	SenderID    string        `json:"sender_id"`
	RecipientID string        `json:"recipient_id"`
	Content     string        `json:"content"`
	Status      domain.Status `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ConversationSummary is one row of the "my conversations" view.
type ConversationSummary struct {
	ChatID      uuid.UUID                `json:"chat_id"`
	UpdatedAt   time.Time                `json:"updated_at"`
	Peer        Peer                     `json:"peer"`
	Listing     *contract.ListingSummary `json:"listing,omitempty"`
	LastMessage *LastMessage             `json:"last_message,omitempty"`
	UnreadCount int                      `json:"unread_count"`
}

// Inbox composes conversation summaries for a viewer: peer display
// info, live online flag, originating listing, last message and unread
// count, most recently updated first.
type Inbox struct {
	chats     contract.ChatRepository
	messages  contract.MessageRepository
	presence  contract.PresenceRegistry
	directory contract.Directory
}

func NewInbox(chats contract.ChatRepository, messages contract.MessageRepository,
	presence contract.PresenceRegistry, directory contract.Directory) *Inbox {
	return &Inbox{chats: chats, messages: messages, presence: presence, directory: directory}
}

func (i *Inbox) Build(viewerID string) ([]ConversationSummary, error) {
	chats, err := i.chats.ChatsFor(viewerID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(chats))
	for _, chat := range chats {
		summary, err := i.summarize(viewerID, chat)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(a, b int) bool {
		return summaries[a].UpdatedAt.After(summaries[b].UpdatedAt)
	})
	return summaries, nil
}

func (i *Inbox) summarize(viewerID string, chat domain.Chat) (ConversationSummary, error) {
	peerID := chat.PeerOf(viewerID)
	peer := Peer{ID: peerID, Online: i.presence.IsOnline(peerID)}
	if profile, ok := i.directory.User(peerID); ok {
		peer.Name = profile.Name
		peer.Photo = profile.Photo
	}

	summary := ConversationSummary{
		ChatID:    chat.ID,
		UpdatedAt: chat.UpdatedAt,
		Peer:      peer,
	}

	if chat.ListingID != "" {
		if listing, ok := i.directory.Listing(chat.ListingID); ok {
			summary.Listing = &listing
		}
	}

	if last, found, err := i.messages.LastMessage(chat.ID); err != nil {
		return ConversationSummary{}, err
	} else if found {
		summary.LastMessage = &LastMessage{
			ID:          last.ID,
			SenderID:    last.SenderID,
			RecipientID: last.RecipientID,
			Content:     last.Content,
			Status:      last.Status,
			CreatedAt:   last.CreatedAt,
		}
	}

	unread, err := i.messages.UnreadCount(chat.ID, viewerID)
	if err != nil {
		return ConversationSummary{}, err
	}
	summary.UnreadCount = unread
	return summary, nil
}
