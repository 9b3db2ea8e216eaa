//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"strings"

	"market-chat/contract"
	"market-chat/domain"
	"market-chat/errors"
	"market-chat/projection"
)

// IChatService is the single entry point both transport surfaces call.
// REST and the live channel share every code path below; there is no
// divergent logic between them.
type IChatService interface {
	StartChat(ctx context.Context, cmd domain.StartChatCommand) (domain.Chat, error)
	Inbox(ctx context.Context, viewerID string) ([]projection.ConversationSummary, error)
	History(ctx context.Context, cmd domain.ListMessagesCommand) ([]domain.Message, error)
	Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	MarkRead(ctx context.Context, cmd domain.MarkReadCommand) error
	Connect(ctx context.Context, userID, connID string, sink contract.EventSink)
	Disconnect(ctx context.Context, userID, connID string)
}

type ChatService struct {
	chats    contract.ChatRepository
	messages contract.MessageRepository
	presence contract.PresenceRegistry
	delivery contract.Delivery
	inbox    *projection.Inbox
}

func NewChatService(chats contract.ChatRepository, messages contract.MessageRepository,
	presence contract.PresenceRegistry, delivery contract.Delivery,
	inbox *projection.Inbox) *ChatService {
	return &ChatService{
		chats:    chats,
		messages: messages,
		presence: presence,
		delivery: delivery,
		inbox:    inbox,
	}
}

// StartChat creates or returns the chat between the caller and the
// recipient, optionally scoped to a listing.
func (s *ChatService) StartChat(_ context.Context, cmd domain.StartChatCommand) (domain.Chat, error) {
	recipientID := strings.TrimSpace(cmd.RecipientID)
	if recipientID == "" {
		return domain.Chat{}, errors.ErrInvalidParticipant
	}
	if recipientID == cmd.UserID {
		return domain.Chat{}, errors.ErrSelfChat
	}
	return s.chats.FindOrCreate(cmd.UserID, recipientID, strings.TrimSpace(cmd.ListingID))
}

func (s *ChatService) Inbox(_ context.Context, viewerID string) ([]projection.ConversationSummary, error) {
	return s.inbox.Build(viewerID)
}

// History returns a page of the chat's messages in ascending time
// order. Only participants may read a chat.
func (s *ChatService) History(_ context.Context, cmd domain.ListMessagesCommand) ([]domain.Message, error) {
	chat, err := s.chats.Get(cmd.ChatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(cmd.ViewerID) {
		return nil, errors.ErrNotParticipant
	}
	return s.messages.List(cmd.ChatID, cmd.Page, cmd.Limit)
}

func (s *ChatService) Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	return s.delivery.Send(ctx, cmd)
}

func (s *ChatService) MarkRead(ctx context.Context, cmd domain.MarkReadCommand) error {
	return s.delivery.MarkRead(ctx, cmd)
}

// Connect records a live connection's presence announcement. The first
// connection of a user triggers the pending-message delivery sweep and
// the online broadcast.
func (s *ChatService) Connect(ctx context.Context, userID, connID string, sink contract.EventSink) {
	s.presence.MarkOnline(userID, connID, sink)
	s.delivery.HandleOnline(ctx, userID)
}

// Disconnect unbinds a connection; when it was the user's last one the
// offline broadcast fires.
func (s *ChatService) Disconnect(ctx context.Context, userID, connID string) {
	if s.presence.MarkOffline(userID, connID) {
		s.delivery.HandleOffline(ctx, userID)
	}
}
