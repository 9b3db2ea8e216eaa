// Package httpserver is the transport gateway: a request/response JSON
// API plus a websocket live channel. Both surfaces call the same
// ChatService; there is no divergent logic between them.
package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"market-chat/auth"
	"market-chat/domain"
	apperrors "market-chat/errors"
	"market-chat/services"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/net/websocket"
)

type Server struct {
	log        *slog.Logger
	service    services.IChatService
	tokens     *auth.Tokens
	validate   *validator.Validate
	bufferSize int
	startedAt  time.Time
}

// NewHandler builds the full route table of the gateway.
func NewHandler(log *slog.Logger, service services.IChatService,
	tokens *auth.Tokens, connectionBufferSize int) http.Handler {
	s := &Server{
		log:        log,
		service:    service,
		tokens:     tokens,
		validate:   validator.New(),
		bufferSize: connectionBufferSize,
		startedAt:  time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chats/start", s.withIdentity(s.handleStartChat))
	mux.HandleFunc("GET /chats", s.withIdentity(s.handleListChats))
	mux.HandleFunc("GET /chats/{chatId}/messages", s.withIdentity(s.handleListMessages))
	mux.HandleFunc("POST /chats/{chatId}/messages", s.withIdentity(s.handleSendMessage))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// --- identity ---

// withIdentity resolves the caller from the bearer token. Identity is
// never read from request payloads.
func (s *Server) withIdentity(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.identify(r)
		if err != nil {
			s.writeError(w, apperrors.ErrUnauthenticated)
			return
		}
		next(w, r, userID)
	}
}

func (s *Server) identify(r *http.Request) (string, error) {
	raw := bearerToken(r)
	if raw == "" {
		return "", apperrors.ErrUnauthenticated
	}
	claims, err := s.tokens.Validate(raw)
	if err != nil {
		return "", err
	}
	userID := strings.TrimSpace(claims.UserID)
	if userID == "" {
		return "", apperrors.ErrUnauthenticated
	}
	return userID, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	// The websocket handshake cannot set headers from browsers, so the
	// live channel passes the token as a query parameter instead.
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// --- payloads ---

type startChatRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	ListingID   string `json:"listing_id"`
}

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Content     string `json:"content" validate:"required"`
}

type chatResponse struct {
	ID           uuid.UUID `json:"id"`
	Participants [2]string `json:"participants"`
	ListingID    string    `json:"listing_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type messageResponse struct {
	ID          uuid.UUID     `json:"id"`
	ChatID      uuid.UUID     `json:"chat_id"`
	SenderID    string        `json:"sender_id"`
	RecipientID string        `json:"recipient_id"`
	Content     string        `json:"content"`
	Status      domain.Status `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func toChatResponse(c domain.Chat) chatResponse {
	return chatResponse{
		ID:           c.ID,
		Participants: c.Participants,
		ListingID:    c.ListingID,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func toMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		ID:          m.ID,
		ChatID:      m.ChatID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// --- handlers ---

func (s *Server) handleStartChat(w http.ResponseWriter, r *http.Request, userID string) {
	var payload startChatRequest
	if !s.decode(w, r, &payload) {
		return
	}
	chat, err := s.service.StartChat(r.Context(), domain.StartChatCommand{
		UserID:      userID,
		RecipientID: payload.RecipientID,
		ListingID:   payload.ListingID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toChatResponse(chat))
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request, userID string) {
	summaries, err := s.service.Inbox(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request, userID string) {
	chatID, err := uuid.Parse(r.PathValue("chatId"))
	if err != nil {
		s.writeError(w, apperrors.ErrChatNotFound)
		return
	}
	messages, err := s.service.History(r.Context(), domain.ListMessagesCommand{
		ChatID:   chatID,
		ViewerID: userID,
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 0),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(messages, func(m domain.Message, _ int) messageResponse {
		return toMessageResponse(m)
	}))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, userID string) {
	chatID, err := uuid.Parse(r.PathValue("chatId"))
	if err != nil {
		s.writeError(w, apperrors.ErrChatNotFound)
		return
	}
	var payload sendMessageRequest
	if !s.decode(w, r, &payload) {
		return
	}
	msg, err := s.service.Send(r.Context(), domain.SendMessageCommand{
		ChatID:      chatID,
		SenderID:    userID,
		RecipientID: payload.RecipientID,
		Content:     payload.Content,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMessageResponse(msg))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
		"alloc_mb":       mem.Alloc / 1024 / 1024,
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID, err := s.identify(r)
	if err != nil {
		s.log.Warn("websocket unauthorized", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	handler := websocket.Handler(func(conn *websocket.Conn) {
		s.handleConn(conn, userID)
	})
	handler.ServeHTTP(w, r)
}

// --- helpers ---

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeFail(w, http.StatusBadRequest, "missing required fields")
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
		writeFail(w, status, "internal error")
		return
	}
	writeFail(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"data":   data,
	})
}

func writeFail(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "fail",
		"message": message,
	})
}

func queryInt(r *http.Request, name string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}
