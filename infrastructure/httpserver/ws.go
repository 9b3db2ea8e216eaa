package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"market-chat/domain"
	"market-chat/domain/event"
	"market-chat/sink"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

// wsFrame is the envelope of every frame on the live channel, in both
// directions.
type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type presencePayload struct {
	UserID string `json:"user_id"`
}

type statusPayload struct {
	MessageID uuid.UUID     `json:"message_id"`
	Status    domain.Status `json:"status"`
}

type markReadPayload struct {
	ChatID uuid.UUID `json:"chat_id"`
}

type wsSendPayload struct {
	ChatID      uuid.UUID `json:"chat_id"`
	RecipientID string    `json:"recipient_id"`
	Content     string    `json:"content"`
}

// wsPeer serializes writes to one connection. The reader loop and the
// event pump goroutine both write frames.
type wsPeer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newWSPeer(conn *websocket.Conn) *wsPeer {
	return &wsPeer{enc: json.NewEncoder(conn)}
}

func (p *wsPeer) writeFrame(frameType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enc.Encode(wsFrame{Type: frameType, Payload: raw})
}

func (p *wsPeer) writeError(code, message string) {
	_ = p.writeFrame("error", map[string]string{"code": code, "message": message})
}

// handleConn is the per-connection reader loop. Identity was resolved
// during the handshake; presence is only claimed once the client sends
// presence:online, so a connection can lurk without flushing its
// pending messages.
func (s *Server) handleConn(conn *websocket.Conn, userID string) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	peer := newWSPeer(conn)
	dec := json.NewDecoder(conn)
	connID := uuid.NewString()
	announced := false

	defer func() {
		if announced {
			s.service.Disconnect(context.Background(), userID, connID)
		}
	}()

	s.log.Info("live connection opened", "user", userID, "conn", connID)

	for {
		var frame wsFrame
		if err := dec.Decode(&frame); err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.log.Debug("live connection read failed", "user", userID, "error", err)
			}
			return
		}

		switch frame.Type {
		case "presence:online":
			if announced {
				continue
			}
			connSink := sink.NewConnSink(s.bufferSize)
			go s.pumpEvents(ctx, peer, connSink, userID)
			s.service.Connect(ctx, userID, connID, connSink)
			announced = true

		case "chat:markRead":
			var payload markReadPayload
			if err := json.Unmarshal(frame.Payload, &payload); err != nil {
				peer.writeError("bad_payload", "invalid chat:markRead payload")
				continue
			}
			err := s.service.MarkRead(ctx, domain.MarkReadCommand{
				ChatID:   payload.ChatID,
				ReaderID: userID,
			})
			if err != nil {
				peer.writeError("mark_read_failed", err.Error())
			}

		case "message:send":
			var payload wsSendPayload
			if err := json.Unmarshal(frame.Payload, &payload); err != nil {
				peer.writeError("bad_payload", "invalid message:send payload")
				continue
			}
			msg, err := s.service.Send(ctx, domain.SendMessageCommand{
				ChatID:      payload.ChatID,
				SenderID:    userID,
				RecipientID: payload.RecipientID,
				Content:     payload.Content,
				CreatedAt:   time.Now().UTC(),
			})
			if err != nil {
				peer.writeError("send_failed", err.Error())
				continue
			}
			// Single-tick ack straight to the sending connection. The
			// delivered/read ticks arrive as message:status events.
			if err := peer.writeFrame("message:status", statusPayload{
				MessageID: msg.ID,
				Status:    msg.Status,
			}); err != nil {
				return
			}

		default:
			peer.writeError("unknown_type", "unknown frame type")
		}
	}
}

// pumpEvents drains the connection's sink onto the wire until the
// connection goes away.
func (s *Server) pumpEvents(ctx context.Context, peer *wsPeer, connSink *sink.ConnSink, userID string) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-connSink.Events:
			frameType, payload := eventFrame(e)
			if frameType == "" {
				continue
			}
			if err := peer.writeFrame(frameType, payload); err != nil {
				s.log.Debug("live push failed", "user", userID, "error", err)
				return
			}
		}
	}
}

func eventFrame(e event.DomainEvent) (string, any) {
	switch ev := e.(type) {
	case event.MessageReceived:
		return ev.Kind(), toMessageResponse(ev.Message)
	case event.StatusAdvanced:
		return ev.Kind(), statusPayload{MessageID: ev.MessageID, Status: ev.Status}
	case event.UserOnline:
		return ev.Kind(), presencePayload{UserID: ev.UserID}
	case event.UserOffline:
		return ev.Kind(), presencePayload{UserID: ev.UserID}
	default:
		return "", nil
	}
}
