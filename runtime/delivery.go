package runtime

import (
	"context"
	"log/slog"
	"time"

	"market-chat/contract"
	"market-chat/domain"
	"market-chat/domain/event"
	"market-chat/errors"
)

// Delivery is the state machine advancing messages through
// sent -> delivered -> read and firing acknowledgement pushes on each
// transition. Status is only ever advanced from recipient-side signals
// (presence announcements and mark-read), never guessed.
//
// Push failures are expected degraded-mode events: persistence already
// succeeded, so they are logged and swallowed. The next status query
// reflects the persisted truth on demand.
type Delivery struct {
	log         *slog.Logger
	chats       contract.ChatRepository
	messages    contract.MessageRepository
	presence    contract.PresenceRegistry
	pushTimeout time.Duration
}

func NewDelivery(log *slog.Logger, chats contract.ChatRepository,
	messages contract.MessageRepository, presence contract.PresenceRegistry,
	pushTimeout time.Duration) *Delivery {
	return &Delivery{
		log:         log,
		chats:       chats,
		messages:    messages,
		presence:    presence,
		pushTimeout: pushTimeout,
	}
}

// Send creates a message at `sent` and immediately attempts delivery.
// When the recipient is online the stored status reaches `delivered`
// before Send returns, the recipient's connections get the message and
// the sender's connections get the delivery acknowledgement.
func (d *Delivery) Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	chat, err := d.chats.Get(cmd.ChatID)
	if err != nil {
		return domain.Message{}, err
	}
	if !chat.HasParticipant(cmd.SenderID) {
		return domain.Message{}, errors.ErrNotParticipant
	}

	msg, err := d.messages.Append(chat, cmd.SenderID, cmd.RecipientID, cmd.Content)
	if err != nil {
		return domain.Message{}, err
	}

	if d.presence.IsOnline(msg.RecipientID) {
		delivered, err := d.messages.MarkDelivered(msg.RecipientID)
		if err != nil {
			// The message is safely stored at `sent`; the recipient's
			// next presence announcement retries the transition.
			d.log.Warn("synchronous delivery attempt failed",
				"message_id", msg.ID, "recipient_id", msg.RecipientID, "error", err)
			return msg, nil
		}
		for _, m := range delivered {
			if m.ID == msg.ID {
				msg = m
			}
			d.pushTo(ctx, m.SenderID, event.StatusAdvanced{MessageID: m.ID, Status: m.Status})
		}
		d.pushTo(ctx, msg.RecipientID, event.MessageReceived{Message: msg})
	}
	return msg, nil
}

// HandleOnline flips every pending `sent` message for the user to
// `delivered`, acknowledges the original senders, and broadcasts the
// presence change to all connected parties.
func (d *Delivery) HandleOnline(ctx context.Context, userID string) {
	delivered, err := d.messages.MarkDelivered(userID)
	if err != nil {
		d.log.Error("marking pending messages delivered failed",
			"user_id", userID, "error", err)
	} else {
		for _, m := range delivered {
			d.pushTo(ctx, m.SenderID, event.StatusAdvanced{MessageID: m.ID, Status: m.Status})
		}
		if len(delivered) > 0 {
			d.log.Info("pending messages delivered on presence announcement",
				"user_id", userID, "count", len(delivered))
		}
	}
	d.broadcast(ctx, event.UserOnline{UserID: userID})
}

// HandleOffline broadcasts that the user lost its last connection.
func (d *Delivery) HandleOffline(ctx context.Context, userID string) {
	d.broadcast(ctx, event.UserOffline{UserID: userID})
}

// MarkRead flips every message in the chat addressed to the reader to
// `read` and acknowledges each affected message's sender.
func (d *Delivery) MarkRead(ctx context.Context, cmd domain.MarkReadCommand) error {
	chat, err := d.chats.Get(cmd.ChatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(cmd.ReaderID) {
		return errors.ErrNotParticipant
	}

	affected, err := d.messages.MarkRead(cmd.ChatID, cmd.ReaderID)
	if err != nil {
		return err
	}
	for _, m := range affected {
		d.pushTo(ctx, m.SenderID, event.StatusAdvanced{MessageID: m.ID, Status: m.Status})
	}
	return nil
}

// pushTo delivers an event to every live connection of a user.
// Best-effort: an unreachable or slow sink is logged and skipped.
func (d *Delivery) pushTo(ctx context.Context, userID string, e event.DomainEvent) {
	for _, sink := range d.presence.SinksFor(userID) {
		d.consume(ctx, sink, e)
	}
}

func (d *Delivery) broadcast(ctx context.Context, e event.DomainEvent) {
	for _, sink := range d.presence.AllSinks() {
		d.consume(ctx, sink, e)
	}
}

func (d *Delivery) consume(ctx context.Context, sink contract.EventSink, e event.DomainEvent) {
	pushCtx, cancel := context.WithTimeout(ctx, d.pushTimeout)
	defer cancel()
	if err := sink.Consume(pushCtx, e); err != nil {
		d.log.Warn("push dropped", "event", e.Kind(), "error", err)
	}
}
