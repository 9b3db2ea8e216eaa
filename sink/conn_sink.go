// Package sink provides EventSink implementations bridging the
// delivery layer to live connections.
package sink

import (
	"context"

	"market-chat/domain/event"
)

// ConnSink buffers events for one live connection. The transport
// handler owns the draining side.
type ConnSink struct {
	Events chan event.DomainEvent
}

func NewConnSink(bufferSize int) *ConnSink {
	return &ConnSink{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume hands the event to the connection's channel. A full buffer
// means the client is not keeping up; the event is dropped rather than
// blocking the delivery path, and the client recovers real state on its
// next history or inbox fetch.
func (s *ConnSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
