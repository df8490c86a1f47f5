package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dropspace/pkg/requestcontext"
)

// Store is an append-only audit sink.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. It enriches events with
// request-scoped metadata and hands them to a channel the worker drains, so
// domain calls never block on a slow sink.
type Publisher struct {
	outbox chan<- Event
}

func NewPublisher(outbox chan<- Event) *Publisher {
	return &Publisher{outbox: outbox}
}

// Emit records an event. Best-effort: when the outbox is full the event is
// dropped rather than stalling the admission path.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil || p.outbox == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.ClientPlatform == "" {
		event.ClientPlatform = requestcontext.ClientPlatform(ctx)
	}

	select {
	case p.outbox <- event:
	default:
	}
}
