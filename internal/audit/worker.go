package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from a channel and fans them out to every
// configured sink. Sink failures are logged and skipped; audit must never
// take the gateway down.
type Worker struct {
	inbox  <-chan Event
	sinks  []Store
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, logger *slog.Logger, sinks ...Store) *Worker {
	return &Worker{inbox: inbox, sinks: sinks, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			for _, sink := range w.sinks {
				if err := sink.Append(ctx, event); err != nil {
					w.logger.ErrorContext(ctx, "audit sink append failed",
						"error", err,
						"action", event.Action,
						"event_id", event.ID,
					)
				}
			}
		}
	}
}
