package audit

import (
	"context"
	"log/slog"
)

// Worker drains fail-open audit events from the publisher's inbox into the
// store. Append failures are logged and the event dropped; only fail-closed
// events carry a durability guarantee, and those never reach this path.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

type WorkerOption func(*Worker)

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

func NewWorker(store Store, inbox <-chan Event, opts ...WorkerOption) *Worker {
	worker := &Worker{store: store, inbox: inbox}
	for _, opt := range opts {
		opt(worker)
	}
	return worker
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
