package audit

import (
	"context"
	"time"

	"vibegate/pkg/requestcontext"
)

// Publisher captures structured audit events. It is append-only and uses the
// store layer for persistence so tests can swap sinks easily.
//
// Issuance events (award_issued) are fail-closed: the reward engine must fail
// its operation when Emit returns an error, so they always append
// synchronously. Everything else is fail-open and, when an inbox is
// configured, is handed to the background Worker instead.
type Publisher struct {
	store Store
	inbox chan<- Event
}

type PublisherOption func(*Publisher)

// WithInbox routes fail-open events through the channel a Worker drains. A
// full inbox falls back to the synchronous path rather than dropping events.
func WithInbox(inbox chan<- Event) PublisherOption {
	return func(p *Publisher) {
		p.inbox = inbox
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	publisher := &Publisher{store: store}
	for _, opt := range opts {
		opt(publisher)
	}
	return publisher
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Actor == "" {
		event.Actor = requestcontext.Actor(ctx)
	}

	if p.inbox != nil && !event.Action.FailClosed() {
		select {
		case p.inbox <- event:
			return nil
		default:
			// Inbox full; append synchronously instead.
		}
	}
	return p.store.Append(ctx, event)
}
