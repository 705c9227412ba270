package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mastery/internal/ledger/models"
	id "mastery/pkg/domain"
	txcontext "mastery/pkg/platform/tx"
)

// Sink persists or forwards emitted ledger events.
type Sink interface {
	Append(ctx context.Context, event models.Event) error
}

// Publisher captures ledger events. Events emitted inside a transaction are
// held back until it commits, so subscribers only ever see committed state.
type Publisher struct {
	sink   Sink
	events chan models.Event
	wg     sync.WaitGroup
	logger *slog.Logger
	async  bool
	now    func() time.Time
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async delivery with the specified buffer size.
// Events are queued and handed to the sink in a background goroutine.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan models.Event, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for delivery error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithClock overrides the wall clock used to stamp events.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		p.now = now
	}
}

func NewPublisher(sink Sink, opts ...PublisherOption) *Publisher {
	p := &Publisher{sink: sink, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		p.deliver(context.Background(), event)
	}
}

// Close shuts down the async publisher and waits for pending events to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

// Emit stamps the event and schedules delivery for after the enclosing
// transaction commits. Delivery failures are logged, never returned: the
// ledger operation has already committed.
func (p *Publisher) Emit(ctx context.Context, event models.Event) {
	if p == nil {
		return
	}
	var zero id.EventID
	if event.ID == zero {
		event.ID = id.NewEventID()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now()
	}
	txcontext.AfterCommit(ctx, func() {
		if !p.async {
			p.deliver(context.WithoutCancel(ctx), event)
			return
		}
		select {
		case p.events <- event:
		default:
			if p.logger != nil {
				p.logger.Warn("ledger event buffer full, event dropped",
					"type", string(event.Type),
					"verification_id", event.VerificationID.String(),
				)
			}
		}
	})
}

func (p *Publisher) deliver(ctx context.Context, event models.Event) {
	if err := p.sink.Append(ctx, event); err != nil && p.logger != nil {
		p.logger.Error("failed to deliver ledger event",
			"error", err,
			"type", string(event.Type),
			"verification_id", event.VerificationID.String(),
		)
	}
}
