// Package events delivers engine events to an external sink. Emission never
// blocks the transition that caused it: events are buffered and a background
// loop publishes them with a bounded retry policy. A failed delivery is
// logged and counted; the committed transition stands.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"talentkyc/internal/kyc/metrics"
	"talentkyc/internal/kyc/models"
	"talentkyc/pkg/platform/retry"
)

const (
	defaultBufferSize    = 4096
	defaultBatchSize     = 64
	defaultFlushInterval = time.Second
)

// Publisher hands events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// Dispatcher buffers events and publishes them in the background.
type Dispatcher struct {
	publisher     Publisher
	buffer        *ringBuffer
	notify        chan struct{}
	retry         *retry.Policy
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithBufferSize bounds how many undelivered events are held.
func WithBufferSize(n int) Option {
	return func(d *Dispatcher) {
		d.buffer = newRingBuffer(n)
	}
}

func WithRetryPolicy(p *retry.Policy) Option {
	return func(d *Dispatcher) {
		if p != nil {
			d.retry = p
		}
	}
}

func WithFlushInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.flushInterval = interval
		}
	}
}

func NewDispatcher(publisher Publisher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		publisher:     publisher,
		buffer:        newRingBuffer(defaultBufferSize),
		notify:        make(chan struct{}, 1),
		retry:         retry.New(),
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Emit queues events for delivery and returns immediately. Missing ids and
// timestamps are filled in.
func (d *Dispatcher) Emit(ctx context.Context, evs ...models.Event) {
	for _, ev := range evs {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if ev.Timestamp.IsZero() {
			ev.Timestamp = time.Now()
		}
		if d.buffer.enqueue(ev) {
			d.metrics.IncEventsDropped()
			if d.logger != nil {
				d.logger.WarnContext(ctx, "event buffer full, dropped oldest event",
					"dropped_total", d.buffer.droppedTotal(),
				)
			}
		}
	}
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

// Pending reports how many events await delivery.
func (d *Dispatcher) Pending() int {
	return d.buffer.len()
}

// Run publishes buffered events until ctx is cancelled, then flushes what is
// left with a short grace period.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			d.Flush(flushCtx)
			cancel()
			return ctx.Err()
		case <-d.notify:
			d.Flush(ctx)
		case <-ticker.C:
			d.Flush(ctx)
		}
	}
}

// Flush publishes everything currently buffered. When ctx ends mid-flush the
// undelivered events go back to the front of the buffer for the next flush.
func (d *Dispatcher) Flush(ctx context.Context) {
	for ctx.Err() == nil {
		batch := d.buffer.dequeueBatch(d.batchSize)
		if len(batch) == 0 {
			return
		}
		for i, ev := range batch {
			if d.deliver(ctx, ev) || ctx.Err() == nil {
				continue
			}
			for range d.buffer.requeue(batch[i:]) {
				d.metrics.IncEventsDropped()
			}
			return
		}
	}
}

// deliver reports whether ev reached the publisher. A failure caused by ctx
// ending is left to the caller.
func (d *Dispatcher) deliver(ctx context.Context, ev models.Event) bool {
	err := d.retry.Do(ctx, func(ctx context.Context) error {
		return d.publisher.Publish(ctx, ev)
	})
	if err == nil {
		d.metrics.IncEventsPublished()
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	d.metrics.IncEventsFailed()
	if d.logger != nil {
		attrs := []any{
			"event_id", ev.ID,
			"kind", ev.Kind,
			"owner_id", ev.OwnerID,
			"error", err,
		}
		if ev.DocumentID != nil {
			attrs = append(attrs, "document_id", ev.DocumentID.String())
		}
		d.logger.ErrorContext(ctx, "event delivery failed", attrs...)
	}
	return false
}
