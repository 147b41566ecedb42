package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"talentkyc/internal/kyc/metrics"
	"talentkyc/internal/kyc/models"
	id "talentkyc/pkg/domain"
	"talentkyc/pkg/platform/retry"
)

type flakyPublisher struct {
	mu       sync.Mutex
	failures int
	calls    int
	got      []models.Event
}

func (p *flakyPublisher) Publish(_ context.Context, ev models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.got = append(p.got, ev)
	return nil
}

func (p *flakyPublisher) delivered() []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Event(nil), p.got...)
}

// slowPublisher takes a moment per event and gives up when ctx ends, the way
// a synchronous produce call does.
type slowPublisher struct {
	mu    sync.Mutex
	delay time.Duration
	got   []models.Event
}

func (p *slowPublisher) Publish(ctx context.Context, ev models.Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.delay):
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, ev)
	return nil
}

func (p *slowPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

type DispatcherSuite struct {
	suite.Suite
	metrics *metrics.Metrics
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.metrics = metrics.New(prometheus.NewRegistry())
}

func (s *DispatcherSuite) event(owner string, status models.VerificationStatus) models.Event {
	return models.Event{
		Kind:      models.EventDocumentStatusChanged,
		OwnerID:   id.OwnerID(owner),
		NewStatus: string(status),
	}
}

func (s *DispatcherSuite) fastRetry(attempts int) *retry.Policy {
	return retry.New(retry.WithAttempts(attempts), retry.WithInitialDelay(0))
}

// =============================================================================
// Delivery
// =============================================================================

func (s *DispatcherSuite) TestFlushDeliversInEmissionOrder() {
	pub := &flakyPublisher{}
	d := NewDispatcher(pub, WithMetrics(s.metrics), WithRetryPolicy(s.fastRetry(1)))

	d.Emit(context.Background(),
		s.event("owner-1", models.StatusPending),
		s.event("owner-1", models.StatusUnderReview),
		s.event("owner-1", models.StatusVerified),
	)
	d.Flush(context.Background())

	got := pub.delivered()
	s.Require().Len(got, 3)
	s.Equal(string(models.StatusPending), got[0].NewStatus)
	s.Equal(string(models.StatusVerified), got[2].NewStatus)
	s.Equal(0, d.Pending())
	s.Equal(3.0, testutil.ToFloat64(s.metrics.EventsPublished))
}

func (s *DispatcherSuite) TestEmitFillsIDAndTimestamp() {
	pub := &flakyPublisher{}
	d := NewDispatcher(pub)

	d.Emit(context.Background(), s.event("owner-1", models.StatusPending))
	d.Flush(context.Background())

	got := pub.delivered()
	s.Require().Len(got, 1)
	s.NotEmpty(got[0].ID)
	s.False(got[0].Timestamp.IsZero())
}

func (s *DispatcherSuite) TestTransientFailureIsRetried() {
	pub := &flakyPublisher{failures: 2}
	d := NewDispatcher(pub, WithMetrics(s.metrics), WithRetryPolicy(s.fastRetry(3)))

	d.Emit(context.Background(), s.event("owner-1", models.StatusVerified))
	d.Flush(context.Background())

	s.Len(pub.delivered(), 1)
	s.Equal(3, pub.calls)
	s.Equal(0.0, testutil.ToFloat64(s.metrics.EventsFailed))
}

// Justification: a failed delivery must not block later events.
func (s *DispatcherSuite) TestExhaustedRetriesAreCountedAndSkipped() {
	pub := &flakyPublisher{failures: 2}
	d := NewDispatcher(pub, WithMetrics(s.metrics), WithRetryPolicy(s.fastRetry(2)))

	d.Emit(context.Background(),
		s.event("owner-1", models.StatusRejected),
		s.event("owner-2", models.StatusVerified),
	)
	d.Flush(context.Background())

	got := pub.delivered()
	s.Require().Len(got, 1)
	s.Equal(id.OwnerID("owner-2"), got[0].OwnerID)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.EventsFailed))
}

// =============================================================================
// Buffering
// =============================================================================

func (s *DispatcherSuite) TestFullBufferDropsOldest() {
	pub := &flakyPublisher{}
	d := NewDispatcher(pub, WithMetrics(s.metrics), WithBufferSize(2))

	d.Emit(context.Background(),
		s.event("owner-1", models.StatusPending),
		s.event("owner-2", models.StatusPending),
		s.event("owner-3", models.StatusPending),
	)
	s.Equal(2, d.Pending())
	d.Flush(context.Background())

	got := pub.delivered()
	s.Require().Len(got, 2)
	s.Equal(id.OwnerID("owner-2"), got[0].OwnerID)
	s.Equal(id.OwnerID("owner-3"), got[1].OwnerID)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.EventsDropped))
}

func (s *DispatcherSuite) TestRunDeliversAndDrainsOnShutdown() {
	pub := &flakyPublisher{}
	d := NewDispatcher(pub, WithFlushInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	d.Emit(ctx, s.event("owner-1", models.StatusPending))
	s.Eventually(func() bool { return len(pub.delivered()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	d.Emit(context.Background(), s.event("owner-2", models.StatusPending))
	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(2 * time.Second):
		s.FailNow("dispatcher did not stop")
	}
	s.Equal(0, d.Pending())
}

// Justification: shutdown must not turn buffered events into failures; the
// grace flush delivers whatever the interrupted flush left behind.
func (s *DispatcherSuite) TestShutdownDuringFlushKeepsUndeliveredEvents() {
	pub := &slowPublisher{delay: time.Millisecond}
	d := NewDispatcher(pub,
		WithMetrics(s.metrics),
		WithRetryPolicy(s.fastRetry(1)),
		WithFlushInterval(time.Hour),
	)
	for range 200 {
		d.Emit(context.Background(), s.event("owner-1", models.StatusPending))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	s.Eventually(func() bool { return pub.count() > 0 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(6 * time.Second):
		s.FailNow("dispatcher did not stop")
	}

	s.Equal(200, pub.count())
	s.Equal(0, d.Pending())
	s.Equal(0.0, testutil.ToFloat64(s.metrics.EventsFailed))
	s.Equal(200.0, testutil.ToFloat64(s.metrics.EventsPublished))
}

func (s *DispatcherSuite) TestFlushWithEndedContextLeavesEventsBuffered() {
	pub := &slowPublisher{delay: time.Millisecond}
	d := NewDispatcher(pub, WithMetrics(s.metrics), WithRetryPolicy(s.fastRetry(1)))
	d.Emit(context.Background(),
		s.event("owner-1", models.StatusPending),
		s.event("owner-2", models.StatusPending),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Flush(ctx)

	s.Equal(2, d.Pending())
	s.Equal(0, pub.count())
}

func TestRingBufferRequeueGoesToFront(t *testing.T) {
	b := newRingBuffer(3)
	b.enqueue(models.Event{ID: "1"})
	b.enqueue(models.Event{ID: "2"})
	batch := b.dequeueBatch(2)
	b.enqueue(models.Event{ID: "3"})
	b.enqueue(models.Event{ID: "4"})

	dropped := b.requeue(batch)
	assert.Equal(t, 1, dropped, "only one slot was free")

	got := b.dequeueBatch(3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2", "3", "4"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, int64(1), b.droppedTotal())
}

func TestMemoryPublisherKeepsMostRecent(t *testing.T) {
	pub := NewMemoryPublisher(2)
	for _, owner := range []string{"a", "b", "c"} {
		require.NoError(t, pub.Publish(context.Background(), models.Event{OwnerID: id.OwnerID(owner)}))
	}

	got := pub.Events()
	require.Len(t, got, 2)
	assert.Equal(t, id.OwnerID("b"), got[0].OwnerID)
	assert.Equal(t, id.OwnerID("c"), got[1].OwnerID)

	pub.Reset()
	assert.Empty(t, pub.Events())
}
