// Package service is the verification engine: it owns document lifecycle
// transitions, the reviewer queue, and aggregate status computation.
//
// Every mutation loads the document, applies a transition in memory, and
// writes it back with a compare-and-swap on Version. Side effects (cache
// invalidation, events) run only after the write commits.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"talentkyc/internal/kyc/catalog"
	"talentkyc/internal/kyc/metrics"
	"talentkyc/internal/kyc/models"
	"talentkyc/internal/kyc/store/statuscache"
	id "talentkyc/pkg/domain"
	dErrors "talentkyc/pkg/domain-errors"
	"talentkyc/pkg/platform/sentinel"
	"talentkyc/pkg/requestcontext"
)

const defaultSweepConcurrency = 4

// DocumentStore persists documents and their history.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	CreateReplacing(ctx context.Context, doc, prior *models.Document, expectedVersion int64) error
	FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	Update(ctx context.Context, doc *models.Document, expectedVersion int64) error
	History(ctx context.Context, docID id.DocumentID) ([]models.HistoryEntry, error)
	ListByOwner(ctx context.Context, owner id.OwnerID) ([]*models.Document, error)
	Query(ctx context.Context, q models.QueueQuery) ([]*models.Document, int, error)
	CountByStatus(ctx context.Context, q models.QueueQuery) (map[models.VerificationStatus]int, error)
	ListExpiring(ctx context.Context, now time.Time, limit int) ([]*models.Document, error)
	Generation(ctx context.Context, owner id.OwnerID) (models.Generation, error)
}

// StatusCache holds computed aggregates keyed by owner, purpose and catalog
// version.
type StatusCache interface {
	Get(ctx context.Context, key statuscache.Key) (*models.AggregateStatus, bool, error)
	Set(ctx context.Context, key statuscache.Key, status models.AggregateStatus) error
	Invalidate(ctx context.Context, owner id.OwnerID) error
}

// EventEmitter accepts events for asynchronous delivery. It must not block.
type EventEmitter interface {
	Emit(ctx context.Context, events ...models.Event)
}

// Service coordinates the document store, requirement catalog and the
// optional cache and event sink.
type Service struct {
	store            DocumentStore
	catalog          *catalog.Registry
	cache            StatusCache
	emitter          EventEmitter
	logger           *slog.Logger
	metrics          *metrics.Metrics
	tracer           trace.Tracer
	sweepConcurrency int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithStatusCache(cache StatusCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithEventEmitter(emitter EventEmitter) Option {
	return func(s *Service) {
		s.emitter = emitter
	}
}

// WithSweepConcurrency bounds how many documents the expiry sweep writes in
// parallel.
func WithSweepConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sweepConcurrency = n
		}
	}
}

// New constructs a Service.
func New(store DocumentStore, registry *catalog.Registry, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	if registry == nil {
		return nil, errors.New("catalog registry is required")
	}
	s := &Service{
		store:            store,
		catalog:          registry,
		logger:           slog.New(slog.DiscardHandler),
		tracer:           otel.Tracer("talentkyc/internal/kyc/service"),
		sweepConcurrency: defaultSweepConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// startOp opens a span for an engine operation. The returned func ends it,
// recording err and the latency metric.
func (s *Service) startOp(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(err *error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "kyc."+op, trace.WithAttributes(attrs...))
	return ctx, func(err *error) {
		if err != nil && *err != nil {
			span.RecordError(*err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(*err)))
		}
		span.End()
		s.metrics.ObserveOperation(op, time.Since(start).Seconds())
	}
}

func (s *Service) loadDocument(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	doc, err := s.store.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, s.internal(ctx, err, "failed to load document")
	}
	return doc, nil
}

// translateWrite maps store write failures onto domain errors.
func (s *Service) translateWrite(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		s.metrics.IncConflict(op)
		return dErrors.New(dErrors.CodeConflict, "document was changed concurrently; reload and retry")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "operation timed out")
	default:
		return s.internal(ctx, err, "failed to save document")
	}
}

func (s *Service) internal(ctx context.Context, err error, message string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "operation timed out")
	}
	s.logger.ErrorContext(ctx, message,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}

func illegal(err error) error {
	var ite *models.IllegalTransitionError
	if errors.As(err, &ite) {
		return dErrors.Wrap(err, dErrors.CodeInvalidTransition, ite.Error())
	}
	return err
}
