package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"talentkyc/internal/kyc/aggregate"
	"talentkyc/internal/kyc/models"
	"talentkyc/internal/kyc/store/statuscache"
	id "talentkyc/pkg/domain"
	dErrors "talentkyc/pkg/domain-errors"
	"talentkyc/pkg/requestcontext"
)

// change pairs a document's state before and after a committed write.
// before is nil for a newly created document.
type change struct {
	before *models.Document
	after  *models.Document
}

// GetAggregateStatus derives the owner's trust status for purpose under the
// active catalog.
func (s *Service) GetAggregateStatus(ctx context.Context, owner id.OwnerID, purpose models.Purpose) (*models.AggregateStatus, error) {
	return s.GetAggregateStatusForVersion(ctx, owner, purpose, "")
}

// GetAggregateStatusForVersion is GetAggregateStatus against a specific
// catalog version. An empty version means the active one.
func (s *Service) GetAggregateStatusForVersion(ctx context.Context, owner id.OwnerID, purpose models.Purpose, version string) (_ *models.AggregateStatus, err error) {
	ctx, end := s.startOp(ctx, "aggregate_status",
		attribute.String("owner_id", owner.String()),
		attribute.String("purpose", string(purpose)),
	)
	defer end(&err)

	if owner == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "owner id is required")
	}
	if version == "" {
		version = s.catalog.ActiveVersion()
	}
	groups, err := s.catalog.ResolveVersion(version, purpose)
	if err != nil {
		return nil, err
	}

	gen, err := s.store.Generation(ctx, owner)
	if err != nil {
		return nil, s.internal(ctx, err, "failed to read document generation")
	}
	key := statuscache.Key{OwnerID: owner, Purpose: purpose, CatalogVersion: version}
	if cached := s.cached(ctx, key, gen); cached != nil {
		return cached, nil
	}

	docs, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, s.internal(ctx, err, "failed to load owner documents")
	}
	status := aggregate.Aggregate(docs, groups)
	status.Purpose = purpose
	status.CatalogVersion = version
	status.Generation = gen.String()

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, status); err != nil {
			s.logger.WarnContext(ctx, "failed to cache aggregate status",
				"owner_id", owner.String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	return &status, nil
}

// cached returns a cache entry only when it was computed from the current
// document generation. Cache failures degrade to recomputation.
func (s *Service) cached(ctx context.Context, key statuscache.Key, gen models.Generation) *models.AggregateStatus {
	if s.cache == nil {
		return nil
	}
	hit, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "aggregate cache unavailable",
			"owner_id", key.OwnerID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.metrics.IncCache("error")
		return nil
	}
	if !ok {
		s.metrics.IncCache("miss")
		return nil
	}
	if hit.Generation != gen.String() {
		s.metrics.IncCache("stale")
		return nil
	}
	s.metrics.IncCache("hit")
	return hit
}

// afterCommit runs the side effects of a committed write: the owner's cached
// aggregates are dropped and document and aggregate events are emitted.
// Failures here are logged; the write stands.
func (s *Service) afterCommit(ctx context.Context, owner id.OwnerID, docType models.DocumentType, changes []change) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, owner); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate aggregate cache",
				"owner_id", owner.String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	if s.emitter == nil {
		return
	}

	now := requestcontext.Now(ctx)
	var evs []models.Event
	for _, c := range changes {
		evs = append(evs, documentEvent(c, now))
	}
	evs = append(evs, s.aggregateEvents(ctx, owner, docType, changes, now)...)
	s.emitter.Emit(ctx, evs...)
}

func documentEvent(c change, now time.Time) models.Event {
	docID := c.after.ID
	ev := models.Event{
		Kind:         models.EventDocumentStatusChanged,
		OwnerID:      c.after.OwnerID,
		DocumentID:   &docID,
		DocumentType: c.after.Type,
		NewStatus:    c.after.Status.String(),
		PerformedBy:  performer(c.after),
		Timestamp:    now,
	}
	if c.before != nil {
		ev.OldStatus = c.before.Status.String()
		if !c.before.IsRetired() && c.after.IsRetired() {
			ev.Kind = models.EventDocumentRetired
			ev.PerformedBy = c.after.OwnerID.String()
		}
	}
	return ev
}

func performer(doc *models.Document) string {
	if last, ok := doc.LastEntry(); ok {
		return last.PerformedBy
	}
	return ""
}

// aggregateEvents compares the owner's aggregate before and after changes for
// every purpose that references docType.
func (s *Service) aggregateEvents(ctx context.Context, owner id.OwnerID, docType models.DocumentType, changes []change, now time.Time) []models.Event {
	purposes := s.catalog.PurposesFor(docType)
	if len(purposes) == 0 {
		return nil
	}
	after, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		s.logger.WarnContext(ctx, "skipping aggregate events",
			"owner_id", owner.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil
	}
	before := rewind(after, changes)

	var evs []models.Event
	for _, purpose := range purposes {
		groups, err := s.catalog.Resolve(purpose)
		if err != nil {
			continue
		}
		was := aggregate.Aggregate(before, groups)
		is := aggregate.Aggregate(after, groups)
		if was.SameOutcome(is) {
			continue
		}
		evs = append(evs, models.Event{
			Kind:      models.EventKYCStatusChanged,
			OwnerID:   owner,
			Purpose:   purpose,
			OldStatus: string(was.Status),
			NewStatus: string(is.Status),
			Timestamp: now,
		})
		s.logger.InfoContext(ctx, "aggregate status changed",
			"owner_id", owner.String(),
			"purpose", string(purpose),
			"from", string(was.Status),
			"to", string(is.Status),
			"completion", is.CompletionPercentage,
		)
	}
	return evs
}

// rewind reconstructs the owner's document set as it was before changes.
func rewind(after []*models.Document, changes []change) []*models.Document {
	prior := make(map[id.DocumentID]*models.Document, len(changes))
	created := make(map[id.DocumentID]bool, len(changes))
	for _, c := range changes {
		if c.before == nil {
			created[c.after.ID] = true
			continue
		}
		prior[c.after.ID] = c.before
	}
	out := make([]*models.Document, 0, len(after))
	for _, d := range after {
		if created[d.ID] {
			continue
		}
		if p, ok := prior[d.ID]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, d)
	}
	return out
}
