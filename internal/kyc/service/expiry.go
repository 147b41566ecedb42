package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"talentkyc/internal/kyc/models"
	id "talentkyc/pkg/domain"
	dErrors "talentkyc/pkg/domain-errors"
	"talentkyc/pkg/requestcontext"
)

const expiryNote = "validity period ended"

// SweepResult summarizes one expiry sweep.
type SweepResult struct {
	Expired int
	Skipped int
}

// Expire moves a VERIFIED document whose validity has lapsed to EXPIRED.
// Expiring an EXPIRED document succeeds without change.
func (s *Service) Expire(ctx context.Context, docID id.DocumentID) (_ *models.Document, err error) {
	ctx, end := s.startOp(ctx, "expire", attribute.String("document_id", docID.String()))
	defer end(&err)

	doc, err := s.loadDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	return s.expire(ctx, doc)
}

func (s *Service) expire(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if doc.Status == models.StatusExpired {
		return doc, nil
	}
	if doc.Status != models.StatusVerified {
		return nil, dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("document is %s; only VERIFIED documents expire", doc.Status))
	}
	now := requestcontext.Now(ctx)
	if !doc.ValidityLapsed(now) {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "document validity has not lapsed")
	}

	before := doc.Clone()
	if err := doc.Transition(models.StatusExpired, now, models.SystemActor, expiryNote); err != nil {
		return nil, illegal(err)
	}
	if err := s.store.Update(ctx, doc, before.Version); err != nil {
		return nil, s.translateWrite(ctx, "expire", err)
	}

	s.recordTransition(ctx, before, doc, models.SystemActor)
	s.afterCommit(ctx, doc.OwnerID, doc.Type, []change{{before: before, after: doc}})
	return doc, nil
}

// SweepExpired expires every verified document whose validity lapsed at or
// before now, batchSize documents at a time. Documents changed concurrently
// are skipped and picked up by the next sweep. The sweep stops early when ctx
// is cancelled and can simply be run again.
func (s *Service) SweepExpired(ctx context.Context, now time.Time, batchSize int) (_ SweepResult, err error) {
	ctx, end := s.startOp(ctx, "sweep_expired", attribute.Int("batch_size", batchSize))
	defer end(&err)

	if batchSize <= 0 {
		return SweepResult{}, dErrors.New(dErrors.CodeValidation, "batch size must be positive")
	}
	start := time.Now()
	ctx = requestcontext.WithTime(ctx, now)

	var result SweepResult
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		batch, err := s.store.ListExpiring(ctx, now, batchSize)
		if err != nil {
			return result, s.internal(ctx, err, "failed to list expiring documents")
		}
		if len(batch) == 0 {
			break
		}

		expired, skipped, err := s.expireBatch(ctx, batch)
		result.Expired += expired
		result.Skipped += skipped
		if err != nil {
			return result, err
		}
		// A batch with no progress would be listed again unchanged.
		if expired == 0 || len(batch) < batchSize {
			break
		}
	}

	s.metrics.AddExpired(result.Expired)
	s.metrics.ObserveSweep(time.Since(start).Seconds())
	if result.Expired > 0 || result.Skipped > 0 {
		s.logger.InfoContext(ctx, "expiry sweep finished",
			"expired", result.Expired,
			"skipped", result.Skipped,
		)
	}
	return result, nil
}

func (s *Service) expireBatch(ctx context.Context, batch []*models.Document) (int, int, error) {
	var expired, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.sweepConcurrency)
	for _, d := range batch {
		g.Go(func() error {
			doc, err := s.store.FindByID(gctx, d.ID)
			if err != nil {
				return fmt.Errorf("reload document %s: %w", d.ID, err)
			}
			_, err = s.expire(gctx, doc)
			switch {
			case err == nil:
				expired.Add(1)
				return nil
			case dErrors.HasCode(err, dErrors.CodeConflict), dErrors.HasCode(err, dErrors.CodeInvalidTransition):
				skipped.Add(1)
				s.logger.DebugContext(gctx, "expiry skipped", "document_id", d.ID.String(), "error", err)
				return nil
			default:
				return err
			}
		})
	}
	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		err = s.internal(ctx, err, "expiry sweep failed")
	}
	return int(expired.Load()), int(skipped.Load()), err
}
