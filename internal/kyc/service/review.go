package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"talentkyc/internal/kyc/models"
	id "talentkyc/pkg/domain"
	dErrors "talentkyc/pkg/domain-errors"
	"talentkyc/pkg/requestcontext"
)

const releaseNote = "claim released"

// ClaimForReview moves a PENDING document to UNDER_REVIEW for reviewer.
// Claiming a document the same reviewer already holds is a no-op.
func (s *Service) ClaimForReview(ctx context.Context, docID id.DocumentID, reviewer id.ReviewerID) (_ *models.Document, err error) {
	ctx, end := s.startOp(ctx, "claim",
		attribute.String("document_id", docID.String()),
		attribute.String("reviewer_id", reviewer.String()),
	)
	defer end(&err)

	if reviewer == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reviewer id is required")
	}
	doc, err := s.loadDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status == models.StatusUnderReview {
		if doc.ClaimedBy == reviewer {
			return doc, nil
		}
		s.metrics.IncConflict("claim")
		return nil, dErrors.New(dErrors.CodeConflict, "document is already claimed by another reviewer")
	}

	before := doc.Clone()
	now := requestcontext.Now(ctx)
	if err := doc.Transition(models.StatusUnderReview, now, reviewer.String(), ""); err != nil {
		return nil, illegal(err)
	}
	doc.ClaimedBy = reviewer
	if err := s.store.Update(ctx, doc, before.Version); err != nil {
		return nil, s.translateWrite(ctx, "claim", err)
	}

	s.recordTransition(ctx, before, doc, reviewer.String())
	s.afterCommit(ctx, doc.OwnerID, doc.Type, []change{{before: before, after: doc}})
	return doc, nil
}

// ReleaseClaim hands an UNDER_REVIEW document back to the queue. Only the
// claiming reviewer may release it.
func (s *Service) ReleaseClaim(ctx context.Context, docID id.DocumentID, reviewer id.ReviewerID) (_ *models.Document, err error) {
	ctx, end := s.startOp(ctx, "release",
		attribute.String("document_id", docID.String()),
		attribute.String("reviewer_id", reviewer.String()),
	)
	defer end(&err)

	if reviewer == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reviewer id is required")
	}
	doc, err := s.loadDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status == models.StatusUnderReview && doc.ClaimedBy != reviewer {
		s.metrics.IncConflict("release")
		return nil, dErrors.New(dErrors.CodeConflict, "document is claimed by another reviewer")
	}

	if doc.Status != models.StatusUnderReview {
		return nil, dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("only UNDER_REVIEW documents can be released, document is %s", doc.Status))
	}

	before := doc.Clone()
	now := requestcontext.Now(ctx)
	if err := doc.Transition(models.StatusPending, now, reviewer.String(), releaseNote); err != nil {
		return nil, illegal(err)
	}
	doc.ClaimedBy = ""
	if err := s.store.Update(ctx, doc, before.Version); err != nil {
		return nil, s.translateWrite(ctx, "release", err)
	}

	s.recordTransition(ctx, before, doc, reviewer.String())
	s.afterCommit(ctx, doc.OwnerID, doc.Type, []change{{before: before, after: doc}})
	return doc, nil
}

// Decide applies a reviewer's VERIFIED or REJECTED verdict. Malformed input
// is refused before the document is read; a document outside PENDING and
// UNDER_REVIEW cannot be decided, and one whose expiry date has passed
// cannot be verified.
func (s *Service) Decide(ctx context.Context, req DecideRequest) (_ *models.Document, err error) {
	req.Normalize()
	ctx, end := s.startOp(ctx, "decide",
		attribute.String("document_id", req.DocumentID.String()),
		attribute.String("reviewer_id", req.ReviewerID.String()),
		attribute.String("decision", req.Decision.String()),
	)
	defer end(&err)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	doc, err := s.loadDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if !doc.AwaitingReview() {
		return nil, dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("document is %s; only PENDING or UNDER_REVIEW documents can be decided", doc.Status))
	}
	if doc.Status == models.StatusUnderReview && doc.ClaimedBy != req.ReviewerID {
		s.metrics.IncConflict("decide")
		return nil, dErrors.New(dErrors.CodeConflict, "document is claimed by another reviewer")
	}

	now := requestcontext.Now(ctx)
	if req.Decision == models.StatusVerified && doc.ValidityLapsed(now) {
		return nil, dErrors.New(dErrors.CodeValidation,
			"document expiry date has passed; it cannot be verified")
	}

	before := doc.Clone()
	if err := doc.Transition(req.Decision, now, req.ReviewerID.String(), req.Notes); err != nil {
		return nil, illegal(err)
	}
	decidedAt := now
	doc.DecidedAt = &decidedAt
	doc.ClaimedBy = ""
	doc.ReviewNotes = req.Notes
	doc.RejectionReason = ""
	if req.Decision == models.StatusRejected {
		doc.RejectionReason = req.RejectionReason
	}
	if req.Decision == models.StatusVerified && doc.ExpiresAt == nil {
		if validity, ok := s.catalog.Validity(doc.Type); ok {
			expires := now.Add(validity)
			doc.ExpiresAt = &expires
		}
	}
	if err := s.store.Update(ctx, doc, before.Version); err != nil {
		return nil, s.translateWrite(ctx, "decide", err)
	}

	s.recordTransition(ctx, before, doc, req.ReviewerID.String())
	s.afterCommit(ctx, doc.OwnerID, doc.Type, []change{{before: before, after: doc}})
	return doc, nil
}

func (s *Service) recordTransition(ctx context.Context, before, after *models.Document, performedBy string) {
	s.metrics.IncTransition(before.Status.String(), after.Status.String())
	s.logger.InfoContext(ctx, "document transitioned",
		"document_id", after.ID.String(),
		"owner_id", after.OwnerID.String(),
		"from", before.Status.String(),
		"to", after.Status.String(),
		"performed_by", performedBy,
		"request_id", requestcontext.RequestID(ctx),
	)
}
