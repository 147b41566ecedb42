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

// Submit records a new upload as a PENDING document. A previous document of
// the same type is retired in the same write when it has already been
// decided; one still awaiting review blocks the upload.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (_ *models.Document, err error) {
	req.Normalize()
	ctx, end := s.startOp(ctx, "submit",
		attribute.String("owner_id", req.OwnerID.String()),
		attribute.String("document_type", req.Type.String()),
	)
	defer end(&err)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !s.catalog.KnowsType(req.Type) {
		return nil, dErrors.New(dErrors.CodeInvalidType,
			fmt.Sprintf("document type %q is not accepted by catalog %s", req.Type, s.catalog.ActiveVersion()))
	}
	now := requestcontext.Now(ctx)
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "expiry date must be in the future")
	}

	owned, err := s.store.ListByOwner(ctx, req.OwnerID)
	if err != nil {
		return nil, s.internal(ctx, err, "failed to load owner documents")
	}
	prior := currentOfType(owned, req.Type)
	if prior != nil && prior.AwaitingReview() {
		return nil, dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("a %s document is already awaiting review", req.Type))
	}

	doc := models.NewDocument(id.NewDocumentID(), req.OwnerID, req.Type, req.FileRef, req.FileName, req.ExpiresAt, now)
	changes := []change{{after: doc}}
	if prior == nil {
		err = s.store.Create(ctx, doc)
	} else {
		retired := prior.Clone()
		retired.Retire(doc.ID, now)
		err = s.store.CreateReplacing(ctx, doc, retired, prior.Version)
		changes = append(changes, change{before: prior, after: retired})
	}
	if err != nil {
		return nil, s.translateWrite(ctx, "submit", err)
	}

	s.metrics.IncSubmitted(req.Type.String())
	attrs := []any{
		"document_id", doc.ID.String(),
		"owner_id", req.OwnerID.String(),
		"document_type", req.Type.String(),
		"request_id", requestcontext.RequestID(ctx),
	}
	if prior != nil {
		attrs = append(attrs, "supersedes", prior.ID.String())
	}
	s.logger.InfoContext(ctx, "document submitted", attrs...)

	s.afterCommit(ctx, req.OwnerID, req.Type, changes)
	return doc, nil
}

// currentOfType returns the owner's non-retired document of docType.
func currentOfType(docs []*models.Document, docType models.DocumentType) *models.Document {
	var current *models.Document
	for _, d := range docs {
		if d.Type != docType || d.IsRetired() {
			continue
		}
		if current == nil || d.SubmittedAt.After(current.SubmittedAt) {
			current = d
		}
	}
	return current
}
