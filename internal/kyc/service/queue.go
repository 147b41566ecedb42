package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"talentkyc/internal/kyc/models"
	id "talentkyc/pkg/domain"
	dErrors "talentkyc/pkg/domain-errors"
	"talentkyc/pkg/platform/sentinel"
)

// ListQueue returns one page of the reviewer worklist, oldest submission
// first. page is 1-based; pageSize 0 selects the default. StatusCounts cover
// every status under the type and search filter.
func (s *Service) ListQueue(ctx context.Context, filter models.QueueFilter, page, pageSize int) (_ *models.QueuePage, err error) {
	ctx, end := s.startOp(ctx, "list_queue",
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	)
	defer end(&err)

	if page < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "page must be 1 or greater")
	}
	if pageSize == 0 {
		pageSize = models.DefaultPageSize
	}
	if pageSize < 1 || pageSize > models.MaxPageSize {
		return nil, dErrors.New(dErrors.CodeValidation, "page size must be between 1 and 100")
	}
	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = models.ReviewStatuses
	}
	for _, st := range statuses {
		if !st.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, "unknown status filter "+st.String())
		}
	}

	q := models.QueueQuery{
		DocumentType: filter.DocumentType,
		SearchTerm:   strings.TrimSpace(filter.SearchTerm),
		Statuses:     statuses,
		Offset:       (page - 1) * pageSize,
		Limit:        pageSize,
	}

	var (
		items  []*models.Document
		total  int
		counts map[models.VerificationStatus]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, total, err = s.store.Query(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.store.CountByStatus(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.internal(ctx, err, "failed to query verification queue")
	}
	if items == nil {
		items = []*models.Document{}
	}
	return &models.QueuePage{
		Items:        items,
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
		StatusCounts: counts,
	}, nil
}

// GetDocument returns a document with its full history.
func (s *Service) GetDocument(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	return s.loadDocument(ctx, docID)
}

// History returns a document's ledger in commit order.
func (s *Service) History(ctx context.Context, docID id.DocumentID) ([]models.HistoryEntry, error) {
	entries, err := s.store.History(ctx, docID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, s.internal(ctx, err, "failed to load document history")
	}
	return entries, nil
}

// ListOwnerDocuments returns every document the owner submitted, retired
// ones included, without history.
func (s *Service) ListOwnerDocuments(ctx context.Context, owner id.OwnerID) ([]*models.Document, error) {
	if owner == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "owner id is required")
	}
	docs, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, s.internal(ctx, err, "failed to list owner documents")
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	return docs, nil
}
