// Package document persists documents and their history ledger.
//
// Every write is a compare-and-swap on Document.Version; a stale version
// returns sentinel.ErrConflict and changes nothing. At most one non-retired
// document exists per owner and type.
package document

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"talentkyc/internal/kyc/models"
	id "talentkyc/pkg/domain"
	"talentkyc/pkg/platform/sentinel"
	"talentkyc/pkg/platform/strings"
)

type ownerType struct {
	owner   id.OwnerID
	docType models.DocumentType
}

// InMemory is a mutex-guarded document store for tests and single-node runs.
type InMemory struct {
	mu      sync.RWMutex
	docs    map[id.DocumentID]*models.Document
	current map[ownerType]id.DocumentID
}

func NewInMemory() *InMemory {
	return &InMemory{
		docs:    make(map[id.DocumentID]*models.Document),
		current: make(map[ownerType]id.DocumentID),
	}
}

func (s *InMemory) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkInsertLocked(doc); err != nil {
		return err
	}
	s.insertLocked(doc)
	return nil
}

// CreateReplacing retires prior and inserts doc as one write.
func (s *InMemory) CreateReplacing(_ context.Context, doc, prior *models.Document, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.docs[prior.ID]
	if !ok {
		return fmt.Errorf("document %s: %w", prior.ID, sentinel.ErrNotFound)
	}
	if stored.Version != expectedVersion || stored.IsRetired() {
		return fmt.Errorf("document %s: %w", prior.ID, sentinel.ErrConflict)
	}
	key := ownerType{owner: doc.OwnerID, docType: doc.Type}
	if cur, ok := s.current[key]; !ok || cur != prior.ID {
		return fmt.Errorf("document %s is not current: %w", prior.ID, sentinel.ErrConflict)
	}
	if _, exists := s.docs[doc.ID]; exists {
		return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrConflict)
	}

	retired := stored.Clone()
	retired.Retire(doc.ID, prior.UpdatedAt)
	retired.Version = expectedVersion + 1
	s.docs[prior.ID] = retired
	prior.Version = retired.Version
	delete(s.current, key)
	s.insertLocked(doc)
	return nil
}

func (s *InMemory) checkInsertLocked(doc *models.Document) error {
	if _, exists := s.docs[doc.ID]; exists {
		return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrConflict)
	}
	if cur, ok := s.current[ownerType{owner: doc.OwnerID, docType: doc.Type}]; ok {
		return fmt.Errorf("owner already has current %s document %s: %w", doc.Type, cur, sentinel.ErrConflict)
	}
	return nil
}

func (s *InMemory) insertLocked(doc *models.Document) {
	s.docs[doc.ID] = doc.Clone()
	if !doc.IsRetired() {
		s.current[ownerType{owner: doc.OwnerID, docType: doc.Type}] = doc.ID
	}
}

func (s *InMemory) FindByID(_ context.Context, docID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", docID, sentinel.ErrNotFound)
	}
	return doc.Clone(), nil
}

// Update replaces the stored document when its version still equals
// expectedVersion, then bumps doc.Version.
func (s *InMemory) Update(_ context.Context, doc *models.Document, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.docs[doc.ID]
	if !ok {
		return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrNotFound)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("document %s at version %d, expected %d: %w", doc.ID, stored.Version, expectedVersion, sentinel.ErrConflict)
	}
	if len(doc.History) < len(stored.History) {
		return fmt.Errorf("document %s: history cannot shrink: %w", doc.ID, sentinel.ErrConflict)
	}
	doc.Version = expectedVersion + 1
	s.docs[doc.ID] = doc.Clone()
	return nil
}

func (s *InMemory) History(_ context.Context, docID id.DocumentID) ([]models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", docID, sentinel.ErrNotFound)
	}
	return slices.Clone(doc.History), nil
}

// ListByOwner returns every document of the owner, retired ones included,
// oldest submission first and without history.
func (s *InMemory) ListByOwner(_ context.Context, owner id.OwnerID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, d := range s.docs {
		if d.OwnerID == owner {
			out = append(out, d.WithoutHistory())
		}
	}
	sortBySubmission(out)
	return out, nil
}

// Query returns one window of the filtered worklist and the total match count.
func (s *InMemory) Query(_ context.Context, q models.QueueQuery) ([]*models.Document, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*models.Document
	for _, d := range s.docs {
		if matches(d, q, true) {
			matched = append(matched, d)
		}
	}
	sortBySubmission(matched)

	total := len(matched)
	start := min(q.Offset, total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	items := make([]*models.Document, 0, end-start)
	for _, d := range matched[start:end] {
		items = append(items, d.WithoutHistory())
	}
	return items, total, nil
}

// CountByStatus counts matching documents per status, ignoring q.Statuses.
func (s *InMemory) CountByStatus(_ context.Context, q models.QueueQuery) (map[models.VerificationStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.VerificationStatus]int, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		counts[st] = 0
	}
	for _, d := range s.docs {
		if matches(d, q, false) {
			counts[d.Status]++
		}
	}
	return counts, nil
}

// ListExpiring returns up to limit verified, non-retired documents whose
// expiry is at or before now, soonest first.
func (s *InMemory) ListExpiring(_ context.Context, now time.Time, limit int) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, d := range s.docs {
		if d.Status == models.StatusVerified && !d.IsRetired() && d.ValidityLapsed(now) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiresAt.Equal(*out[j].ExpiresAt) {
			return out[i].ExpiresAt.Before(*out[j].ExpiresAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	result := make([]*models.Document, len(out))
	for i, d := range out {
		result[i] = d.WithoutHistory()
	}
	return result, nil
}

// Generation summarizes the owner's document set for cache validation.
func (s *InMemory) Generation(_ context.Context, owner id.OwnerID) (models.Generation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var gen models.Generation
	for _, d := range s.docs {
		if d.OwnerID != owner {
			continue
		}
		gen.Count++
		gen.VersionSum += d.Version
		if d.UpdatedAt.After(gen.LatestUpdate) {
			gen.LatestUpdate = d.UpdatedAt
		}
	}
	return gen, nil
}

func matches(d *models.Document, q models.QueueQuery, withStatus bool) bool {
	if d.IsRetired() {
		return false
	}
	if q.DocumentType != "" && d.Type != q.DocumentType {
		return false
	}
	if withStatus && len(q.Statuses) > 0 && !slices.Contains(q.Statuses, d.Status) {
		return false
	}
	return strings.ContainsFold(q.SearchTerm, d.OwnerID.String(), d.ID.String(), d.FileName)
}

func sortBySubmission(docs []*models.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].SubmittedAt.Equal(docs[j].SubmittedAt) {
			return docs[i].SubmittedAt.Before(docs[j].SubmittedAt)
		}
		return docs[i].ID.String() < docs[j].ID.String()
	})
}
