package document

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"talentkyc/internal/kyc/models"
	id "talentkyc/pkg/domain"
	"talentkyc/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newDoc(owner string, t models.DocumentType, offset time.Duration) *models.Document {
	return models.NewDocument(id.NewDocumentID(), id.OwnerID(owner), t, "ref://"+owner+"/"+string(t), string(t)+".pdf", nil, s.now.Add(offset))
}

func (s *InMemoryStoreSuite) mustCreate(doc *models.Document) {
	s.Require().NoError(s.store.Create(s.ctx, doc))
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	s.Run("round trips a document with history", func() {
		doc := s.newDoc("owner-1", models.DocumentTypePassport, 0)
		s.mustCreate(doc)

		found, err := s.store.FindByID(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.Equal(doc, found)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.FindByID(s.ctx, id.NewDocumentID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("stored copy is isolated from caller", func() {
		doc := s.newDoc("owner-iso", models.DocumentTypePassport, 0)
		s.mustCreate(doc)
		doc.Status = models.StatusVerified

		found, err := s.store.FindByID(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, found.Status)
	})

	s.Run("refuses a second current document of the same type", func() {
		s.mustCreate(s.newDoc("owner-2", models.DocumentTypeAddressProof, 0))
		err := s.store.Create(s.ctx, s.newDoc("owner-2", models.DocumentTypeAddressProof, time.Minute))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *InMemoryStoreSuite) TestUpdate() {
	s.Run("compare-and-swap bumps the version", func() {
		doc := s.newDoc("owner-1", models.DocumentTypePassport, 0)
		s.mustCreate(doc)

		s.Require().NoError(doc.Transition(models.StatusUnderReview, s.now.Add(time.Minute), "rev-1", ""))
		s.Require().NoError(s.store.Update(s.ctx, doc, 1))
		s.Equal(int64(2), doc.Version)

		found, err := s.store.FindByID(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusUnderReview, found.Status)
		s.Len(found.History, 2)
	})

	s.Run("stale version conflicts and changes nothing", func() {
		doc := s.newDoc("owner-stale", models.DocumentTypePassport, 0)
		s.mustCreate(doc)
		stale := doc.Clone()

		s.Require().NoError(doc.Transition(models.StatusVerified, s.now, "rev-1", ""))
		s.Require().NoError(s.store.Update(s.ctx, doc, 1))

		s.Require().NoError(stale.Transition(models.StatusRejected, s.now, "rev-2", ""))
		err := s.store.Update(s.ctx, stale, 1)
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		found, err := s.store.FindByID(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusVerified, found.Status)
		s.Len(found.History, 2)
	})

	s.Run("unknown document", func() {
		err := s.store.Update(s.ctx, s.newDoc("nobody", models.DocumentTypePassport, 0), 1)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentUpdates verifies exactly one writer wins per version.
func (s *InMemoryStoreSuite) TestConcurrentUpdates() {
	doc := s.newDoc("owner-race", models.DocumentTypePassport, 0)
	s.mustCreate(doc)

	const writers = 32
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mine := doc.Clone()
			_ = mine.Transition(models.StatusUnderReview, s.now, "rev-"+string(rune('a'+i)), "")
			if err := s.store.Update(s.ctx, mine, 1); err != nil {
				conflicts.Add(1)
				return
			}
			wins.Add(1)
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(writers-1), conflicts.Load())
}

func (s *InMemoryStoreSuite) TestCreateReplacing() {
	prior := s.newDoc("owner-1", models.DocumentTypeAddressProof, 0)
	s.mustCreate(prior)
	s.Require().NoError(prior.Transition(models.StatusRejected, s.now, "rev-1", ""))
	prior.RejectionReason = "blurry scan"
	s.Require().NoError(s.store.Update(s.ctx, prior, 1))

	next := s.newDoc("owner-1", models.DocumentTypeAddressProof, time.Hour)
	retiring := prior.Clone()
	retiring.Retire(next.ID, s.now.Add(time.Hour))

	s.Run("stale prior version conflicts", func() {
		err := s.store.CreateReplacing(s.ctx, next, retiring.Clone(), 1)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
		_, err = s.store.FindByID(s.ctx, next.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("retires prior and inserts replacement", func() {
		s.Require().NoError(s.store.CreateReplacing(s.ctx, next, retiring, 2))
		s.Equal(int64(3), retiring.Version)

		old, err := s.store.FindByID(s.ctx, prior.ID)
		s.Require().NoError(err)
		s.True(old.IsRetired())
		s.Equal(next.ID, *old.SupersededBy)
		s.Equal(models.StatusRejected, old.Status)
		s.Len(old.History, 2, "retirement keeps the ledger intact")

		docs, err := s.store.ListByOwner(s.ctx, "owner-1")
		s.Require().NoError(err)
		s.Len(docs, 2)
		s.Nil(docs[0].History)
	})
}

func (s *InMemoryStoreSuite) TestQuery() {
	a := s.newDoc("alice", models.DocumentTypePassport, 0)
	b := s.newDoc("bob", models.DocumentTypePassport, time.Minute)
	c := s.newDoc("carol", models.DocumentTypeAddressProof, 2*time.Minute)
	c.FileName = "Utility-Bill.PDF"
	d := s.newDoc("dave", models.DocumentTypeNationalID, 3*time.Minute)
	for _, doc := range []*models.Document{a, b, c, d} {
		s.mustCreate(doc)
	}
	s.Require().NoError(d.Transition(models.StatusVerified, s.now, "rev", ""))
	s.Require().NoError(s.store.Update(s.ctx, d, 1))

	review := []models.VerificationStatus{models.StatusPending, models.StatusUnderReview}

	s.Run("oldest first with paging", func() {
		items, total, err := s.store.Query(s.ctx, models.QueueQuery{Statuses: review, Offset: 1, Limit: 1})
		s.Require().NoError(err)
		s.Equal(3, total)
		s.Require().Len(items, 1)
		s.Equal(b.ID, items[0].ID)
		s.Nil(items[0].History)
	})

	s.Run("offset past the end is empty", func() {
		items, total, err := s.store.Query(s.ctx, models.QueueQuery{Statuses: review, Offset: 10, Limit: 5})
		s.Require().NoError(err)
		s.Equal(3, total)
		s.Empty(items)
	})

	s.Run("type filter", func() {
		items, total, err := s.store.Query(s.ctx, models.QueueQuery{Statuses: review, DocumentType: models.DocumentTypePassport})
		s.Require().NoError(err)
		s.Equal(2, total)
		s.Equal(a.ID, items[0].ID)
	})

	s.Run("search is case-insensitive across owner, id and file name", func() {
		_, total, err := s.store.Query(s.ctx, models.QueueQuery{Statuses: review, SearchTerm: "utility-bill"})
		s.Require().NoError(err)
		s.Equal(1, total)

		_, total, err = s.store.Query(s.ctx, models.QueueQuery{Statuses: review, SearchTerm: "ALICE"})
		s.Require().NoError(err)
		s.Equal(1, total)

		_, total, err = s.store.Query(s.ctx, models.QueueQuery{Statuses: review, SearchTerm: b.ID.String()[:8]})
		s.Require().NoError(err)
		s.GreaterOrEqual(total, 1)
	})

	s.Run("status counts ignore the status filter", func() {
		counts, err := s.store.CountByStatus(s.ctx, models.QueueQuery{Statuses: review})
		s.Require().NoError(err)
		s.Equal(3, counts[models.StatusPending])
		s.Equal(1, counts[models.StatusVerified])
		s.Equal(0, counts[models.StatusRejected])
	})
}

func (s *InMemoryStoreSuite) TestListExpiring() {
	soon := s.now.Add(-time.Hour)
	later := s.now.Add(-time.Minute)
	future := s.now.Add(time.Hour)

	mk := func(owner string, exp time.Time, status models.VerificationStatus) *models.Document {
		doc := s.newDoc(owner, models.DocumentTypePassport, 0)
		doc.ExpiresAt = &exp
		s.mustCreate(doc)
		if status == models.StatusVerified {
			s.Require().NoError(doc.Transition(models.StatusVerified, s.now, "rev", ""))
			s.Require().NoError(s.store.Update(s.ctx, doc, 1))
		}
		return doc
	}
	first := mk("o1", soon, models.StatusVerified)
	second := mk("o2", later, models.StatusVerified)
	mk("o3", future, models.StatusVerified)
	mk("o4", soon, models.StatusPending)

	docs, err := s.store.ListExpiring(s.ctx, s.now, 10)
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal(first.ID, docs[0].ID)
	s.Equal(second.ID, docs[1].ID)

	docs, err = s.store.ListExpiring(s.ctx, s.now, 1)
	s.Require().NoError(err)
	s.Len(docs, 1)
}

func (s *InMemoryStoreSuite) TestGeneration() {
	empty, err := s.store.Generation(s.ctx, "owner-g")
	s.Require().NoError(err)
	s.Equal(0, empty.Count)

	doc := s.newDoc("owner-g", models.DocumentTypePassport, 0)
	s.mustCreate(doc)
	g1, err := s.store.Generation(s.ctx, "owner-g")
	s.Require().NoError(err)
	s.NotEqual(empty.String(), g1.String())

	s.Require().NoError(doc.Transition(models.StatusUnderReview, doc.UpdatedAt, "rev", ""))
	s.Require().NoError(s.store.Update(s.ctx, doc, 1))
	g2, err := s.store.Generation(s.ctx, "owner-g")
	s.Require().NoError(err)
	s.NotEqual(g1.String(), g2.String(), "same timestamp still changes the stamp through the version")
}

func (s *InMemoryStoreSuite) TestHistory() {
	doc := s.newDoc("owner-h", models.DocumentTypePassport, 0)
	s.mustCreate(doc)
	s.Require().NoError(doc.Transition(models.StatusUnderReview, s.now.Add(time.Minute), "rev", ""))
	s.Require().NoError(s.store.Update(s.ctx, doc, 1))

	history, err := s.store.History(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(1, history[0].Sequence)
	s.Equal(models.StatusUnderReview, history[1].Status)

	_, err = s.store.History(s.ctx, id.NewDocumentID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
