package models

import (
	"slices"
	"time"

	id "talentkyc/pkg/domain"
)

// DocumentType names a kind of document an owner can submit.
type DocumentType string

const (
	DocumentTypePassport                DocumentType = "passport"
	DocumentTypeNationalID              DocumentType = "national_id"
	DocumentTypeAddressProof            DocumentType = "address_proof"
	DocumentTypeEducationCertificate    DocumentType = "education_certificate"
	DocumentTypeProfessionalCertificate DocumentType = "professional_certificate"
)

func (t DocumentType) String() string {
	return string(t)
}

// SystemActor is recorded as PerformedBy for transitions nobody asked for.
const SystemActor = "system"

// HistoryEntry is one immutable line of a document's audit ledger.
type HistoryEntry struct {
	Sequence    int                `json:"sequence"`
	Status      VerificationStatus `json:"status"`
	Timestamp   time.Time          `json:"timestamp"`
	PerformedBy string             `json:"performed_by"`
	Notes       string             `json:"notes,omitempty"`
}

// Document is one submitted file and its verification lifecycle.
// Mutations go through Transition so that Status and History never diverge.
type Document struct {
	ID              id.DocumentID
	OwnerID         id.OwnerID
	Type            DocumentType
	Status          VerificationStatus
	FileRef         string
	FileName        string
	SubmittedAt     time.Time
	DecidedAt       *time.Time
	ExpiresAt       *time.Time
	UpdatedAt       time.Time
	RejectionReason string
	ReviewNotes     string
	ClaimedBy       id.ReviewerID
	Version         int64
	RetiredAt       *time.Time
	SupersededBy    *id.DocumentID
	History         []HistoryEntry
}

// NewDocument creates a PENDING document with its opening history entry.
func NewDocument(docID id.DocumentID, owner id.OwnerID, docType DocumentType, fileRef, fileName string, expiresAt *time.Time, now time.Time) *Document {
	return &Document{
		ID:          docID,
		OwnerID:     owner,
		Type:        docType,
		Status:      StatusPending,
		FileRef:     fileRef,
		FileName:    fileName,
		SubmittedAt: now,
		ExpiresAt:   copyTime(expiresAt),
		UpdatedAt:   now,
		Version:     1,
		History: []HistoryEntry{{
			Sequence:    1,
			Status:      StatusPending,
			Timestamp:   now,
			PerformedBy: owner.String(),
		}},
	}
}

// Transition moves the document to status `to` and appends the matching
// history entry. Illegal moves return *IllegalTransitionError and leave the
// document untouched.
func (d *Document) Transition(to VerificationStatus, at time.Time, performedBy, notes string) error {
	if !CanTransition(d.Status, to) {
		return &IllegalTransitionError{From: d.Status, To: to}
	}
	d.Status = to
	d.UpdatedAt = at
	d.History = append(d.History, HistoryEntry{
		Sequence:    d.NextSequence(),
		Status:      to,
		Timestamp:   at,
		PerformedBy: performedBy,
		Notes:       notes,
	})
	return nil
}

// NextSequence is the sequence number the next history entry will carry.
func (d *Document) NextSequence() int {
	if len(d.History) == 0 {
		return 1
	}
	return d.History[len(d.History)-1].Sequence + 1
}

// LastEntry returns the most recent history entry.
func (d *Document) LastEntry() (HistoryEntry, bool) {
	if len(d.History) == 0 {
		return HistoryEntry{}, false
	}
	return d.History[len(d.History)-1], true
}

// Retire marks the document as superseded by a newer upload of the same type.
func (d *Document) Retire(by id.DocumentID, at time.Time) {
	retiredAt := at
	successor := by
	d.RetiredAt = &retiredAt
	d.SupersededBy = &successor
	d.UpdatedAt = at
}

func (d *Document) IsRetired() bool {
	return d.RetiredAt != nil
}

// AwaitingReview reports whether a reviewer can still act on the document.
func (d *Document) AwaitingReview() bool {
	return d.Status == StatusPending || d.Status == StatusUnderReview
}

// ValidityLapsed reports whether the document's expiry date has passed.
func (d *Document) ValidityLapsed(now time.Time) bool {
	return d.ExpiresAt != nil && !d.ExpiresAt.After(now)
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.DecidedAt = copyTime(d.DecidedAt)
	c.ExpiresAt = copyTime(d.ExpiresAt)
	c.RetiredAt = copyTime(d.RetiredAt)
	if d.SupersededBy != nil {
		s := *d.SupersededBy
		c.SupersededBy = &s
	}
	c.History = slices.Clone(d.History)
	return &c
}

// WithoutHistory returns a copy stripped of its ledger, as listed in queues.
func (d *Document) WithoutHistory() *Document {
	c := d.Clone()
	c.History = nil
	return c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
