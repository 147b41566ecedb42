package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"talentkyc/internal/kyc/models"
	id "talentkyc/pkg/domain"
	dErrors "talentkyc/pkg/domain-errors"
)

const (
	minRejectionReason = 5
	maxRejectionReason = 500
	maxReviewNotes     = 2000
)

// SubmitRequest registers an uploaded file for verification. The file itself
// lives elsewhere; FileRef points at it.
type SubmitRequest struct {
	OwnerID   id.OwnerID
	Type      models.DocumentType
	FileRef   string
	FileName  string
	ExpiresAt *time.Time
}

func (r *SubmitRequest) Normalize() {
	r.OwnerID = id.OwnerID(strings.TrimSpace(r.OwnerID.String()))
	r.Type = models.DocumentType(strings.ToLower(strings.TrimSpace(string(r.Type))))
	r.FileRef = strings.TrimSpace(r.FileRef)
	r.FileName = strings.TrimSpace(r.FileName)
}

// Validate checks shape only; catalog membership and expiry are checked by
// Submit against the current catalog and clock.
func (r *SubmitRequest) Validate() error {
	if r.OwnerID == "" {
		return dErrors.New(dErrors.CodeValidation, "owner id is required")
	}
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "document type is required")
	}
	if r.FileRef == "" {
		return dErrors.New(dErrors.CodeValidation, "file reference is required")
	}
	return nil
}

// DecideRequest records a reviewer's verdict.
type DecideRequest struct {
	DocumentID      id.DocumentID
	ReviewerID      id.ReviewerID
	Decision        models.VerificationStatus
	Notes           string
	RejectionReason string
}

func (r *DecideRequest) Normalize() {
	r.ReviewerID = id.ReviewerID(strings.TrimSpace(r.ReviewerID.String()))
	r.Notes = strings.TrimSpace(r.Notes)
	r.RejectionReason = strings.TrimSpace(r.RejectionReason)
}

// Validate rejects malformed decisions before anything is loaded.
func (r *DecideRequest) Validate() error {
	if r.DocumentID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "document id is required")
	}
	if r.ReviewerID == "" {
		return dErrors.New(dErrors.CodeValidation, "reviewer id is required")
	}
	switch r.Decision {
	case models.StatusVerified:
		if r.RejectionReason != "" {
			return dErrors.New(dErrors.CodeValidation, "rejection reason is only accepted with a REJECTED decision")
		}
	case models.StatusRejected:
		n := utf8.RuneCountInString(r.RejectionReason)
		if n == 0 {
			return dErrors.New(dErrors.CodeValidation, "rejection reason is required when rejecting a document")
		}
		if n < minRejectionReason || n > maxRejectionReason {
			return dErrors.New(dErrors.CodeValidation, "rejection reason must be between 5 and 500 characters")
		}
	default:
		return dErrors.New(dErrors.CodeValidation, "decision must be VERIFIED or REJECTED")
	}
	if utf8.RuneCountInString(r.Notes) > maxReviewNotes {
		return dErrors.New(dErrors.CodeValidation, "review notes must be at most 2000 characters")
	}
	return nil
}
