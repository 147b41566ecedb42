package handler

import (
	"strings"
	"time"

	"talentkyc/internal/kyc/models"
	dErrors "talentkyc/pkg/domain-errors"
)

const maxFileNameLength = 255

// SubmitDocumentRequest is the body of POST /documents.
type SubmitDocumentRequest struct {
	DocumentType string     `json:"documentType"`
	FileURL      string     `json:"fileUrl"`
	FileName     string     `json:"fileName,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

func (r *SubmitDocumentRequest) Validate() error {
	r.DocumentType = strings.ToLower(strings.TrimSpace(r.DocumentType))
	r.FileURL = strings.TrimSpace(r.FileURL)
	r.FileName = strings.TrimSpace(r.FileName)
	if r.DocumentType == "" {
		return dErrors.New(dErrors.CodeValidation, "documentType is required")
	}
	if r.FileURL == "" {
		return dErrors.New(dErrors.CodeValidation, "fileUrl is required")
	}
	if len(r.FileName) > maxFileNameLength {
		return dErrors.New(dErrors.CodeValidation, "fileName must be at most 255 characters")
	}
	return nil
}

// VerifyDocumentRequest is the body of PUT /documents/{id}/verify.
type VerifyDocumentRequest struct {
	Status          string `json:"status"`
	Notes           string `json:"notes,omitempty"`
	RejectionReason string `json:"rejectionReason,omitempty"`

	decision models.VerificationStatus
}

// Validate parses the status; the decision rules themselves are enforced by
// the engine.
func (r *VerifyDocumentRequest) Validate() error {
	if strings.TrimSpace(r.Status) == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	st, err := models.ParseVerificationStatus(r.Status)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	r.decision = st
	return nil
}
