package models

import (
	"time"

	id "talentkyc/pkg/domain"
)

// EventKind distinguishes document transitions from aggregate changes.
type EventKind string

const (
	EventDocumentStatusChanged EventKind = "document.status_changed"
	EventDocumentRetired       EventKind = "document.retired"
	EventKYCStatusChanged      EventKind = "kyc.status_changed"
)

// Event is what the engine tells the outside world after a committed change.
// OldStatus is empty for the submission that creates a document.
type Event struct {
	ID           string         `json:"id"`
	Kind         EventKind      `json:"kind"`
	OwnerID      id.OwnerID     `json:"owner_id"`
	DocumentID   *id.DocumentID `json:"document_id,omitempty"`
	DocumentType DocumentType   `json:"document_type,omitempty"`
	Purpose      Purpose        `json:"purpose,omitempty"`
	OldStatus    string         `json:"old_status,omitempty"`
	NewStatus    string         `json:"new_status"`
	PerformedBy  string         `json:"performed_by,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}
