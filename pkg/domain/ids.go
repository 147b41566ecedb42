// Package domain holds typed identifiers shared across modules.
//
// Document identifiers are UUIDs minted by the engine. Owner and reviewer
// identifiers are opaque values supplied by the upstream identity layer; the
// engine only bounds their shape before recording them in history.
package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "talentkyc/pkg/domain-errors"
)

// maxOpaqueIDLength bounds caller-supplied identifiers stored in history rows.
const maxOpaqueIDLength = 128

// DocumentID identifies a single uploaded document record.
type DocumentID uuid.UUID

// NewDocumentID mints a fresh random document id.
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New())
}

// ParseDocumentID constructs a DocumentID from external input.
//
// Errors: returns CodeValidation when the value is empty, malformed, or the nil UUID.
func ParseDocumentID(s string) (DocumentID, error) {
	if s == "" {
		return DocumentID{}, dErrors.New(dErrors.CodeValidation, "document id cannot be empty")
	}
	if !utf8.ValidString(s) {
		return DocumentID{}, dErrors.New(dErrors.CodeValidation, "invalid document id")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return DocumentID{}, dErrors.New(dErrors.CodeValidation, "invalid document id")
	}
	if parsed == uuid.Nil {
		return DocumentID{}, dErrors.New(dErrors.CodeValidation, "document id cannot be nil")
	}
	return DocumentID(parsed), nil
}

func (id DocumentID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the id is the zero value.
func (id DocumentID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText renders the canonical UUID form so ids travel as JSON strings.
func (id DocumentID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *DocumentID) UnmarshalText(b []byte) error {
	parsed, err := ParseDocumentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// OwnerID identifies the person whose documents are being verified.
type OwnerID string

// ParseOwnerID validates an opaque owner identifier.
func ParseOwnerID(s string) (OwnerID, error) {
	v, err := parseOpaque(s, "owner id")
	return OwnerID(v), err
}

func (id OwnerID) String() string { return string(id) }

// ReviewerID identifies the reviewer performing a claim or decision.
type ReviewerID string

// ParseReviewerID validates an opaque reviewer identifier.
func ParseReviewerID(s string) (ReviewerID, error) {
	v, err := parseOpaque(s, "reviewer id")
	return ReviewerID(v), err
}

func (id ReviewerID) String() string { return string(id) }

func parseOpaque(s, label string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, label+" cannot be empty")
	}
	if len(s) > maxOpaqueIDLength {
		return "", dErrors.New(dErrors.CodeValidation, label+" must be at most 128 bytes")
	}
	if !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeValidation, "invalid "+label)
	}
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return "", dErrors.New(dErrors.CodeValidation, "invalid "+label)
		}
	}
	return s, nil
}
