package models

import (
	"fmt"
	"strings"
)

// VerificationStatus is the lifecycle state of a single document.
type VerificationStatus string

const (
	StatusPending     VerificationStatus = "PENDING"
	StatusUnderReview VerificationStatus = "UNDER_REVIEW"
	StatusVerified    VerificationStatus = "VERIFIED"
	StatusRejected    VerificationStatus = "REJECTED"
	StatusExpired     VerificationStatus = "EXPIRED"
)

// AllStatuses lists every document status in lifecycle order.
var AllStatuses = []VerificationStatus{
	StatusPending,
	StatusUnderReview,
	StatusVerified,
	StatusRejected,
	StatusExpired,
}

// ReviewStatuses are the statuses a reviewer worklist shows by default.
var ReviewStatuses = []VerificationStatus{StatusPending, StatusUnderReview}

func (s VerificationStatus) String() string {
	return string(s)
}

func (s VerificationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusVerified, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Label is the human-facing rendering used by API responses.
func (s VerificationStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusUnderReview:
		return "Under review"
	case StatusVerified:
		return "Verified"
	case StatusRejected:
		return "Rejected"
	case StatusExpired:
		return "Expired"
	}
	return string(s)
}

// ParseVerificationStatus accepts the canonical name in any case.
func ParseVerificationStatus(raw string) (VerificationStatus, error) {
	s := VerificationStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown verification status %q", raw)
	}
	return s, nil
}

// KYCStatus is the single trust status derived for a person.
type KYCStatus string

const (
	KYCNotStarted    KYCStatus = "NOT_STARTED"
	KYCIncomplete    KYCStatus = "INCOMPLETE"
	KYCPendingReview KYCStatus = "PENDING_REVIEW"
	KYCVerified      KYCStatus = "VERIFIED"
	KYCRejected      KYCStatus = "REJECTED"
	KYCExpired       KYCStatus = "EXPIRED"
)

func (s KYCStatus) String() string {
	return string(s)
}

func (s KYCStatus) Label() string {
	switch s {
	case KYCNotStarted:
		return "Not started"
	case KYCIncomplete:
		return "Incomplete"
	case KYCPendingReview:
		return "Pending review"
	case KYCVerified:
		return "Verified"
	case KYCRejected:
		return "Action required"
	case KYCExpired:
		return "Expired"
	}
	return string(s)
}
