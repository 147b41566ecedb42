package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := map[VerificationStatus][]VerificationStatus{
		StatusPending:     {StatusUnderReview, StatusVerified, StatusRejected},
		StatusUnderReview: {StatusPending, StatusVerified, StatusRejected},
		StatusVerified:    {StatusExpired},
	}

	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			want := false
			for _, next := range allowed[from] {
				if next == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusRejected))
	assert.True(t, IsTerminal(StatusExpired))
	assert.False(t, IsTerminal(StatusPending))
	assert.False(t, IsTerminal(StatusUnderReview))
	assert.False(t, IsTerminal(StatusVerified))
	assert.False(t, IsTerminal(VerificationStatus("ARCHIVED")))
}

func TestParseVerificationStatus(t *testing.T) {
	s, err := ParseVerificationStatus(" under_review ")
	assert.NoError(t, err)
	assert.Equal(t, StatusUnderReview, s)

	_, err = ParseVerificationStatus("approved")
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Under review", StatusUnderReview.Label())
	assert.Equal(t, "Pending review", KYCPendingReview.Label())
	assert.Equal(t, "Action required", KYCRejected.Label())
}
