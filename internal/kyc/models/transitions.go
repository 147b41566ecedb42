package models

import "fmt"

var allowedTransitions = map[VerificationStatus][]VerificationStatus{
	StatusPending:     {StatusUnderReview, StatusVerified, StatusRejected},
	StatusUnderReview: {StatusPending, StatusVerified, StatusRejected},
	StatusVerified:    {StatusExpired},
	StatusRejected:    nil,
	StatusExpired:     nil,
}

// CanTransition reports whether a document may move from one status to another.
func CanTransition(from, to VerificationStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition leaves the status.
func IsTerminal(s VerificationStatus) bool {
	next, ok := allowedTransitions[s]
	return ok && len(next) == 0
}

// IllegalTransitionError is returned when the state machine refuses a move.
type IllegalTransitionError struct {
	From VerificationStatus
	To   VerificationStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot move document from %s to %s", e.From, e.To)
}
