package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and the service layer translates them into domain errors.
//
//   - ErrNotFound: the document does not exist
//   - ErrConflict: the stored version moved on since it was read
//
// Input validation failures use pkg/domain-errors directly.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
