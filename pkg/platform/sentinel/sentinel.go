package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and services translate them into domain errors:
//   - ErrNotFound: the record does not exist
//   - ErrConflict: the key is already taken, such as a topic title or a
//     residence's ballot
//
// Validation failures belong in pkg/domain-errors.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
