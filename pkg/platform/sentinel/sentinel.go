package sentinel

import "errors"

// Sentinel errors for storage facts. Registry stores return these (optionally
// wrapped) and the lottery service translates them into domain errors.
//
//   - ErrNotFound: no registry has ever been persisted
//   - ErrConflict: a concurrent writer changed the registry between load and save
//   - ErrUnavailable: the backend could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
