package sentinel

import (
	"errors"
	"fmt"
)

// Sentinel dependency errors. Stores should return these (optionally wrapped)
// so services can translate them into domain errors exactly once.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")

	// ErrStale is a conflict caused by state that moved after it was read.
	// errors.Is(ErrStale, ErrConflict) holds.
	ErrStale = fmt.Errorf("%w: stale read", ErrConflict)
)
