package collection

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by data services and lookups when no record matches.
	ErrNotFound = errors.New("record not found")

	// ErrUnsupportedMode matches every UnsupportedModeError via errors.Is.
	ErrUnsupportedMode = errors.New("operation not supported on a virtual collection")

	// ErrNoComparator is returned when sorting a local collection without ordering.
	ErrNoComparator = errors.New("collection has no comparator")

	// ErrNoService is returned by remote operations on a collection built without a data service.
	ErrNoService = errors.New("collection has no data service")

	errMissingCID = errors.New("record has no client id")
)

// ValidationError reports a mutation rejected locally. It is returned as a
// value in operation results rather than failing the whole operation.
type ValidationError struct {
	Record Record
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %v", identityOf(e.Record), e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failed data service round trip.
type TransportError struct {
	Op     string
	Offset int
	Limit  int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("%s [offset=%d limit=%d]: %v", e.Op, e.Offset, e.Limit, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConsistencyWarning reports a record whose identity is already materialized
// elsewhere and which was therefore not materialized again.
type ConsistencyWarning struct {
	Identity string
	Index    int
	Existing int
}

func (w *ConsistencyWarning) Error() string {
	return fmt.Sprintf("duplicate identity %q at %d, already materialized at %d", w.Identity, w.Index, w.Existing)
}

// UnsupportedModeError is returned when a local-only operation is invoked on
// a virtual collection. It indicates misuse, not a data condition.
type UnsupportedModeError struct {
	Op string
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, ErrUnsupportedMode)
}

func (e *UnsupportedModeError) Is(target error) bool {
	return target == ErrUnsupportedMode
}
