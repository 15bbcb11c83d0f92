package dataservice

import "errors"

var (
	// ErrUnknownField is returned when a filter, sort or write names a field
	// the backing store does not have.
	ErrUnknownField = errors.New("unknown field")

	// ErrConflict is returned when creating a record whose id already exists.
	ErrConflict = errors.New("record already exists")
)
