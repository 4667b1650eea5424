package domain

import "errors"

var (
	// ErrNotFound is returned when no record matches a name.
	ErrNotFound = errors.New("tde not found")
	// ErrNoCoordinates is returned for records without any equatorial coordinate.
	ErrNoCoordinates = errors.New("no equatorial coordinates")
	// ErrInvalidRecord is returned when a record fails validation on ingest.
	ErrInvalidRecord = errors.New("invalid tde record")
)
