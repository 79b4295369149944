package domain

import "errors"

// Caller-facing outcomes of the state machine and ingestion paths. Handlers
// map these to HTTP status codes; services return them unwrapped or wrapped
// with %w so errors.Is keeps working across layers.
var (
	ErrSpotUnavailable = errors.New("parking spot is not available")
	ErrForbidden       = errors.New("actor does not own this resource")
	ErrInvalidState    = errors.New("operation not allowed in current state")
	ErrInvalidInput    = errors.New("invalid input")
)
