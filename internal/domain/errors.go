package domain

import "errors"

// KeyPrefix namespaces all keys this service writes to the store.
const KeyPrefix = "voucherd:"

// Sentinel errors surfaced to callers by the search façade, matching the
// error taxonomy: bad input, external collaborator failure, and deadline
// or capacity exhaustion.
var (
	ErrBadRequest           = errors.New("bad request")
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	ErrIndexUnavailable     = errors.New("index unavailable")
	ErrGeneratorUnavailable = errors.New("generator unavailable")
	ErrDeadlineExceeded     = errors.New("deadline exceeded")
	ErrOverloaded           = errors.New("overloaded")
	ErrInvalidDocument      = errors.New("invalid document")
	ErrNotFound             = errors.New("not found")
)
