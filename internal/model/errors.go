package model

import (
	"errors"
	"fmt"
)

var (
	// ErrLogNotFound is returned when a referenced ingest log does not exist.
	ErrLogNotFound = errors.New("ingest log not found")

	// ErrJobNotFound is returned when a referenced job posting does not exist.
	ErrJobNotFound = errors.New("job posting not found")

	// ErrMissingAPIKey is returned when the extraction model credential is
	// not configured. The pipeline fails closed before writing anything.
	ErrMissingAPIKey = errors.New("extraction model API key not configured")

	// ErrInvalidState is returned when a moderation action targets an entry
	// that is not in the required state (e.g. approving an already-published
	// log).
	ErrInvalidState = errors.New("invalid state for this action")
)

// ExtractionError wraps a failed or unusable extraction model call so the
// pipeline can distinguish it from store failures in logs.
type ExtractionError struct {
	Stage string // "call" or "decode"
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction %s failed: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
