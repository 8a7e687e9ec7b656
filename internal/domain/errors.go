package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors implementing the match engine's error taxonomy. The resilience layer
// classifies these as retryable or terminal; the orchestrator maps terminal failures on
// critical paths to fallback mode rather than request failure.
var (
	// ErrNotFound signals a missing resource, e.g. a candidate id absent from the catalog.
	ErrNotFound = errors.New("not found")
	// ErrDependencyUnavailable signals a transport failure or remote 5xx. Retryable.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrThrottled signals a provider rate limit. Retryable with backoff/jitter.
	ErrThrottled = errors.New("throttled")
	// ErrCircuitOpen signals the breaker is forbidding calls to a dependency.
	ErrCircuitOpen = errors.New("circuit open")
	// ErrDeadlineExceeded signals a per-call or per-request deadline expiry. Not retried.
	ErrDeadlineExceeded = errors.New("deadline exceeded")
	// ErrConfigInvalid signals a dimension mismatch or missing credentials. Fatal.
	ErrConfigInvalid = errors.New("invalid configuration")
	// ErrEmbeddingProviderError signals an embedding or completion provider failure that
	// does not fit a more specific category.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// ValidationError reports which assignment fields failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %v", e.Fields)
}

func (e *ValidationError) Unwrap() error { return errUnderlyingValidation }

var errUnderlyingValidation = errors.New("validation error")

// NewValidationError creates a ValidationError for the given offending fields.
func NewValidationError(fields ...string) error {
	return &ValidationError{Fields: fields}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
