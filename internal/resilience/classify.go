package resilience

import (
	"errors"

	"github.com/kailas-cloud/creatormatch/internal/domain"
)

// Retryable reports whether err is a classified-retryable failure: throttled or a
// transport/dependency-unavailable error. Circuit-open, validation, deadline and
// config errors are terminal.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, domain.ErrThrottled) || errors.Is(err, domain.ErrDependencyUnavailable)
}
