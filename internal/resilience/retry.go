package resilience

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/kailas-cloud/creatormatch/internal/metrics"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 250 * time.Millisecond
	defaultMaxDelay    = 5 * time.Second
	jitterFraction     = 0.2
)

// RetryConfig configures a retrier's attempt count and delay curve.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	return c
}

// RetryAfterer is implemented by errors that carry a provider-supplied retry-after hint.
type RetryAfterer interface {
	RetryAfter() time.Duration
}

// Retrier retries an operation according to RetryConfig, retrying only errors
// classified as retryable by Retryable.
type Retrier struct {
	dependency string
	cfg        RetryConfig
}

// NewRetrier creates a Retrier for the named dependency.
func NewRetrier(dependency string, cfg RetryConfig) *Retrier {
	return &Retrier{dependency: dependency, cfg: cfg.withDefaults()}
}

// Do runs op, retrying up to MaxAttempts total attempts while the error is retryable
// and the context is not done. Returns the last error on exhaustion.
func (r *Retrier) Do(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		err = op()
		if err == nil {
			metrics.RetryAttemptsTotal.WithLabelValues(r.dependency, "success").Inc()
			return nil
		}

		if !Retryable(err) {
			metrics.RetryAttemptsTotal.WithLabelValues(r.dependency, "terminal").Inc()
			return err
		}

		if attempt == r.cfg.MaxAttempts {
			metrics.RetryAttemptsTotal.WithLabelValues(r.dependency, "exhausted").Inc()
			return err
		}

		metrics.RetryAttemptsTotal.WithLabelValues(r.dependency, "retry").Inc()

		delay := r.delay(attempt, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

// delay computes the backoff before attempt n+1 (1-indexed attempt just made): base *
// 2^(n-1) with +/-20% jitter, capped at maxDelay, floored by any retry-after hint.
func (r *Retrier) delay(attempt int, err error) time.Duration {
	computed := r.cfg.BaseDelay * time.Duration(1<<uint(attempt-1))

	jitter := 1 + (rand.Float64()*2-1)*jitterFraction //nolint:gosec // jitter, not security-sensitive
	computed = time.Duration(float64(computed) * jitter)

	if computed > r.cfg.MaxDelay {
		computed = r.cfg.MaxDelay
	}

	var hinted time.Duration
	var ra RetryAfterer
	if errors.As(err, &ra) {
		hinted = ra.RetryAfter()
	}
	if hinted > computed {
		return hinted
	}
	return computed
}
