// Package resilience implements the per-dependency circuit breaker and retrier that
// wrap the vector index, embedding and completion adapters.
package resilience

import (
	"sync"
	"time"

	"github.com/kailas-cloud/creatormatch/internal/domain"
	"github.com/kailas-cloud/creatormatch/internal/metrics"
)

// State is one of the three circuit breaker states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

const (
	defaultFailureThreshold = 5
	defaultResetTimeout     = 30 * time.Second
)

// BreakerConfig configures a Breaker's thresholds.
type BreakerConfig struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = defaultFailureThreshold
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = defaultResetTimeout
	}
	return c
}

// Breaker is a process-local, per-dependency circuit breaker. State is guarded by a
// mutex and observable via the breaker_state Prometheus gauge.
type Breaker struct {
	dependency string
	cfg        BreakerConfig

	mu           sync.Mutex
	state        State
	failureCount int
	lastFailure  time.Time
	halfOpenBusy bool
}

// NewBreaker creates a Breaker for the named dependency, starting Closed.
func NewBreaker(dependency string, cfg BreakerConfig) *Breaker {
	b := &Breaker{dependency: dependency, cfg: cfg.withDefaults(), state: Closed}
	metrics.BreakerState.WithLabelValues(dependency).Set(0)
	return b
}

// Dependency returns the name this breaker was created for.
func (b *Breaker) Dependency() string {
	return b.dependency
}

// State returns the breaker's current state, transitioning Open->HalfOpen if the
// reset timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfDue()
	return b.state
}

// resetIfDue transitions Open -> HalfOpen once resetTimeout has elapsed since the last
// failure. Caller must hold b.mu.
func (b *Breaker) resetIfDue() {
	if b.state == Open && time.Since(b.lastFailure) >= b.cfg.ResetTimeout {
		b.transition(HalfOpen)
		b.halfOpenBusy = false
	}
}

// Allow reports whether a call may proceed, admitting at most one probe in HalfOpen.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetIfDue()

	switch b.state {
	case Closed:
		return true
	case HalfOpen:
		if b.halfOpenBusy {
			return false
		}
		b.halfOpenBusy = true
		return true
	default: // Open
		return false
	}
}

// RecordSuccess zeroes the failure counter and closes the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount = 0
	b.halfOpenBusy = false
	if b.state != Closed {
		b.transition(Closed)
	}
}

// RecordFailure increments the failure counter and opens the breaker once the
// threshold is reached (or immediately, from HalfOpen).
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastFailure = time.Now()
	b.halfOpenBusy = false

	if b.state == HalfOpen {
		b.transition(Open)
		return
	}

	b.failureCount++
	if b.failureCount >= b.cfg.FailureThreshold {
		b.transition(Open)
	}
}

// transition updates state and reports the change. Caller must hold b.mu.
func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	b.state = to
	metrics.BreakerState.WithLabelValues(b.dependency).Set(float64(to))
	metrics.BreakerTransitionsTotal.WithLabelValues(b.dependency, to.String()).Inc()
}

// Execute runs op if the breaker admits the call, recording the outcome. Returns
// ErrCircuitOpen without calling op when the breaker is Open.
func (b *Breaker) Execute(op func() error) error {
	if !b.Allow() {
		return domain.ErrCircuitOpen
	}

	err := op()
	if err != nil {
		b.RecordFailure()
		return err
	}

	b.RecordSuccess()
	return nil
}
