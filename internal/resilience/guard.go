package resilience

import (
	"context"

	"github.com/kailas-cloud/creatormatch/internal/domain"
)

// OutcomeRecorder receives a dependency's terminal call outcomes, for sliding-window
// uptime tracking and last-error reporting (e.g. the health aggregator). err is nil
// on success.
type OutcomeRecorder interface {
	RecordOutcome(dependency string, ok bool, err error)
}

// Guard composes a Breaker around a Retrier: breaker(retry(op)). The breaker only
// observes the terminal outcome after all retries complete, never intermediate
// retry failures.
type Guard struct {
	breaker  *Breaker
	retrier  *Retrier
	recorder OutcomeRecorder
}

// NewGuard builds a Guard for one dependency.
func NewGuard(dependency string, bcfg BreakerConfig, rcfg RetryConfig) *Guard {
	return &Guard{
		breaker: NewBreaker(dependency, bcfg),
		retrier: NewRetrier(dependency, rcfg),
	}
}

// SetOutcomeRecorder wires a recorder to receive this guard's terminal call
// outcomes, including short-circuits while the breaker is open.
func (g *Guard) SetOutcomeRecorder(r OutcomeRecorder) {
	g.recorder = r
}

// Run executes op under the breaker and retrier. Returns ErrCircuitOpen immediately
// without calling op if the breaker is open.
func (g *Guard) Run(ctx context.Context, op func() error) error {
	if !g.breaker.Allow() {
		g.recordOutcome(false, domain.ErrCircuitOpen)
		return domain.ErrCircuitOpen
	}

	err := g.retrier.Do(ctx, op)
	if err != nil {
		g.breaker.RecordFailure()
		g.recordOutcome(false, err)
		return err
	}

	g.breaker.RecordSuccess()
	g.recordOutcome(true, nil)
	return nil
}

func (g *Guard) recordOutcome(ok bool, err error) {
	if g.recorder != nil {
		g.recorder.RecordOutcome(g.breaker.Dependency(), ok, err)
	}
}

// State exposes the breaker's current state, for health aggregation.
func (g *Guard) State() State {
	return g.breaker.State()
}

// Breaker exposes the underlying breaker so callers can register it with the
// health aggregator.
func (g *Guard) Breaker() *Breaker {
	return g.breaker
}
