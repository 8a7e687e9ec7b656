package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kailas-cloud/creatormatch/internal/resilience"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all dependencies are operational.
	Healthy Status = "healthy"
	// Degraded indicates a non-critical dependency is open, a component check
	// failed, or fallback mode was recently exercised.
	Degraded Status = "degraded"
	// Critical indicates a critical dependency's breaker is open.
	Critical Status = "critical"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

const (
	outcomeWindowSize = 50
	fallbackWindow    = 5 * time.Minute
)

// DependencyStatus reports one dependency's breaker state and recent uptime.
type DependencyStatus struct {
	Name           string
	Critical       bool
	State          resilience.State
	UptimeFraction float64
	LastError      string
}

// Report aggregates health check results.
type Report struct {
	Status           Status
	Checks           map[string]CheckResult
	Dependencies     []DependencyStatus
	FallbackRecently bool
}

type dependency struct {
	name     string
	critical bool
	breaker  *resilience.Breaker

	mu        sync.Mutex
	outcomes  []bool
	lastError string
}

func (d *dependency) record(ok bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outcomes = append(d.outcomes, ok)
	if len(d.outcomes) > outcomeWindowSize {
		d.outcomes = d.outcomes[len(d.outcomes)-outcomeWindowSize:]
	}
	if err != nil {
		d.lastError = err.Error()
	} else if ok {
		d.lastError = ""
	}
}

func (d *dependency) lastErr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastError
}

func (d *dependency) uptimeFraction() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.outcomes) == 0 {
		return 1
	}
	ok := 0
	for _, o := range d.outcomes {
		if o {
			ok++
		}
	}
	return float64(ok) / float64(len(d.outcomes))
}

// Service coordinates health checks and folds breaker states into an overall status.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker

	mu         sync.Mutex
	deps       map[string]*dependency
	fallbackAt time.Time
}

// New creates a Service. embedding can be nil.
func New(db DBPinger, embedding EmbeddingChecker) *Service {
	return &Service{db: db, embedding: embedding, deps: make(map[string]*dependency)}
}

// RegisterDependency wires a resilience breaker into the rollup. Vector index and
// embedding are critical dependencies; completion is not.
func (s *Service) RegisterDependency(name string, critical bool, breaker *resilience.Breaker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deps[name] = &dependency{name: name, critical: critical, breaker: breaker}
}

// RecordOutcome appends a success/failure sample to a dependency's sliding window
// and remembers the most recent error, if any.
func (s *Service) RecordOutcome(name string, ok bool, err error) {
	s.mu.Lock()
	d := s.deps[name]
	s.mu.Unlock()
	if d != nil {
		d.record(ok, err)
	}
}

// RecordFallback marks that the orchestrator served a fallback response just now.
func (s *Service) RecordFallback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallbackAt = time.Now()
}

// Check runs health checks against all components and folds breaker states per §4.8:
// critical if any critical dependency is Open, degraded if any non-critical is Open,
// the database or embedding check fails, or fallback mode ran recently, healthy otherwise.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	s.mu.Lock()
	deps := make([]*dependency, 0, len(s.deps))
	for _, d := range s.deps {
		deps = append(deps, d)
	}
	fallbackAt := s.fallbackAt
	s.mu.Unlock()

	sort.Slice(deps, func(i, j int) bool { return deps[i].name < deps[j].name })

	criticalOpen, nonCriticalOpen := false, false
	statuses := make([]DependencyStatus, 0, len(deps))
	for _, d := range deps {
		state := d.breaker.State()
		if state == resilience.Open {
			if d.critical {
				criticalOpen = true
			} else {
				nonCriticalOpen = true
			}
		}
		statuses = append(statuses, DependencyStatus{
			Name: d.name, Critical: d.critical, State: state, UptimeFraction: d.uptimeFraction(), LastError: d.lastErr(),
		})
	}

	fallbackRecently := !fallbackAt.IsZero() && time.Since(fallbackAt) < fallbackWindow

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
		}
	}
	if nonCriticalOpen || fallbackRecently {
		status = Degraded
	}
	if criticalOpen {
		status = Critical
	}

	return Report{Status: status, Checks: checks, Dependencies: statuses, FallbackRecently: fallbackRecently}
}
