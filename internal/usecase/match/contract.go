package match

import (
	"context"

	"github.com/kailas-cloud/creatormatch/internal/domain"
)

// Embedder maps brief text to an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorIndex is the subset of the vector index adapter the orchestrator needs.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int, filters map[string]string) ([]VectorHit, error)
}

// VectorHit is a single nearest-neighbor result.
type VectorHit struct {
	ID    string
	Score float64
}

// Catalog resolves creator ids to full records and lists the full catalog for
// fallback mode.
type Catalog interface {
	Get(ctx context.Context, id string) (domain.Creator, bool)
	All(ctx context.Context) []domain.Creator
}

// Completer produces an advisory rationale string.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (string, error)
}

// PersistenceHook writes matches back to an external system. Implementations
// must be fire-and-forget; a failure here must never fail the request.
type PersistenceHook interface {
	PersistAsync(ctx context.Context, assignmentID string, response domain.MatchResponse)
}

// Guard runs an operation under a circuit breaker and retrier.
type Guard interface {
	Run(ctx context.Context, op func() error) error
}

// FallbackRecorder is notified when the orchestrator serves a fallback response,
// feeding the health aggregator's sliding window.
type FallbackRecorder interface {
	RecordFallback()
}
