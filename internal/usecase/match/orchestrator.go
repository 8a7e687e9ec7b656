// Package match implements the match orchestrator: the single match(assignment)
// pipeline that composes embedding, vector search, scoring, ranking and
// completion into a MatchResponse.
package match

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/creatormatch/internal/domain"
	"github.com/kailas-cloud/creatormatch/internal/logger"
	"github.com/kailas-cloud/creatormatch/internal/metrics"
	"github.com/kailas-cloud/creatormatch/internal/usecase/scoring"
)

const (
	vectorQueryTopK        = 15
	defaultK               = 3
	fallbackReasoning      = "no suitable creators found"
	fallbackCompletionText = "A rationale could not be generated for this match at this time."
)

// Config tunes the orchestrator's fan-out, result size and scoring weights.
type Config struct {
	TopK          int             // K, final result size, default 3
	ScoringFanout int             // P, bounded scoring concurrency, default min(8, candidates)
	Weights       scoring.Weights // composite-score profile, default scoring.DefaultWeights()
}

func (c Config) withDefaults() Config {
	if c.TopK <= 0 {
		c.TopK = defaultK
	}
	if c.ScoringFanout <= 0 {
		c.ScoringFanout = 8
	}
	if c.Weights == (scoring.Weights{}) {
		c.Weights = scoring.DefaultWeights()
	}
	return c
}

// Service is the match orchestrator, structured like the teacher's search
// Service: narrow collaborator interfaces injected through a constructor.
type Service struct {
	embedder    Embedder
	vectorIndex VectorIndex
	catalog     Catalog
	completer   Completer
	persistence PersistenceHook // may be nil: disables write-back

	embedGuard      Guard
	vectorGuard     Guard
	completionGuard Guard

	fallbackRecorder FallbackRecorder // may be nil

	cfg Config
}

// New builds a match orchestrator Service.
func New(embedder Embedder, vectorIndex VectorIndex, catalog Catalog, completer Completer,
	persistence PersistenceHook, embedGuard, vectorGuard, completionGuard Guard,
	fallbackRecorder FallbackRecorder, cfg Config) *Service {
	return &Service{
		embedder:         embedder,
		vectorIndex:      vectorIndex,
		catalog:          catalog,
		completer:        completer,
		persistence:      persistence,
		embedGuard:       embedGuard,
		vectorGuard:      vectorGuard,
		completionGuard:  completionGuard,
		fallbackRecorder: fallbackRecorder,
		cfg:              cfg.withDefaults(),
	}
}

// MatchRequest carries the assignment plus its optional persistence id.
type MatchRequest struct {
	Assignment   domain.Assignment
	AssignmentID string // empty disables persistence write-back for this call
}

// Match runs the full pipeline per §4.7's 10-step algorithm.
func (s *Service) Match(ctx context.Context, req MatchRequest) (domain.MatchResponse, error) {
	log := logger.FromContext(ctx)
	assignment := req.Assignment

	start := time.Now()
	outcome := "matched"
	defer func() {
		metrics.MatchRequestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	briefText := assignment.BriefText()
	isFallback := false

	var vector []float32
	err := s.embedGuard.Run(ctx, func() error {
		result, embErr := s.embedder.Embed(ctx, briefText)
		if embErr != nil {
			return embErr
		}
		vector = result.Embedding
		return nil
	})
	if err != nil {
		log.Warn("embedding failed, entering fallback mode", zap.Error(err))
		isFallback = true
	}

	var hits []VectorHit
	if !isFallback {
		err = s.vectorGuard.Run(ctx, func() error {
			queryHits, qErr := s.vectorIndex.Query(ctx, vector, vectorQueryTopK, nil)
			if qErr != nil {
				return qErr
			}
			hits = queryHits
			return nil
		})
		if err != nil {
			log.Warn("vector query failed, entering fallback mode", zap.Error(err))
			isFallback = true
		}
	}

	candidates := s.buildCandidates(ctx, hits, isFallback)

	if isFallback {
		outcome = "fallback"
		metrics.MatchFallbackTotal.WithLabelValues("candidate-source").Inc()
		if s.fallbackRecorder != nil {
			s.fallbackRecorder.RecordFallback()
		}
	}

	if len(candidates) == 0 {
		outcome = "empty"
		return domain.MatchResponse{
			Assignment: assignment,
			Matches:    []domain.Match{},
			Reasoning:  fallbackReasoning,
			IsFallback: isFallback,
			Timestamp:  time.Now(),
		}, nil
	}

	scored := s.scoreConcurrently(ctx, assignment, candidates)
	ranked := scoring.Rank(scored)
	if len(ranked) > s.cfg.TopK {
		ranked = ranked[:s.cfg.TopK]
	}

	reasoning := s.completionReasoning(ctx, assignment, ranked)

	response := domain.MatchResponse{
		Assignment: assignment,
		Matches:    ranked,
		Reasoning:  reasoning,
		IsFallback: isFallback,
		Timestamp:  time.Now(),
	}

	if req.AssignmentID != "" && s.persistence != nil {
		s.persistence.PersistAsync(ctx, req.AssignmentID, response)
	}

	return response, nil
}

// buildCandidates maps vector hits (or the full catalog, in fallback mode) to
// (creator, semanticScore) pairs, dropping stale ids absent from the catalog.
func (s *Service) buildCandidates(ctx context.Context, hits []VectorHit, isFallback bool) []domain.Candidate {
	if isFallback {
		all := s.catalog.All(ctx)
		out := make([]domain.Candidate, 0, len(all))
		for _, creator := range all {
			out = append(out, domain.Candidate{CreatorID: creator.ID(), SemanticScore: 0})
		}
		return out
	}

	out := make([]domain.Candidate, 0, len(hits))
	for _, hit := range hits {
		if _, ok := s.catalog.Get(ctx, hit.ID); !ok {
			continue // stale vector: id no longer in catalog
		}
		out = append(out, domain.Candidate{CreatorID: hit.ID, SemanticScore: hit.Score})
	}
	return out
}

// scoreConcurrently scores every candidate with bounded parallelism P via a
// buffered-channel semaphore, matching the stdlib-only concurrency style
// observed throughout the retrieved pack.
func (s *Service) scoreConcurrently(ctx context.Context, assignment domain.Assignment, candidates []domain.Candidate) []domain.Match {
	fanout := s.cfg.ScoringFanout
	if fanout > len(candidates) {
		fanout = len(candidates)
	}
	if fanout < 1 {
		fanout = 1
	}

	sem := make(chan struct{}, fanout)
	results := make([]domain.Match, len(candidates))
	var wg sync.WaitGroup

	for i, cand := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, candidate domain.Candidate) {
			defer wg.Done()
			defer func() { <-sem }()

			creator, ok := s.catalog.Get(ctx, candidate.CreatorID)
			if !ok {
				return
			}
			results[idx] = scoring.ScoreWithWeights(assignment, creator, candidate.SemanticScore, s.cfg.Weights)
		}(i, cand)
	}
	wg.Wait()

	out := make([]domain.Match, 0, len(results))
	for _, m := range results {
		if m.Creator.ID() != "" {
			out = append(out, m)
		}
	}
	return out
}

// completionReasoning calls the completion adapter for an advisory rationale,
// substituting a canned fallback on any failure rather than failing the request.
func (s *Service) completionReasoning(ctx context.Context, assignment domain.Assignment, matches []domain.Match) string {
	prompt := buildReasoningPrompt(assignment, matches)

	var text string
	err := s.completionGuard.Run(ctx, func() error {
		result, cErr := s.completer.Complete(ctx, prompt, domain.CompletionOptions{MaxTokens: 200, Temperature: 0.5})
		if cErr != nil {
			return cErr
		}
		text = result
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Warn("completion failed, using fallback reasoning", zap.Error(err))
		metrics.CompletionFallbackTotal.WithLabelValues("completion-error").Inc()
		return fallbackCompletionText
	}
	return text
}

func buildReasoningPrompt(assignment domain.Assignment, matches []domain.Match) string {
	prompt := "Explain briefly why these creators fit the brief: " + assignment.Topic() + ". Creators: "
	for i, m := range matches {
		if i > 0 {
			prompt += ", "
		}
		prompt += m.Creator.Nickname()
	}
	return prompt
}
