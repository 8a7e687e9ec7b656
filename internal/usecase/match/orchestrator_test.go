package match

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/creatormatch/internal/domain"
)

type passthroughGuard struct{}

func (passthroughGuard) Run(_ context.Context, op func() error) error { return op() }

type failingGuard struct{ err error }

func (g failingGuard) Run(_ context.Context, _ func() error) error { return g.err }

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vector}, nil
}

type stubVectorIndex struct {
	hits []VectorHit
	err  error
}

func (s *stubVectorIndex) Query(_ context.Context, _ []float32, _ int, _ map[string]string) ([]VectorHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.hits, nil
}

type stubCatalog struct {
	byID map[string]domain.Creator
	all  []domain.Creator
}

func (s *stubCatalog) Get(_ context.Context, id string) (domain.Creator, bool) {
	c, ok := s.byID[id]
	return c, ok
}

func (s *stubCatalog) All(_ context.Context) []domain.Creator { return s.all }

type stubCompleter struct {
	text string
	err  error
}

func (s *stubCompleter) Complete(_ context.Context, _ string, _ domain.CompletionOptions) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubPersistence struct {
	called       bool
	assignmentID string
}

func (s *stubPersistence) PersistAsync(_ context.Context, assignmentID string, _ domain.MatchResponse) {
	s.called = true
	s.assignmentID = assignmentID
}

type stubFallbackRecorder struct{ called bool }

func (s *stubFallbackRecorder) RecordFallback() { s.called = true }

func testAssignment(t *testing.T) domain.Assignment {
	t.Helper()
	a, err := domain.NewAssignment("topic", "takeaway", "context", domain.NewTargetAudience("", ""), []string{"tech"}, nil, "")
	if err != nil {
		t.Fatalf("failed to build test assignment: %v", err)
	}
	return a
}

func testCreator(t *testing.T, id string, niches ...string) domain.Creator {
	t.Helper()
	analysis, err := domain.NewAnalysis(niches, nil, nil, nil, domain.NewEngagementStyle(nil), "")
	if err != nil {
		t.Fatalf("failed to build test analysis: %v", err)
	}
	c, err := domain.NewCreator(id, "nick-"+id, "bio", 1000, 50, true, "US", analysis)
	if err != nil {
		t.Fatalf("failed to build test creator: %v", err)
	}
	return c
}

func newTestService(embedder Embedder, vectorIdx VectorIndex, catalog Catalog, completer Completer, persistence PersistenceHook, fallback FallbackRecorder) *Service {
	return New(embedder, vectorIdx, catalog, completer, persistence,
		passthroughGuard{}, passthroughGuard{}, passthroughGuard{}, fallback, Config{})
}

func TestMatch_HappyPath(t *testing.T) {
	creator := testCreator(t, "c1", "tech")
	catalog := &stubCatalog{byID: map[string]domain.Creator{"c1": creator}, all: []domain.Creator{creator}}
	svc := newTestService(
		&stubEmbedder{vector: []float32{0.1, 0.2}},
		&stubVectorIndex{hits: []VectorHit{{ID: "c1", Score: 0.9}}},
		catalog,
		&stubCompleter{text: "great fit"},
		nil, nil,
	)

	resp, err := svc.Match(context.Background(), MatchRequest{Assignment: testAssignment(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.IsFallback {
		t.Error("expected non-fallback response")
	}
	if len(resp.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(resp.Matches))
	}
	if resp.Reasoning != "great fit" {
		t.Errorf("expected completion reasoning, got %q", resp.Reasoning)
	}
}

func TestMatch_EmbeddingFails_EntersFallback(t *testing.T) {
	creator := testCreator(t, "c1", "tech")
	catalog := &stubCatalog{byID: map[string]domain.Creator{"c1": creator}, all: []domain.Creator{creator}}
	fallbackRecorder := &stubFallbackRecorder{}
	svc := New(
		&stubEmbedder{err: errors.New("provider down")},
		&stubVectorIndex{hits: []VectorHit{{ID: "c1", Score: 0.9}}},
		catalog,
		&stubCompleter{text: "ok"},
		nil,
		passthroughGuard{}, passthroughGuard{}, passthroughGuard{},
		fallbackRecorder, Config{},
	)

	resp, err := svc.Match(context.Background(), MatchRequest{Assignment: testAssignment(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsFallback {
		t.Error("expected fallback response")
	}
	if len(resp.Matches) != 1 {
		t.Fatalf("expected fallback to score full catalog (1 creator), got %d", len(resp.Matches))
	}
	if resp.Matches[0].ScoreBreakdown.SemanticSimilarity != 0.5 {
		t.Errorf("expected semantic similarity 0.5 for semanticScore=0, got %v", resp.Matches[0].ScoreBreakdown.SemanticSimilarity)
	}
	if !fallbackRecorder.called {
		t.Error("expected fallback recorder to be notified")
	}
}

func TestMatch_VectorQueryFails_EntersFallback(t *testing.T) {
	creator := testCreator(t, "c1", "tech")
	catalog := &stubCatalog{byID: map[string]domain.Creator{"c1": creator}, all: []domain.Creator{creator}}
	svc := newTestService(
		&stubEmbedder{vector: []float32{0.1}},
		&stubVectorIndex{err: errors.New("index unreachable")},
		catalog,
		&stubCompleter{text: "ok"},
		nil, nil,
	)

	resp, err := svc.Match(context.Background(), MatchRequest{Assignment: testAssignment(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsFallback {
		t.Error("expected fallback response")
	}
}

func TestMatch_StaleVectorHits_Dropped(t *testing.T) {
	creator := testCreator(t, "c1", "tech")
	catalog := &stubCatalog{byID: map[string]domain.Creator{"c1": creator}, all: []domain.Creator{creator}}
	svc := newTestService(
		&stubEmbedder{vector: []float32{0.1}},
		&stubVectorIndex{hits: []VectorHit{{ID: "c1", Score: 0.9}, {ID: "gone", Score: 0.8}}},
		catalog,
		&stubCompleter{text: "ok"},
		nil, nil,
	)

	resp, err := svc.Match(context.Background(), MatchRequest{Assignment: testAssignment(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Matches) != 1 {
		t.Fatalf("expected stale id dropped, 1 match remaining, got %d", len(resp.Matches))
	}
}

func TestMatch_EmptyCandidates_ReturnsEmptySuccess(t *testing.T) {
	catalog := &stubCatalog{byID: map[string]domain.Creator{}, all: nil}
	svc := newTestService(
		&stubEmbedder{vector: []float32{0.1}},
		&stubVectorIndex{hits: nil},
		catalog,
		&stubCompleter{text: "ok"},
		nil, nil,
	)

	resp, err := svc.Match(context.Background(), MatchRequest{Assignment: testAssignment(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Matches) != 0 {
		t.Fatalf("expected zero matches, got %d", len(resp.Matches))
	}
	if resp.Reasoning != fallbackReasoning {
		t.Errorf("expected canned no-candidates reasoning, got %q", resp.Reasoning)
	}
}

func TestMatch_CompletionFails_UsesCannedFallback(t *testing.T) {
	creator := testCreator(t, "c1", "tech")
	catalog := &stubCatalog{byID: map[string]domain.Creator{"c1": creator}, all: []domain.Creator{creator}}
	svc := New(
		&stubEmbedder{vector: []float32{0.1}},
		&stubVectorIndex{hits: []VectorHit{{ID: "c1", Score: 0.9}}},
		catalog,
		&stubCompleter{},
		nil,
		passthroughGuard{}, passthroughGuard{}, failingGuard{err: errors.New("completion down")},
		nil, Config{},
	)

	resp, err := svc.Match(context.Background(), MatchRequest{Assignment: testAssignment(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Reasoning != fallbackCompletionText {
		t.Errorf("expected canned completion fallback, got %q", resp.Reasoning)
	}
}

func TestMatch_TruncatesToTopK(t *testing.T) {
	creators := map[string]domain.Creator{}
	all := make([]domain.Creator, 0, 5)
	hits := make([]VectorHit, 0, 5)
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		c := testCreator(t, id, "tech")
		creators[id] = c
		all = append(all, c)
		hits = append(hits, VectorHit{ID: id, Score: 0.5})
	}
	catalog := &stubCatalog{byID: creators, all: all}
	svc := New(
		&stubEmbedder{vector: []float32{0.1}},
		&stubVectorIndex{hits: hits},
		catalog,
		&stubCompleter{text: "ok"},
		nil,
		passthroughGuard{}, passthroughGuard{}, passthroughGuard{},
		nil, Config{TopK: 3},
	)

	resp, err := svc.Match(context.Background(), MatchRequest{Assignment: testAssignment(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Matches) != 3 {
		t.Fatalf("expected truncation to K=3, got %d", len(resp.Matches))
	}
}

func TestMatch_PersistsWhenAssignmentIDProvided(t *testing.T) {
	creator := testCreator(t, "c1", "tech")
	catalog := &stubCatalog{byID: map[string]domain.Creator{"c1": creator}, all: []domain.Creator{creator}}
	persistence := &stubPersistence{}
	svc := newTestService(
		&stubEmbedder{vector: []float32{0.1}},
		&stubVectorIndex{hits: []VectorHit{{ID: "c1", Score: 0.9}}},
		catalog,
		&stubCompleter{text: "ok"},
		persistence, nil,
	)

	_, err := svc.Match(context.Background(), MatchRequest{Assignment: testAssignment(t), AssignmentID: "assign-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !persistence.called {
		t.Fatal("expected persistence hook to be invoked")
	}
	if persistence.assignmentID != "assign-1" {
		t.Errorf("expected assignment id propagated, got %q", persistence.assignmentID)
	}
}

func TestMatch_NoAssignmentID_SkipsPersistence(t *testing.T) {
	creator := testCreator(t, "c1", "tech")
	catalog := &stubCatalog{byID: map[string]domain.Creator{"c1": creator}, all: []domain.Creator{creator}}
	persistence := &stubPersistence{}
	svc := newTestService(
		&stubEmbedder{vector: []float32{0.1}},
		&stubVectorIndex{hits: []VectorHit{{ID: "c1", Score: 0.9}}},
		catalog,
		&stubCompleter{text: "ok"},
		persistence, nil,
	)

	_, err := svc.Match(context.Background(), MatchRequest{Assignment: testAssignment(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if persistence.called {
		t.Error("expected persistence hook not invoked without assignment id")
	}
}
