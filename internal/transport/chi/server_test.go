package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/creatormatch/internal/domain"
	"github.com/kailas-cloud/creatormatch/internal/resilience"
	"github.com/kailas-cloud/creatormatch/internal/usecase/health"
	"github.com/kailas-cloud/creatormatch/internal/usecase/match"
)

type passthroughGuard struct{}

func (passthroughGuard) Run(_ context.Context, op func() error) error { return op() }

type fakeEmbedder struct{ vector []float32 }

func (f fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: f.vector}, nil
}

type fakeVectorIndex struct{ hits []match.VectorHit }

func (f fakeVectorIndex) Query(_ context.Context, _ []float32, _ int, _ map[string]string) ([]match.VectorHit, error) {
	return f.hits, nil
}

type fakeCatalog struct {
	byID map[string]domain.Creator
	all  []domain.Creator
}

func (f fakeCatalog) Get(_ context.Context, id string) (domain.Creator, bool) {
	c, ok := f.byID[id]
	return c, ok
}
func (f fakeCatalog) All(_ context.Context) []domain.Creator { return f.all }

type fakeCompleter struct{ text string }

func (f fakeCompleter) Complete(_ context.Context, _ string, _ domain.CompletionOptions) (string, error) {
	return f.text, nil
}

type fakeDBPinger struct{ err error }

func (f fakeDBPinger) Ping(_ context.Context) error { return f.err }

func testCreatorForTransport(t *testing.T, id string) domain.Creator {
	t.Helper()
	analysis, err := domain.NewAnalysis([]string{"tech"}, nil, nil, nil, domain.NewEngagementStyle(nil), "")
	if err != nil {
		t.Fatalf("build analysis: %v", err)
	}
	c, err := domain.NewCreator(id, "nick-"+id, "bio", 1000, 50, true, "US", analysis)
	if err != nil {
		t.Fatalf("build creator: %v", err)
	}
	return c
}

func testServer(t *testing.T) *Server {
	t.Helper()
	creator := testCreatorForTransport(t, "c1")
	catalog := fakeCatalog{byID: map[string]domain.Creator{"c1": creator}, all: []domain.Creator{creator}}

	matcher := match.New(
		fakeEmbedder{vector: []float32{0.1, 0.2}},
		fakeVectorIndex{hits: []match.VectorHit{{ID: "c1", Score: 0.9}}},
		catalog,
		fakeCompleter{text: "great fit"},
		nil,
		passthroughGuard{}, passthroughGuard{}, passthroughGuard{},
		nil, match.Config{},
	)

	healthSvc := health.New(fakeDBPinger{}, nil)
	healthSvc.RegisterDependency("vector-index", true, resilience.NewBreaker("vector-index", resilience.BreakerConfig{}))

	return NewServer(matcher, healthSvc, zap.NewNop())
}

func TestMatches_HappyPath(t *testing.T) {
	s := testServer(t)

	body := `{"assignment":{"topic":"launch","keyTakeaway":"it's great","additionalContext":"product launch campaign",
		"targetAudience":{"locale":"en-US","demographic":"gen-z"},
		"creatorNiches":["tech"],"creatorValues":["authenticity"],"toneStyle":"casual"}}`

	req := httptest.NewRequest(http.MethodPost, "/matches", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	s.Matches(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp matchResponseBody
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(resp.Matches))
	}
}

func TestMatches_InvalidBody_400(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/matches", bytes.NewBufferString("not json"))
	rr := httptest.NewRecorder()
	s.Matches(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestMatches_ValidationError_400(t *testing.T) {
	s := testServer(t)

	// missing topic triggers domain-level validation failure
	body := `{"assignment":{"topic":"","keyTakeaway":"x","creatorNiches":["tech"]}}`
	req := httptest.NewRequest(http.MethodPost, "/matches", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	s.Matches(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHealth_AllUp_200(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()
	s.Health(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp healthBody
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(health.Healthy) {
		t.Errorf("expected healthy status, got %q", resp.Status)
	}
}

func TestHealth_DBDown_Degraded(t *testing.T) {
	creator := testCreatorForTransport(t, "c1")
	catalog := fakeCatalog{byID: map[string]domain.Creator{"c1": creator}, all: []domain.Creator{creator}}
	matcher := match.New(
		fakeEmbedder{vector: []float32{0.1}},
		fakeVectorIndex{},
		catalog,
		fakeCompleter{text: "ok"},
		nil,
		passthroughGuard{}, passthroughGuard{}, passthroughGuard{},
		nil, match.Config{},
	)
	healthSvc := health.New(fakeDBPinger{err: context.DeadlineExceeded}, nil)
	s := NewServer(matcher, healthSvc, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()
	s.Health(rr, req)

	var resp healthBody
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(health.Degraded) {
		t.Errorf("expected degraded status, got %q", resp.Status)
	}
}

func TestMetrics_Returns200(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rr := httptest.NewRecorder()
	s.Metrics(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}
