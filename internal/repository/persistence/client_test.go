package persistence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kailas-cloud/creatormatch/internal/domain"
)

func testResponse() domain.MatchResponse {
	analysis, _ := domain.NewAnalysis([]string{"tech"}, nil, nil, nil, domain.NewEngagementStyle(nil), "")
	creator, _ := domain.NewCreator("c1", "nick", "bio", 1000, 50, true, "US", analysis)
	return domain.MatchResponse{
		Matches: []domain.Match{
			{Creator: creator, MatchScore: 0.87, Reasoning: "good fit"},
		},
		Timestamp: time.Now(),
	}
}

func TestNew_EmptyBaseURL_ReturnsNil(t *testing.T) {
	c := New(Config{BaseURL: ""})
	if c != nil {
		t.Fatal("expected nil client for empty BaseURL")
	}
}

func TestPersistMatches_Success(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody matchesPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, DeadlineMs: 1000})
	if err := c.PersistMatches(context.Background(), "assign-1", testResponse()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("expected PATCH, got %s", gotMethod)
	}
	if gotPath != "/assignments/assign-1/matches" {
		t.Errorf("expected path /assignments/assign-1/matches, got %s", gotPath)
	}
	if len(gotBody.Matches) != 1 || gotBody.Matches[0].CreatorID != "c1" {
		t.Errorf("expected one match entry for c1, got %+v", gotBody.Matches)
	}
}

func TestPersistMatches_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, DeadlineMs: 1000})
	if err := c.PersistMatches(context.Background(), "assign-1", testResponse()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestPersistMatches_Unreachable(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1", DeadlineMs: 200})
	if err := c.PersistMatches(context.Background(), "assign-1", testResponse()); err == nil {
		t.Fatal("expected error for unreachable server")
	}
}

func TestPersistAsync_NilClient_NoPanic(t *testing.T) {
	var c *Client
	c.PersistAsync(context.Background(), "assign-1", testResponse())
}
