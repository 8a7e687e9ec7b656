package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNew_EmptyBaseURL(t *testing.T) {
	_, err := New("")
	if err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestMatch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/matches" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req MatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Assignment.Topic != "launch" {
			t.Errorf("expected topic 'launch', got %q", req.Assignment.Topic)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(MatchResponse{
			Matches:   []Match{{CreatorID: "c1", MatchScore: 0.9}},
			Reasoning: "great fit",
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := c.Match(context.Background(), MatchRequest{Assignment: Assignment{Topic: "launch"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Matches) != 1 || resp.Matches[0].CreatorID != "c1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestMatch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"validation_error"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = c.Match(context.Background(), MatchRequest{})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	var apiErr *APIError
	if ok := asAPIError(err, &apiErr); !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", apiErr.StatusCode)
	}
}

func TestHealth_DecodesCriticalStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthStatus{Status: "critical", Dependencies: []Dependency{
			{Name: "vector-index", State: "open", UptimePct: 42.5},
		}})
	}))
	defer srv.Close()

	c, err := New(srv.URL, WithAPIKey("secret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("expected no error decoding a critical 503 body, got %v", err)
	}
	if status.Status != "critical" {
		t.Errorf("expected critical status, got %q", status.Status)
	}
	if len(status.Dependencies) != 1 || status.Dependencies[0].Name != "vector-index" {
		t.Fatalf("unexpected dependencies: %+v", status.Dependencies)
	}
}

func asAPIError(err error, target **APIError) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		return false
	}
	*target = apiErr
	return true
}
