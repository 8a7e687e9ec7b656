// Package persistence implements the optional match-results write-back port:
// a best-effort PATCH to the assignment service, logged but never surfaced as
// a request failure per §7's propagation policy.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/creatormatch/internal/domain"
	"github.com/kailas-cloud/creatormatch/internal/logger"
)

// Client writes match results back to the assignment service. A zero-value
// BaseURL disables persistence entirely.
type Client struct {
	httpClient *http.Client
	baseURL    string
	deadline   time.Duration
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	DeadlineMs int
}

// New builds a Client. Returns nil if BaseURL is empty, signaling persistence
// is disabled.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		return nil
	}
	deadline := time.Duration(cfg.DeadlineMs) * time.Millisecond
	if deadline <= 0 {
		deadline = 2 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: deadline},
		baseURL:    cfg.BaseURL,
		deadline:   deadline,
	}
}

type matchesPayload struct {
	Matches   []matchEntry `json:"matchResults"`
	Timestamp time.Time    `json:"timestamp"`
}

type matchEntry struct {
	CreatorID  string  `json:"creatorId"`
	MatchScore float64 `json:"matchScore"`
	Reasoning  string  `json:"reasoning"`
}

// PersistMatches PATCHes the assignment's computed matches to the assignment
// service. Failures are returned to the caller to log, never propagated as a
// request failure: the orchestrator calls this fire-and-forget.
func (c *Client) PersistMatches(ctx context.Context, assignmentID string, response domain.MatchResponse) error {
	entries := make([]matchEntry, 0, len(response.Matches))
	for _, m := range response.Matches {
		entries = append(entries, matchEntry{
			CreatorID:  m.Creator.ID(),
			MatchScore: m.MatchScore,
			Reasoning:  m.Reasoning,
		})
	}

	body, err := json.Marshal(matchesPayload{Matches: entries, Timestamp: response.Timestamp})
	if err != nil {
		return fmt.Errorf("marshal matches payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	url := fmt.Sprintf("%s/assignments/%s/matches", c.baseURL, assignmentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build persist request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("persist matches: %w", domain.ErrDependencyUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("persist matches: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// PersistAsync runs PersistMatches in a goroutine, logging failure rather than
// returning it. This is the shape the match orchestrator actually calls.
func (c *Client) PersistAsync(ctx context.Context, assignmentID string, response domain.MatchResponse) {
	if c == nil {
		return
	}
	log := logger.FromContext(ctx)
	go func() {
		detached, cancel := context.WithTimeout(context.Background(), c.deadline)
		defer cancel()
		if err := c.PersistMatches(detached, assignmentID, response); err != nil {
			log.Warn("failed to persist match results", zap.String("assignmentId", assignmentID), zap.Error(err))
		}
	}()
}
