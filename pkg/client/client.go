// Package client is a small Go SDK for the creatormatch HTTP API, wrapping
// POST /matches and GET /health over plain net/http. It keeps the teacher
// SDK's functional-options constructor and observer hook, rebuilt for a
// two-endpoint surface instead of a document/collection CRUD API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client is the creatormatch SDK entry point.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	obs        *observer
}

// New creates a Client. baseURL is required; all other settings have defaults.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("creatormatch: base URL required")
	}

	cfg := &clientConfig{
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	return &Client{
		httpClient: cfg.httpClient,
		baseURL:    baseURL,
		apiKey:     cfg.apiKey,
		obs:        newObserver(cfg.logger, cfg.metricsReg),
	}, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, out any) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(op, start, err) }()

	var reqBody io.Reader
	if body != nil {
		encoded, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("creatormatch: encode request: %w", marshalErr)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creatormatch: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("creatormatch: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(payload)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("creatormatch: decode response: %w", err)
		}
	}
	return nil
}

// doAllowDegraded behaves like do but decodes the body regardless of status code,
// for endpoints (GET /health) whose critical state carries a non-2xx (503)
// status alongside a perfectly valid JSON body.
func (c *Client) doAllowDegraded(ctx context.Context, op, method, path string, out any) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(op, start, err) }()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creatormatch: build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("creatormatch: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("creatormatch: decode response: %w", err)
	}
	return nil
}

// APIError is returned for any non-2xx HTTP response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("creatormatch: request failed with status %d: %s", e.StatusCode, e.Body)
}
