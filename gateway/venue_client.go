package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIError carries the status code and parsed body of a non-2xx response.
// Callers decide whether it is retryable or ignorable.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("venue status %d: %s", e.Status, e.Body)
}

// VenueClient talks to the order-book venue's JSON command API.
// HTTPClient is injectable so tests can point it at httptest servers.
type VenueClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    RateLimiter
}

// NewDefaultHTTPClient returns an http.Client with a sane timeout.
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// FetchSnapshot reads GET /api/snapshot.
func (c *VenueClient) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	if c == nil || c.HTTPClient == nil {
		return nil, fmt.Errorf("http client not set")
	}
	if c.Limiter != nil {
		c.Limiter.Wait()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/snapshot", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readAPIError(resp)
	}
	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// SubmitLimitOrder posts a resting maker order.
func (c *VenueClient) SubmitLimitOrder(ctx context.Context, req LimitOrderRequest) (*OrderResult, error) {
	return c.postOrder(ctx, "/api/submit-limit-order", req)
}

// TriggerOrder posts an aggressive market-style order.
func (c *VenueClient) TriggerOrder(ctx context.Context, req TriggerOrderRequest) (*OrderResult, error) {
	return c.postOrder(ctx, "/api/trigger-order", req)
}

// ExecuteOrder executes against a specific resting order.
func (c *VenueClient) ExecuteOrder(ctx context.Context, req ExecuteOrderRequest) (*OrderResult, error) {
	return c.postOrder(ctx, "/api/execute-order", req)
}

func (c *VenueClient) postOrder(ctx context.Context, path string, body any) (*OrderResult, error) {
	if c == nil || c.HTTPClient == nil {
		return nil, fmt.Errorf("http client not set")
	}
	if c.Limiter != nil {
		c.Limiter.Wait()
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readAPIError(resp)
	}
	var result OrderResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode order result: %w", err)
	}
	return &result, nil
}

func readAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
}
