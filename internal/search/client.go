// Package search holds the client for the upstream federated-search
// service. The fan-out across platforms happens upstream; this side makes
// a single attempt per query with a fixed timeout and never retries.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fedsearch/identity-gateway/internal/domain"
	"github.com/fedsearch/identity-gateway/pkg/logger"
)

type Client interface {
	FederatedSearch(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResponse, error)
	Health(ctx context.Context) error
}

type HTTPClient struct {
	baseURL       string
	client        *http.Client
	healthTimeout time.Duration
}

func NewHTTPClient(baseURL string, callTimeout, healthTimeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: callTimeout,
		},
		healthTimeout: healthTimeout,
	}
}

func (c *HTTPClient) FederatedSearch(ctx context.Context, searchReq *domain.SearchRequest) (*domain.SearchResponse, error) {
	body, err := json.Marshal(searchReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	url := c.baseURL + "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Forward the request ID so the query is traceable across services.
	if requestID := ctx.Value(logger.RequestIDKey); requestID != nil {
		req.Header.Set("X-Request-ID", fmt.Sprint(requestID))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("search service returned status %d", resp.StatusCode)
	}

	var result domain.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return &result, nil
}

func (c *HTTPClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search service unhealthy: status %d", resp.StatusCode)
	}

	return nil
}
