// Package agent holds ports.Generator adapters. The code agent itself runs
// elsewhere; these only move requests and results.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
)

// maxResponseBytes bounds an agent response (fragments are source text).
const maxResponseBytes = 16 << 20

// HTTPGenerator POSTs the GenerationRequest as JSON to an agent endpoint and
// expects a GenerationOutput back.
type HTTPGenerator struct {
	client  *http.Client
	url     string
	headers map[string]string
}

// HTTPGeneratorOption configures HTTPGenerator.
type HTTPGeneratorOption func(*HTTPGenerator)

// WithClient sets the HTTP client (default: 5m timeout).
func WithClient(c *http.Client) HTTPGeneratorOption {
	return func(g *HTTPGenerator) {
		g.client = c
	}
}

// WithBearerToken authenticates to the agent endpoint.
func WithBearerToken(token string) HTTPGeneratorOption {
	return func(g *HTTPGenerator) {
		if token != "" {
			g.headers["Authorization"] = "Bearer " + token
		}
	}
}

func NewHTTPGenerator(url string, opts ...HTTPGeneratorOption) *HTTPGenerator {
	g := &HTTPGenerator{
		client:  &http.Client{Timeout: 5 * time.Minute},
		url:     url,
		headers: map[string]string{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate implements ports.Generator.
func (g *HTTPGenerator) Generate(ctx context.Context, req ports.GenerationRequest) (*ports.GenerationOutput, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.JobID)
	for k, v := range g.headers {
		httpReq.Header.Set(k, v)
	}
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	var out ports.GenerationOutput
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode agent response: %w", err)
	}
	return &out, nil
}

var _ ports.Generator = (*HTTPGenerator)(nil)
