// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package embedclient talks to the GPU embedding/NSFW-inference service over
HTTP, grounded directly on the reference GPUClient's two-endpoint shape
(POST /embed, POST /infer). Its retry behavior reuses the shared
internal/platform/retry primitive instead of the reference's bare
raise_for_status, since every outbound HTTP client in this service retries
transient 502/503/504 responses the same way.
*/
package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hermes-search/hermes/internal/platform/retry"
)

// Embedder is satisfied by both the remote GPU client and an optional
// in-process local embedder, letting FallbackEmbedder try the local
// implementation first without importing a concrete type.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Inferer additionally returns NSFW scores alongside embeddings; only the
// remote GPU service implements this today.
type Inferer interface {
	Infer(ctx context.Context, texts []string) ([][]float32, []float64, error)
}

// Client is the remote GPU embedding/inference HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retryCfg   retry.Config
	maxTexts   int
}

// Option customizes a Client at construction time.
type Option func(*Client)

// WithHTTPClient overrides the default *http.Client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxTexts caps how many texts a single Embed/Infer call accepts,
// matching the spec's "input length capped at a configured max".
func WithMaxTexts(n int) Option {
	return func(c *Client) { c.maxTexts = n }
}

// New constructs a remote embedding client bound to baseURL (the
// gpu_endpoint config key), with timeout as the per-call HTTP timeout
// (zero means no timeout).
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		httpClient: &http.Client{Timeout: timeout},
		retryCfg: retry.DefaultConfig(),
		maxTexts: 256,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type inferResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	NSFWScores []float64   `json:"nsfw_scores"`
}

// Embed calls POST {base}/embed, normalizing the returned vectors is the
// server's responsibility (the spec requires cosine-ready output).
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := c.checkSize(texts); err != nil {
		return nil, err
	}
	var out embedResponse
	if err := c.postJSON(ctx, "/embed", embedRequest{Texts: texts}, &out); err != nil {
		return nil, err
	}
	return out.Embeddings, nil
}

// Infer calls POST {base}/infer, returning embeddings and per-text NSFW
// scores in the same response.
func (c *Client) Infer(ctx context.Context, texts []string) ([][]float32, []float64, error) {
	if err := c.checkSize(texts); err != nil {
		return nil, nil, err
	}
	var out inferResponse
	if err := c.postJSON(ctx, "/infer", embedRequest{Texts: texts}, &out); err != nil {
		return nil, nil, err
	}
	return out.Embeddings, out.NSFWScores, nil
}

func (c *Client) checkSize(texts []string) error {
	if c.maxTexts > 0 && len(texts) > c.maxTexts {
		return fmt.Errorf("embedclient: batch of %d texts exceeds max %d", len(texts), c.maxTexts)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("embedclient: marshal request: %w", err)
	}

	return retry.Do(ctx, c.retryCfg, func(attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("embedclient: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("embedclient: request %s: %w", path, err)
		}
		defer resp.Body.Close()

		if retry.IsTransient(resp.StatusCode) {
			body, _ := io.ReadAll(resp.Body)
			return &retry.TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", string(body))}
		}
		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("embedclient: %s returned %d: %s", path, resp.StatusCode, string(body))
		}

		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("embedclient: decode response: %w", err)
		}
		return nil
	})
}
