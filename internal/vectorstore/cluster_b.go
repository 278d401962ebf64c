// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hermes-search/hermes/internal/platform/retry"
)

// ClusterBConfig configures the raw HTTP columnar vector store backend.
type ClusterBConfig struct {
	URI            string
	Dim            int
	Metric         string
	TimeoutSeconds float64
}

// ClusterB is a raw HTTP columnar-store client, built in the same shape
// as embedclient.Client and enrichment.TMDBClient: a typed client over
// *http.Client, requests wrapped in the shared retry primitive, and
// transient statuses classified via retry.IsTransient. It is also the
// store's own built-in fallback target when a remote backend errors
// transiently.
type ClusterB struct {
	baseURL    string
	dim        int
	httpClient *http.Client
	retryCfg   retry.Config
}

// NewClusterB constructs a ClusterB client bound to cfg.
func NewClusterB(cfg ClusterBConfig) *ClusterB {
	timeout := time.Duration(cfg.TimeoutSeconds * float64(time.Second))
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ClusterB{
		baseURL:    strings.TrimSuffix(cfg.URI, "/"),
		dim:        cfg.Dim,
		httpClient: &http.Client{Timeout: timeout},
		retryCfg:   retry.DefaultConfig(),
	}
}

type wireVector struct {
	ID        string   `json:"id"`
	Embedding []float32 `json:"embedding"`
	Payload   Payload   `json:"payload"`
}

type addRequest struct {
	Vectors []wireVector `json:"vectors"`
}

type queryRequest struct {
	Query  []float32 `json:"query"`
	TopK   int       `json:"top_k"`
	Offset int       `json:"offset"`
	Filter Filter    `json:"filter"`
}

type queryResponse struct {
	Matches []struct {
		ID      string  `json:"id"`
		Score   float32 `json:"score"`
		Payload Payload `json:"payload"`
	} `json:"matches"`
}

type sizeResponse struct {
	Size int `json:"size"`
}

func (c *ClusterB) Add(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	for _, v := range vectors {
		if len(v.Embedding) != c.dim {
			return &ErrDimensionMismatch{Expected: c.dim, Got: len(v.Embedding)}
		}
	}

	req := addRequest{Vectors: make([]wireVector, len(vectors))}
	for i, v := range vectors {
		req.Vectors[i] = wireVector{ID: v.ID, Embedding: v.Embedding, Payload: v.Payload}
	}

	return c.postJSON(ctx, "/vectors:add", req, nil)
}

func (c *ClusterB) Query(ctx context.Context, query []float32, topK int, offset int, filter Filter) ([]Match, error) {
	if len(query) != c.dim {
		return nil, &ErrDimensionMismatch{Expected: c.dim, Got: len(query)}
	}

	var resp queryResponse
	if err := c.postJSON(ctx, "/vectors:query", queryRequest{Query: query, TopK: topK, Offset: offset, Filter: filter}, &resp); err != nil {
		return nil, err
	}

	matches := make([]Match, len(resp.Matches))
	for i, m := range resp.Matches {
		matches[i] = Match{ID: m.ID, Score: m.Score, Payload: m.Payload}
	}
	return matches, nil
}

func (c *ClusterB) Size(ctx context.Context) (int, error) {
	var resp sizeResponse
	if err := c.postJSON(ctx, "/vectors:size", struct{}{}, &resp); err != nil {
		return 0, err
	}
	return resp.Size, nil
}

func (c *ClusterB) Close() error {
	return nil
}

func (c *ClusterB) postJSON(ctx context.Context, path string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	return retry.Do(ctx, c.retryCfg, func(attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("vectorstore: build cluster_b request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("vectorstore: cluster_b request: %w", err)
		}
		defer resp.Body.Close()

		if retry.IsTransient(resp.StatusCode) {
			respBytes, _ := io.ReadAll(resp.Body)
			return &retry.TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", string(respBytes))}
		}
		if resp.StatusCode >= 300 {
			respBytes, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("vectorstore: cluster_b returned %d: %s", resp.StatusCode, string(respBytes))
		}
		if respBody == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(respBody)
	})
}

var _ Store = (*ClusterB)(nil)
