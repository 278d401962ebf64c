// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hermes-search/hermes/internal/platform/config"
	"github.com/hermes-search/hermes/internal/platform/retry"
)

// tmdbTypePath maps this service's content_type values to TMDB's own path
// segments, mirroring the reference TMDB_TYPES table.
var tmdbTypePath = map[string]string{
	"movie":   "movie",
	"tv_show": "tv",
	"tv":      "tv",
}

// TMDBClient fetches raw payloads from the TMDB API.
type TMDBClient struct {
	cfg        config.TMDBConfig
	httpClient *http.Client
	retryCfg   retry.Config
}

// NewTMDBClient constructs a client bound to cfg; cfg.ResolveAPIKey()
// supplies the key from either the literal config value or api_key_env.
func NewTMDBClient(cfg config.TMDBConfig, httpClient *http.Client) *TMDBClient {
	return &TMDBClient{cfg: cfg, httpClient: httpClient, retryCfg: retry.DefaultConfig()}
}

// FetchPayload calls GET {base}/{type}/{id}?append_to_response=credits,keywords,alternative_titles.
func (c *TMDBClient) FetchPayload(ctx context.Context, ref Ref) (map[string]any, error) {
	tmdbType, ok := tmdbTypePath[ref.ContentType]
	if !ok {
		return nil, fmt.Errorf("enrichment: unsupported tmdb content type %q", ref.ContentType)
	}

	baseURL := strings.TrimSuffix(c.cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.themoviedb.org/3"
	}
	language := c.cfg.Language
	if language == "" {
		language = "zh-CN"
	}

	apiKey := c.cfg.ResolveAPIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("enrichment: missing TMDB API key")
	}

	q := url.Values{}
	q.Set("api_key", apiKey)
	q.Set("language", language)
	q.Set("append_to_response", "credits,keywords,alternative_titles")

	endpoint := fmt.Sprintf("%s/%s/%s?%s", baseURL, tmdbType, ref.ContentID, q.Encode())

	var payload map[string]any
	err := retry.Do(ctx, c.retryCfg, func(attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("enrichment: build tmdb request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("enrichment: tmdb request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return errNotFound
		}
		if retry.IsTransient(resp.StatusCode) {
			body, _ := io.ReadAll(resp.Body)
			return &retry.TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", string(body))}
		}
		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("enrichment: tmdb returned %d: %s", resp.StatusCode, string(body))
		}

		return json.NewDecoder(resp.Body).Decode(&payload)
	})

	return payload, err
}

var errNotFound = fmt.Errorf("enrichment: tmdb reference not found")

// IsNotFound reports whether err is the sentinel tmdb-404 error, used by
// the orchestrator to cache with the not_found TTL instead of the error
// path.
func IsNotFound(err error) bool {
	return err == errNotFound
}
