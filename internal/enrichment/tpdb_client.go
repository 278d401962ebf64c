// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hermes-search/hermes/internal/platform/config"
	"github.com/hermes-search/hermes/internal/platform/retry"
)

// DefaultTPDBEndpoint is used when neither a per-type nor a default
// endpoint is configured, mirroring the reference DEFAULT_ENDPOINT.
const DefaultTPDBEndpoint = "https://theporndb.net/graphql?type=JAV"

// TPDBQuery is the GraphQL request this client issues for one ref.
type TPDBQuery struct {
	TPDBType string
	Query    string
	Endpoint string
	// ResultPath dot-addresses the list of candidate items within the
	// decoded response, e.g. "data.searchScenes".
	ResultPath string
	Variables  map[string]any
}

// TPDBClient issues TPDB GraphQL searches. Unlike TMDB, TPDB has no fixed
// schema per content type; the caller supplies the query text and result
// path per tpdb_type from configuration, mirroring the reference's
// config-driven queries/result_paths tables.
type TPDBClient struct {
	cfg        config.TPDBConfig
	httpClient *http.Client
	retryCfg   retry.Config
}

// NewTPDBClient constructs a client bound to cfg.
func NewTPDBClient(cfg config.TPDBConfig, httpClient *http.Client) *TPDBClient {
	return &TPDBClient{cfg: cfg, httpClient: httpClient, retryCfg: retry.DefaultConfig()}
}

// BuildQuery resolves the query text, endpoint, and result path for a
// given tpdb_type from configuration, falling back to the unkeyed
// defaults when no per-type entry exists.
func (c *TPDBClient) BuildQuery(tpdbType string, variables map[string]any) (TPDBQuery, error) {
	query := c.cfg.Queries[tpdbType]
	if query == "" {
		query = c.cfg.Queries[""]
	}
	if query == "" {
		return TPDBQuery{}, fmt.Errorf("enrichment: tpdb.queries is required for type %q", tpdbType)
	}

	endpoint := c.cfg.Endpoints[tpdbType]
	if endpoint == "" {
		endpoint = c.cfg.Endpoint
	}
	if endpoint == "" {
		endpoint = DefaultTPDBEndpoint
	}

	resultPath := c.cfg.ResultPaths[tpdbType]
	if resultPath == "" {
		resultPath = c.cfg.ResultPaths[""]
	}

	return TPDBQuery{TPDBType: tpdbType, Query: query, Endpoint: endpoint, ResultPath: resultPath, Variables: variables}, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlResponse struct {
	Data   map[string]any   `json:"data"`
	Errors []map[string]any `json:"errors"`
}

// FetchPayload issues q against TPDB's GraphQL endpoint and returns the
// decoded "data" object.
func (c *TPDBClient) FetchPayload(ctx context.Context, q TPDBQuery) (map[string]any, error) {
	token := c.cfg.ResolveAPIToken()
	if token == "" {
		return nil, fmt.Errorf("enrichment: missing TPDB API token")
	}

	authHeader := c.cfg.AuthHeader
	if authHeader == "" {
		authHeader = "ApiKey"
	}
	headerValue := token
	if c.cfg.AuthPrefix != "" {
		headerValue = c.cfg.AuthPrefix + " " + token
	}

	body, err := json.Marshal(graphqlRequest{Query: q.Query, Variables: q.Variables})
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	err = retry.Do(ctx, c.retryCfg, func(attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.Endpoint, strings.NewReader(string(body)))
		if err != nil {
			return fmt.Errorf("enrichment: build tpdb request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(authHeader, headerValue)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("enrichment: tpdb request: %w", err)
		}
		defer resp.Body.Close()

		if retry.IsTransient(resp.StatusCode) {
			return &retry.TransientError{StatusCode: resp.StatusCode, Err: fmt.Errorf("tpdb returned %d", resp.StatusCode)}
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("enrichment: tpdb returned %d", resp.StatusCode)
		}

		var decoded graphqlResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return fmt.Errorf("enrichment: decode tpdb response: %w", err)
		}
		if len(decoded.Errors) > 0 {
			return fmt.Errorf("enrichment: tpdb graphql errors: %v", decoded.Errors)
		}
		payload = decoded.Data
		return nil
	})

	return payload, err
}
