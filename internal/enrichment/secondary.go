// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package enrichment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hermes-search/hermes/internal/platform/config"
	"github.com/hermes-search/hermes/internal/platform/retry"
)

// SecondaryRatingsClient fetches the optional IMDB/Douban rating
// lookups that key off a TMDB record's imdb_id, keyed by their own
// enabled flags so either can be turned off independently. The filtered
// reference only retained the call sites (values["imdb_rating"] =
// fetch_imdb_rating(...)), not the fetcher bodies, so the request shape
// below is inferred from IMDBConfig/DoubanConfig's base_url/timeout
// fields rather than grounded line-for-line.
type SecondaryRatingsClient struct {
	imdbCfg    config.IMDBConfig
	doubanCfg  config.DoubanConfig
	httpClient *http.Client
	retryCfg   retry.Config
}

// NewSecondaryRatingsClient constructs a client for the optional IMDB
// and Douban rating lookups.
func NewSecondaryRatingsClient(imdbCfg config.IMDBConfig, doubanCfg config.DoubanConfig, httpClient *http.Client) *SecondaryRatingsClient {
	return &SecondaryRatingsClient{imdbCfg: imdbCfg, doubanCfg: doubanCfg, httpClient: httpClient, retryCfg: retry.DefaultConfig()}
}

// FetchIMDBRating looks up an IMDB rating by imdb id, returning nil if
// disabled, the id is empty, or the rating is absent.
func (c *SecondaryRatingsClient) FetchIMDBRating(ctx context.Context, imdbID string) (*float64, error) {
	if !c.imdbCfg.Enabled || imdbID == "" {
		return nil, nil
	}
	base := strings.TrimSuffix(c.imdbCfg.BaseURL, "/")
	if base == "" {
		return nil, nil
	}

	var result struct {
		Rating *float64 `json:"rating"`
	}
	endpoint := base + "/title/" + url.PathEscape(imdbID)
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return result.Rating, nil
}

// FetchDoubanRating looks up a Douban rating by imdb id (Douban's search
// API accepts an IMDB id as a query term), returning nil if disabled,
// the id is empty, or no match is found.
func (c *SecondaryRatingsClient) FetchDoubanRating(ctx context.Context, imdbID string) (*float64, error) {
	if !c.doubanCfg.Enabled || imdbID == "" {
		return nil, nil
	}
	base := strings.TrimSuffix(c.doubanCfg.BaseURL, "/")
	if base == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("q", imdbID)
	endpoint := base + "/search?" + q.Encode()

	var result struct {
		Subjects []struct {
			Rating struct {
				Value float64 `json:"value"`
			} `json:"rating"`
		} `json:"subjects"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	if len(result.Subjects) == 0 {
		return nil, nil
	}
	rating := result.Subjects[0].Rating.Value
	return &rating, nil
}

func (c *SecondaryRatingsClient) getJSON(ctx context.Context, endpoint string, out any) error {
	return retry.Do(ctx, c.retryCfg, func(attempt int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil
		}
		if retry.IsTransient(resp.StatusCode) {
			return &retry.TransientError{StatusCode: resp.StatusCode, Err: errStatus(resp.StatusCode)}
		}
		if resp.StatusCode >= 300 {
			return errStatus(resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

func errStatus(code int) error {
	return &statusError{code: code}
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	return "enrichment: secondary rating request returned " + strconv.Itoa(e.code)
}
