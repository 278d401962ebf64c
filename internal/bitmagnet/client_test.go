// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bitmagnet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchTorrentsParsesTorrentsEdgesShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"torrents": map[string]any{
					"totalCount": 1,
					"edges": []any{
						map[string]any{"node": map[string]any{
							"infoHash": "abc123", "name": "Some.Movie.2020", "size": 123456.0,
							"content": map[string]any{"type": "movie", "title": "Some Movie", "releaseYear": 2020.0},
						}},
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	res, err := c.SearchTorrents(context.Background(), "some movie", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalCount)
	require.Len(t, res.Torrents, 1)
	assert.Equal(t, "abc123", res.Torrents[0].InfoHash)
	assert.Equal(t, "Some Movie", res.Torrents[0].ContentTitle)
}

func TestSearchTorrentsFallsBackToSearchResultsShape(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			// first variant's field is absent from this deployment's schema.
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"search": map[string]any{
					"totalCount": 1,
					"results": []any{
						map[string]any{"infoHash": "def456", "name": "Another.Movie"},
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	res, err := c.SearchTorrents(context.Background(), "another movie", 10)
	require.NoError(t, err)
	require.Len(t, res.Torrents, 1)
	assert.Equal(t, "def456", res.Torrents[0].InfoHash)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSearchTorrentsFailsOn422(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("bad query"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.SearchTorrents(context.Background(), "x", 10)
	assert.Error(t, err)
}

func TestSearchTorrentsRetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"torrents": map[string]any{"totalCount": 0, "edges": []any{}},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	res, err := c.SearchTorrents(context.Background(), "x", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalCount)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestSearchTorrentsGraphQLErrorsIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"message": "field not found"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.SearchTorrents(context.Background(), "x", 10)
	assert.Error(t, err)
}
