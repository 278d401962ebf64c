// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package embedclient

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

func TestClientEmbedSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{0.1, 0.2}}})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	vecs, err := c.Embed(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2}}, vecs)
}

func TestClientRetriesTransientStatus(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	vecs, err := c.Embed(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}}, vecs)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestClientFailsFastOnNonTransientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Embed(context.Background(), []string{"hello"})
	assert.Error(t, err)
}

func TestClientRejectsOversizedBatch(t *testing.T) {
	c := New("http://unused", time.Second, WithMaxTexts(1))
	_, err := c.Embed(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestClientInfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/infer", r.URL.Path)
		_ = json.NewEncoder(w).Encode(inferResponse{
			Embeddings: [][]float32{{0.5}},
			NSFWScores: []float64{0.9},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	vecs, scores, err := c.Infer(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5}}, vecs)
	assert.Equal(t, []float64{0.9}, scores)
}
