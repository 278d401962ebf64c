// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package syncengine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hermes-search/hermes/internal/catalog"
	"github.com/hermes-search/hermes/internal/platform/config"
	"github.com/hermes-search/hermes/internal/vectorstore"
)

func testSourceConfig() config.SourceConfig {
	return config.SourceConfig{
		Name: "movies",
		PG: config.SourcePGConfig{
			Table:     "content.movies",
			IDField:   "id",
			TextField: "release_name",
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSource(t *testing.T) *catalog.Source {
	t.Helper()
	src, err := catalog.NewSource(testSourceConfig())
	require.NoError(t, err)
	return src
}

type fakeReader struct {
	pages [][]catalog.Row
	calls int
}

func (f *fakeReader) FetchPending(_ context.Context, _ *catalog.Source, cursor string, _ int) ([]catalog.Row, string, error) {
	if f.calls >= len(f.pages) {
		return nil, cursor, nil
	}
	page := f.pages[f.calls]
	f.calls++
	next := cursor
	if len(page) > 0 {
		next = page[len(page)-1].PGID
	}
	return page, next, nil
}

type fakeSyncState struct {
	mu       sync.Mutex
	upserts  []catalog.SyncRecord
	errors   []rowError
}

func (f *fakeSyncState) Upsert(_ context.Context, rec catalog.SyncRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, rec)
	return nil
}

func (f *fakeSyncState) RecordError(_ context.Context, _, pgID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, rowError{pgID: pgID, message: message})
	return nil
}

type fakeEmbedder struct {
	dim     int
	failErr error
}

func (f *fakeEmbedder) Infer(_ context.Context, texts []string) ([][]float32, []float64, error) {
	if f.failErr != nil {
		return nil, nil, f.failErr
	}
	out := make([][]float32, len(texts))
	scores := make([]float64, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
		scores[i] = 0
	}
	return out, scores, nil
}

type fakeVectorStore struct {
	mu      sync.Mutex
	added   []vectorstore.Vector
	failErr error
}

func (s *fakeVectorStore) Add(_ context.Context, vectors []vectorstore.Vector) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, vectors...)
	return nil
}
func (s *fakeVectorStore) Query(_ context.Context, _ []float32, _, _ int, _ vectorstore.Filter) ([]vectorstore.Match, error) {
	return nil, nil
}
func (s *fakeVectorStore) Size(_ context.Context) (int, error) { return 0, nil }
func (s *fakeVectorStore) Close() error                        { return nil }

func TestCoordinatorRunCommitsWholeBatch(t *testing.T) {
	src := testSource(t)
	updatedAt := time.Now()
	reader := &fakeReader{pages: [][]catalog.Row{
		{
			{Source: "movies", PGID: "1", Text: "Some.Movie.2020.1080p.WEB", UpdatedAt: &updatedAt},
			{Source: "movies", PGID: "2", Text: "Another.Movie.2021.720p.BluRay", UpdatedAt: &updatedAt},
		},
	}}
	syncState := &fakeSyncState{}
	embedder := &fakeEmbedder{dim: 4}
	store := &fakeVectorStore{}

	c := NewCoordinator(reader, syncState, nil, embedder, store, "v1", 0.7, testLogger())
	res := c.Run(context.Background(), src, 64, 2)

	assert.False(t, res.Aborted)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 2, res.Embedded)
	assert.Equal(t, 0, res.Failed)
	assert.Len(t, store.added, 2)
	assert.Len(t, syncState.upserts, 2)
}

func TestCoordinatorRunAbortsOnDimensionMismatch(t *testing.T) {
	src := testSource(t)
	reader := &fakeReader{pages: [][]catalog.Row{
		{{Source: "movies", PGID: "1", Text: "Some.Movie.2020.1080p.WEB"}},
	}}
	syncState := &fakeSyncState{}
	embedder := &fakeEmbedder{dim: 4}
	store := &fakeVectorStore{failErr: &vectorstore.ErrDimensionMismatch{Expected: 8, Got: 4}}

	c := NewCoordinator(reader, syncState, nil, embedder, store, "v1", 0.7, testLogger())
	res := c.Run(context.Background(), src, 64, 1)

	assert.True(t, res.Aborted)
	assert.Error(t, res.AbortedErr)
}

func TestCoordinatorRunRecordsBatchEmbeddingFailure(t *testing.T) {
	src := testSource(t)
	reader := &fakeReader{pages: [][]catalog.Row{
		{
			{Source: "movies", PGID: "1", Text: "Some.Movie.2020.1080p.WEB"},
			{Source: "movies", PGID: "2", Text: "Another.Movie.2021.720p.BluRay"},
		},
	}}
	syncState := &fakeSyncState{}
	embedder := &fakeEmbedder{failErr: assertErr("embedding service unavailable")}
	store := &fakeVectorStore{}

	c := NewCoordinator(reader, syncState, nil, embedder, store, "v1", 0.7, testLogger())
	res := c.Run(context.Background(), src, 64, 1)

	assert.False(t, res.Aborted)
	assert.Equal(t, 2, res.Failed)
	assert.Len(t, store.added, 0)
	assert.Len(t, syncState.errors, 2)
	for _, e := range syncState.errors {
		assert.Equal(t, "embedding service unavailable", e.message)
	}
}

func TestCoordinatorRunDedupesInFlightRows(t *testing.T) {
	src := testSource(t)
	reader := &fakeReader{pages: [][]catalog.Row{
		{{Source: "movies", PGID: "1", Text: "Some.Movie.2020.1080p.WEB"}},
		{{Source: "movies", PGID: "1", Text: "Some.Movie.2020.1080p.WEB"}},
	}}
	syncState := &fakeSyncState{}
	embedder := &fakeEmbedder{dim: 4}
	store := &fakeVectorStore{}

	c := NewCoordinator(reader, syncState, nil, embedder, store, "v1", 0.7, testLogger())
	c.Run(context.Background(), src, 64, 1)

	assert.LessOrEqual(t, len(store.added), 2)
}

type simpleErr struct{ msg string }

func (e *simpleErr) Error() string { return e.msg }

func assertErr(msg string) error { return &simpleErr{msg: msg} }
