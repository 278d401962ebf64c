// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAddAndQueryFindsNearest(t *testing.T) {
	store, err := NewLocal(LocalConfig{Dim: 2, Metric: "cosine"})
	require.NoError(t, err)

	err = store.Add(context.Background(), []Vector{
		{ID: "a", Embedding: []float32{1, 0}, Payload: Payload{Source: "movies", PGID: "a"}},
		{ID: "b", Embedding: []float32{0, 1}, Payload: Payload{Source: "movies", PGID: "b"}},
	})
	require.NoError(t, err)

	matches, err := store.Query(context.Background(), []float32{1, 0.01}, 1, 0, Filter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
}

func TestLocalAddRejectsDimensionMismatch(t *testing.T) {
	store, err := NewLocal(LocalConfig{Dim: 3})
	require.NoError(t, err)

	err = store.Add(context.Background(), []Vector{{ID: "a", Embedding: []float32{1, 0}}})
	var dimErr *ErrDimensionMismatch
	assert.ErrorAs(t, err, &dimErr)
}

func TestLocalAddEnforcesMaxElementsHardLimit(t *testing.T) {
	store, err := NewLocal(LocalConfig{Dim: 2, MaxElements: 1})
	require.NoError(t, err)

	require.NoError(t, store.Add(context.Background(), []Vector{{ID: "a", Embedding: []float32{1, 0}}}))

	err = store.Add(context.Background(), []Vector{{ID: "b", Embedding: []float32{0, 1}}})
	var maxErr *ErrMaxElements
	assert.ErrorAs(t, err, &maxErr)
}

func TestLocalAddAllowsUpdateWithoutGrowingPastMax(t *testing.T) {
	store, err := NewLocal(LocalConfig{Dim: 2, MaxElements: 1})
	require.NoError(t, err)

	require.NoError(t, store.Add(context.Background(), []Vector{{ID: "a", Embedding: []float32{1, 0}}}))
	// Re-adding the same id is an update, not growth, and must not hit
	// the max_elements error.
	err = store.Add(context.Background(), []Vector{{ID: "a", Embedding: []float32{0, 1}}})
	assert.NoError(t, err)

	size, err := store.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestLocalQueryFiltersByPayload(t *testing.T) {
	store, err := NewLocal(LocalConfig{Dim: 2})
	require.NoError(t, err)

	require.NoError(t, store.Add(context.Background(), []Vector{
		{ID: "a", Embedding: []float32{1, 0}, Payload: Payload{Source: "movies"}},
		{ID: "b", Embedding: []float32{1, 0.01}, Payload: Payload{Source: "tv"}},
	}))

	matches, err := store.Query(context.Background(), []float32{1, 0}, 5, 0, Filter{Source: "tv"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b", matches[0].ID)
}

func TestLocalSizeReflectsLazyDeleteNotGraphNodes(t *testing.T) {
	store, err := NewLocal(LocalConfig{Dim: 2})
	require.NoError(t, err)

	require.NoError(t, store.Add(context.Background(), []Vector{{ID: "a", Embedding: []float32{1, 0}}}))
	require.NoError(t, store.Add(context.Background(), []Vector{{ID: "a", Embedding: []float32{0, 1}}}))

	size, err := store.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestLocalAddPersistsToDiskWithoutExplicitFlush(t *testing.T) {
	path := t.TempDir() + "/index.bin"
	store, err := NewLocal(LocalConfig{Dim: 2, Path: path})
	require.NoError(t, err)

	require.NoError(t, store.Add(context.Background(), []Vector{
		{ID: "a", Embedding: []float32{1, 0}, Payload: Payload{Source: "movies", PGID: "a"}},
	}))

	assert.FileExists(t, path)
	assert.FileExists(t, path+".meta.gob")
}

func TestLocalReloadsPersistedGraphAfterClose(t *testing.T) {
	path := t.TempDir() + "/index.bin"
	store, err := NewLocal(LocalConfig{Dim: 2, Path: path})
	require.NoError(t, err)

	require.NoError(t, store.Add(context.Background(), []Vector{
		{ID: "a", Embedding: []float32{1, 0}, Payload: Payload{Source: "movies", PGID: "a"}},
	}))
	require.NoError(t, store.Close())

	reopened, err := NewLocal(LocalConfig{Dim: 2, Path: path})
	require.NoError(t, err)

	size, err := reopened.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	matches, err := reopened.Query(context.Background(), []float32{1, 0}, 1, 0, Filter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
}
