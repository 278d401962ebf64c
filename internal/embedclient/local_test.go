// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package embedclient

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEmbedderDeterministic(t *testing.T) {
	e := NewLocalEmbedder(64)
	a, err := e.Embed(context.Background(), []string{"The Matrix"})
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), []string{"The Matrix"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLocalEmbedderNormalized(t *testing.T) {
	e := NewLocalEmbedder(64)
	vecs, err := e.Embed(context.Background(), []string{"Horror movie with subtitles"})
	require.NoError(t, err)

	var sum float64
	for _, x := range vecs[0] {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestLocalEmbedderEmptyTextReturnsZeroVector(t *testing.T) {
	e := NewLocalEmbedder(32)
	vecs, err := e.Embed(context.Background(), []string{"   "})
	require.NoError(t, err)
	for _, x := range vecs[0] {
		assert.Equal(t, float32(0), x)
	}
}

func TestLocalEmbedderDifferentTextsDiffer(t *testing.T) {
	e := NewLocalEmbedder(128)
	vecs, err := e.Embed(context.Background(), []string{"Horror movie", "Comedy show"})
	require.NoError(t, err)
	assert.NotEqual(t, vecs[0], vecs[1])
}
