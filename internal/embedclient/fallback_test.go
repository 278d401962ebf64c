// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package embedclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLocal struct {
	vecs [][]float32
	err  error
}

func (f *fakeLocal) Embed(_ context.Context, texts []string) ([][]float32, error) {
	return f.vecs, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFallbackUsesLocalOnSuccess(t *testing.T) {
	local := &fakeLocal{vecs: [][]float32{{1, 2}}}
	fb := NewFallbackEmbedder(local, New("http://unused", 0), discardLogger())

	vecs, err := fb.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}}, vecs)
}

func TestFallbackDemotesLocalErrorToRemote(t *testing.T) {
	local := &fakeLocal{err: errors.New("boom")}
	fb := NewFallbackEmbedder(local, New("http://unused", 0), discardLogger())

	// remote will fail too (unreachable host), but the point under test is
	// that the local error does not short-circuit the call with its own
	// error — it must be demoted and the remote attempted.
	_, err := fb.Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
	assert.NotContains(t, err.Error(), "boom")
}

func TestFallbackNoLocalGoesStraightToRemote(t *testing.T) {
	fb := NewFallbackEmbedder(nil, New("http://unused", 0), discardLogger())
	_, err := fb.Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
}
