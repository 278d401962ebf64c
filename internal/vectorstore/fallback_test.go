// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vectorstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hermes-search/hermes/internal/platform/retry"
)

func nilLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIsTransientStoreErrDetectsHTTPTransient(t *testing.T) {
	err := &retry.TransientError{StatusCode: 503, Err: errors.New("unavailable")}
	assert.True(t, isTransientStoreErr(err))
}

func TestIsTransientStoreErrDetectsGRPCTransient(t *testing.T) {
	err := status.Error(codes.Unavailable, "down")
	assert.True(t, isTransientStoreErr(err))
}

func TestIsTransientStoreErrRejectsFatal(t *testing.T) {
	assert.False(t, isTransientStoreErr(errors.New("boom")))
	assert.False(t, isTransientStoreErr(status.Error(codes.InvalidArgument, "bad filter")))
}

type stubStore struct {
	addErr   error
	addCalls int
}

func (s *stubStore) Add(ctx context.Context, vectors []Vector) error {
	s.addCalls++
	return s.addErr
}
func (s *stubStore) Query(ctx context.Context, query []float32, topK, offset int, filter Filter) ([]Match, error) {
	return nil, nil
}
func (s *stubStore) Size(ctx context.Context) (int, error) { return 0, nil }
func (s *stubStore) Close() error                          { return nil }

func TestRemoteFallsBackOnTransientPrimaryFailure(t *testing.T) {
	primary := &stubStore{addErr: &retry.TransientError{StatusCode: 503, Err: errors.New("down")}}
	fallback := &stubStore{}
	r := NewRemote(primary, fallback, nilLogger())

	err := r.Add(context.Background(), []Vector{{ID: "a"}})
	require.NoError(t, err)
	assert.Equal(t, 1, primary.addCalls)
	assert.Equal(t, 1, fallback.addCalls)
}

func TestRemoteDoesNotFallBackOnFatalError(t *testing.T) {
	primary := &stubStore{addErr: errors.New("bad request")}
	fallback := &stubStore{}
	r := NewRemote(primary, fallback, nilLogger())

	err := r.Add(context.Background(), []Vector{{ID: "a"}})
	assert.Error(t, err)
	assert.Equal(t, 0, fallback.addCalls)
}
