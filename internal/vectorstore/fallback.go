// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vectorstore

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hermes-search/hermes/internal/platform/retry"
)

// Remote wraps a primary remote backend (cluster A or cluster B) with
// cluster B as its own built-in fallback path: a transient failure on
// the primary retries once against the raw HTTP store before the
// operation is reported as failed, per the store's documented failure
// clause. When the primary already is cluster B, fallback is a no-op
// (calling the same backend twice on the same transient error adds
// nothing).
type Remote struct {
	primary  Store
	fallback Store
	logger   *slog.Logger
}

// NewRemote constructs a Remote store. fallback may be nil, in which
// case transient primary failures are returned as-is.
func NewRemote(primary, fallback Store, logger *slog.Logger) *Remote {
	return &Remote{primary: primary, fallback: fallback, logger: logger}
}

func (r *Remote) Add(ctx context.Context, vectors []Vector) error {
	err := r.primary.Add(ctx, vectors)
	if err == nil || r.fallback == nil || !isTransientStoreErr(err) {
		return err
	}
	r.logger.WarnContext(ctx, "vectorstore_primary_add_failed_falling_back", slog.Any("error", err))
	return r.fallback.Add(ctx, vectors)
}

func (r *Remote) Query(ctx context.Context, query []float32, topK int, offset int, filter Filter) ([]Match, error) {
	matches, err := r.primary.Query(ctx, query, topK, offset, filter)
	if err == nil || r.fallback == nil || !isTransientStoreErr(err) {
		return matches, err
	}
	r.logger.WarnContext(ctx, "vectorstore_primary_query_failed_falling_back", slog.Any("error", err))
	return r.fallback.Query(ctx, query, topK, offset, filter)
}

func (r *Remote) Size(ctx context.Context) (int, error) {
	size, err := r.primary.Size(ctx)
	if err == nil || r.fallback == nil || !isTransientStoreErr(err) {
		return size, err
	}
	return r.fallback.Size(ctx)
}

func (r *Remote) Close() error {
	if r.fallback != nil {
		if err := r.fallback.Close(); err != nil {
			return err
		}
	}
	return r.primary.Close()
}

func isTransientStoreErr(err error) bool {
	var transient *retry.TransientError
	if errors.As(err, &transient) {
		return true
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
			return true
		}
	}
	return false
}

var _ Store = (*Remote)(nil)
