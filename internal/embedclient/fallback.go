// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package embedclient

import (
	"context"
	"log/slog"
)

// FallbackEmbedder tries a local, in-process Embedder first and falls back
// to the remote GPU client on any local error. Grounded on the pack's
// embedder-factory fallback idiom, but narrowed to "fallback, not cache" as
// the spec requires: a local success is never reused for a later call, and
// a local failure is swallowed (logged) rather than surfaced, since the
// remote service is always authoritative.
type FallbackEmbedder struct {
	local  Embedder
	remote *Client
	logger *slog.Logger
}

// NewFallbackEmbedder wraps remote with an optional local embedder. local
// may be nil, in which case every call goes straight to remote.
func NewFallbackEmbedder(local Embedder, remote *Client, logger *slog.Logger) *FallbackEmbedder {
	return &FallbackEmbedder{local: local, remote: remote, logger: logger}
}

// Embed tries the local embedder first (if configured); any local error is
// logged and demoted, and the call falls through to the remote client.
func (f *FallbackEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.local != nil {
		vectors, err := f.local.Embed(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		f.logger.WarnContext(ctx, "local_embedder_failed_falling_back", slog.Any("error", err))
	}
	return f.remote.Embed(ctx, texts)
}

// Infer always goes through the remote client: NSFW scoring is not
// something the optional local embedder is expected to provide.
func (f *FallbackEmbedder) Infer(ctx context.Context, texts []string) ([][]float32, []float64, error) {
	return f.remote.Infer(ctx, texts)
}
