// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vectorstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hermes-search/hermes/internal/platform/config"
)

// New selects and constructs the configured Store backend. "local" opens
// an in-process HNSW graph; "cluster_a" and "cluster_b" dial the
// respective remote backend, with cluster_a additionally wrapped in a
// Remote that falls back to a cluster_b instance on transient failure
// when cfg.URI is also set.
func New(ctx context.Context, cfg config.VectorStoreConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "local", "":
		return NewLocal(LocalConfig{
			Path:           cfg.Path,
			Dim:            cfg.Dim,
			Metric:         cfg.Metric,
			MaxElements:    cfg.MaxElements,
			M:              cfg.M,
			EfConstruction: cfg.EfConstruction,
			EfSearch:       cfg.EfSearch,
		})
	case "cluster_a":
		primary, err := NewClusterA(ctx, ClusterAConfig{
			URL: cfg.URL, Collection: cfg.Collection, Dim: cfg.Dim, Metric: cfg.Metric, TimeoutSeconds: cfg.TimeoutSeconds,
		})
		if err != nil {
			return nil, err
		}
		if cfg.URI == "" {
			return primary, nil
		}
		fallback := NewClusterB(ClusterBConfig{URI: cfg.URI, Dim: cfg.Dim, Metric: cfg.Metric, TimeoutSeconds: cfg.TimeoutSeconds})
		return NewRemote(primary, fallback, logger), nil
	case "cluster_b":
		return NewClusterB(ClusterBConfig{URI: cfg.URI, Dim: cfg.Dim, Metric: cfg.Metric, TimeoutSeconds: cfg.TimeoutSeconds}), nil
	default:
		return nil, fmt.Errorf("vectorstore: unknown vector_store.type %q", cfg.Type)
	}
}
