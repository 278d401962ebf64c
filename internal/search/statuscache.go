// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hermes-search/hermes/internal/catalog"
	"github.com/hermes-search/hermes/internal/enrichment"
)

// SourceStatus is one source's row in the GET /sync_status snapshot.
type SourceStatus struct {
	Source       string     `json:"source"`
	RecordCount  int        `json:"record_count"`
	ErrorCount   int        `json:"error_count"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
}

// StatusSnapshot is the full payload GET /sync_status serves, built by
// StatusCache's background refresher rather than computed per request.
type StatusSnapshot struct {
	Sources          []SourceStatus `json:"sources"`
	TMDBCacheCounts  map[string]int `json:"tmdb_cache_counts"`
	TPDBCacheCounts  map[string]int `json:"tpdb_cache_counts"`
	RefreshedAt      time.Time      `json:"refreshed_at"`
}

// StatusCache holds a periodically refreshed StatusSnapshot behind a
// sync.RWMutex: readers (the HTTP handler) take the read lock, and a single
// ticker-driven goroutine takes the write lock to swap in a freshly built
// snapshot, mirroring contextd's BackgroundScanner rather than recomputing
// the aggregate on every request.
type StatusCache struct {
	syncStates  *catalog.SyncStateStore
	enrichment  *enrichment.Store
	interval    time.Duration
	logger      *slog.Logger

	mu       sync.RWMutex
	snapshot StatusSnapshot

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewStatusCache builds a StatusCache with the given refresh interval,
// defaulting to 30 seconds when interval is non-positive.
func NewStatusCache(syncStates *catalog.SyncStateStore, enr *enrichment.Store, interval time.Duration, logger *slog.Logger) *StatusCache {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusCache{
		syncStates: syncStates,
		enrichment: enr,
		interval:   interval,
		logger:     logger,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start runs an immediate refresh, then refreshes on a fixed interval until
// ctx is canceled or Stop is called.
func (c *StatusCache) Start(ctx context.Context) {
	c.refresh(ctx)

	go func() {
		defer close(c.doneCh)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			case <-ticker.C:
				c.refresh(ctx)
			}
		}
	}()
}

// Stop halts the background refresher and waits for it to finish, used
// during graceful shutdown.
func (c *StatusCache) Stop() {
	close(c.stopCh)
	<-c.doneCh
}

// Snapshot returns the most recently refreshed status, or a zero-value
// snapshot if no refresh has completed yet.
func (c *StatusCache) Snapshot() StatusSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

func (c *StatusCache) refresh(ctx context.Context) {
	summaries, err := c.syncStates.Summaries(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "sync_status_refresh_failed", slog.Any("error", err))
		return
	}

	sources := make([]SourceStatus, 0, len(summaries))
	for _, s := range summaries {
		sources = append(sources, SourceStatus{
			Source:       s.Source,
			RecordCount:  s.RecordCount,
			ErrorCount:   s.ErrorCount,
			LastSyncedAt: s.LastSyncedAt,
		})
	}

	snapshot := StatusSnapshot{Sources: sources, RefreshedAt: time.Now()}

	if c.enrichment != nil {
		if counts, err := c.enrichment.CountsByStatus(ctx, "tmdb_cache"); err != nil {
			c.logger.WarnContext(ctx, "sync_status_tmdb_counts_failed", slog.Any("error", err))
		} else {
			snapshot.TMDBCacheCounts = statusCountsToStrings(counts)
		}
		if counts, err := c.enrichment.CountsByStatus(ctx, "tpdb_cache"); err != nil {
			c.logger.WarnContext(ctx, "sync_status_tpdb_counts_failed", slog.Any("error", err))
		} else {
			snapshot.TPDBCacheCounts = statusCountsToStrings(counts)
		}
	}

	c.mu.Lock()
	c.snapshot = snapshot
	c.mu.Unlock()
}

func statusCountsToStrings(counts map[enrichment.Status]int) map[string]int {
	out := make(map[string]int, len(counts))
	for status, n := range counts {
		out[string(status)] = n
	}
	return out
}
