// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hermes-search/hermes/internal/platform/constants"
	"github.com/hermes-search/hermes/internal/platform/dberr"
)

// SyncRecord is one row of hermes.sync_state: the last known fingerprint
// the sync pipeline embedded for a given (source, pg_id).
type SyncRecord struct {
	Source           string
	PGID             string
	VectorID         string
	TextHash         string
	EmbeddingVersion string
	NSFWScore        float64
	UpdatedAt        *time.Time
	LastSyncedAt     time.Time
	LastError        string
}

// IsPending reports whether row should be (re)synced against rec, per the
// pending predicate: no prior record, or the source's updated_at advanced,
// or (no updated_at column at all) and the text_hash differs.
func IsPending(row Row, textHash string, rec *SyncRecord) bool {
	if rec == nil {
		return true
	}
	if row.UpdatedAt != nil {
		if rec.UpdatedAt == nil || row.UpdatedAt.After(*rec.UpdatedAt) {
			return true
		}
		return false
	}
	return rec.TextHash != textHash
}

// SyncStateStore persists sync fingerprints in the hermes schema this
// service owns, separate from the read-only catalog tables.
type SyncStateStore struct {
	pool *pgxpool.Pool
}

// NewSyncStateStore constructs a store bound to the hermes schema.
func NewSyncStateStore(pool *pgxpool.Pool) *SyncStateStore {
	return &SyncStateStore{pool: pool}
}

// EnsureSchema creates the hermes schema and sync_state table if absent.
// cmd/sync and cmd/search-server do not call it; they apply the migrations
// under internal/catalog/migrations at startup, which cover the same DDL.
func (s *SyncStateStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE SCHEMA IF NOT EXISTS `+constants.SchemaHermes+`;
		CREATE TABLE IF NOT EXISTS `+constants.SchemaHermes+`.sync_state (
			source         text NOT NULL,
			pg_id          text NOT NULL,
			vector_id      uuid NOT NULL,
			text_hash      text NOT NULL,
			embedding_version text NOT NULL DEFAULT '',
			nsfw_score     double precision NOT NULL DEFAULT 0,
			source_updated_at timestamptz,
			last_synced_at timestamptz NOT NULL,
			last_error     text NOT NULL DEFAULT '',
			PRIMARY KEY (source, pg_id)
		);
	`)
	if err != nil {
		return dberr.Wrap(err, "ensure sync_state schema")
	}
	return nil
}

// Fetch returns the sync record for one (source, pg_id), or nil if absent.
func (s *SyncStateStore) Fetch(ctx context.Context, source, pgID string) (*SyncRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT source, pg_id, vector_id, text_hash, embedding_version, nsfw_score, source_updated_at, last_synced_at, last_error
		FROM `+constants.SchemaHermes+`.sync_state
		WHERE source = $1 AND pg_id = $2
	`, source, pgID)

	var rec SyncRecord
	err := row.Scan(&rec.Source, &rec.PGID, &rec.VectorID, &rec.TextHash, &rec.EmbeddingVersion, &rec.NSFWScore, &rec.UpdatedAt, &rec.LastSyncedAt, &rec.LastError)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, dberr.Wrap(err, "fetch sync_state")
	}
	return &rec, nil
}

// FetchAll returns every sync record for a source, keyed by pg_id, in one
// round trip. The sync coordinator does not use it: its pending set comes
// from the SQL predicate in Reader.FetchPending.
func (s *SyncStateStore) FetchAll(ctx context.Context, source string) (map[string]*SyncRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT source, pg_id, vector_id, text_hash, embedding_version, nsfw_score, source_updated_at, last_synced_at, last_error
		FROM `+constants.SchemaHermes+`.sync_state
		WHERE source = $1
	`, source)
	if err != nil {
		return nil, dberr.Wrap(err, "fetch sync_state for source")
	}
	defer rows.Close()

	out := make(map[string]*SyncRecord)
	for rows.Next() {
		var rec SyncRecord
		if err := rows.Scan(&rec.Source, &rec.PGID, &rec.VectorID, &rec.TextHash, &rec.EmbeddingVersion, &rec.NSFWScore, &rec.UpdatedAt, &rec.LastSyncedAt, &rec.LastError); err != nil {
			return nil, dberr.Wrap(err, "scan sync_state row")
		}
		out[rec.PGID] = &rec
	}
	return out, rows.Err()
}

// Upsert records the fingerprint of a successfully embedded row. Committed
// only after the corresponding vector store write succeeds, so a crash
// between the two never advances sync_state past an unwritten vector.
func (s *SyncStateStore) Upsert(ctx context.Context, rec SyncRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+constants.SchemaHermes+`.sync_state
			(source, pg_id, vector_id, text_hash, embedding_version, nsfw_score, source_updated_at, last_synced_at, last_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), '')
		ON CONFLICT (source, pg_id) DO UPDATE SET
			vector_id = EXCLUDED.vector_id,
			text_hash = EXCLUDED.text_hash,
			embedding_version = EXCLUDED.embedding_version,
			nsfw_score = EXCLUDED.nsfw_score,
			source_updated_at = EXCLUDED.source_updated_at,
			last_synced_at = EXCLUDED.last_synced_at,
			last_error = ''
	`, rec.Source, rec.PGID, rec.VectorID, rec.TextHash, rec.EmbeddingVersion, rec.NSFWScore, rec.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "upsert sync_state")
	}
	return nil
}

// RecordError stamps a failed sync attempt without advancing text_hash, so
// the row is retried on the next pass instead of being skipped.
func (s *SyncStateStore) RecordError(ctx context.Context, source, pgID, message string) error {
	if len(message) > constants.LastErrorMaxLen {
		message = message[:constants.LastErrorMaxLen]
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+constants.SchemaHermes+`.sync_state (source, pg_id, vector_id, text_hash, last_synced_at, last_error)
		VALUES ($1, $2, '00000000-0000-0000-0000-000000000000', '', now(), $3)
		ON CONFLICT (source, pg_id) DO UPDATE SET last_error = EXCLUDED.last_error, last_synced_at = now()
	`, source, pgID, message)
	if err != nil {
		return dberr.Wrap(err, "record sync_state error")
	}
	return nil
}

// SourceSummary is one source's sync-state rollup, used to answer
// GET /sync_status without scanning every row on every request.
type SourceSummary struct {
	Source       string
	RecordCount  int
	ErrorCount   int
	LastSyncedAt *time.Time
}

// Summaries aggregates sync_state per source, used by the search-side
// status cache refresher rather than any per-request caller, since this
// is a full-table GROUP BY.
func (s *SyncStateStore) Summaries(ctx context.Context) ([]SourceSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT source, count(*), count(*) FILTER (WHERE last_error != ''), max(last_synced_at)
		FROM `+constants.SchemaHermes+`.sync_state
		GROUP BY source
		ORDER BY source
	`)
	if err != nil {
		return nil, dberr.Wrap(err, "summarize sync_state")
	}
	defer rows.Close()

	var out []SourceSummary
	for rows.Next() {
		var sum SourceSummary
		if err := rows.Scan(&sum.Source, &sum.RecordCount, &sum.ErrorCount, &sum.LastSyncedAt); err != nil {
			return nil, dberr.Wrap(err, "scan sync_state summary")
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a sync_state row, used when a source row disappears from
// the catalog and its vector must be retired.
func (s *SyncStateStore) Delete(ctx context.Context, source, pgID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM `+constants.SchemaHermes+`.sync_state WHERE source = $1 AND pg_id = $2
	`, source, pgID)
	if err != nil {
		return dberr.Wrap(err, "delete sync_state")
	}
	return nil
}
