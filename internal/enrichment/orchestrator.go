// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package enrichment

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hermes-search/hermes/internal/catalog"
	"github.com/hermes-search/hermes/internal/platform/config"
)

// Orchestrator runs the enrichment step of a sync batch: discover refs,
// drop ones already fresh in cache, cap by max_per_batch, fetch+normalize
// +cache each remaining ref with a sleep between calls, then hand the
// caller a rehydrated batch of catalog rows (the enrichment tables never
// feed search directly; the sync pipeline re-reads the source rows after
// enrichment completes, same as the reference's ensure_*_enrichment
// followed by a plain catalog re-select).
type Orchestrator struct {
	store      *Store
	tmdb       *TMDBClient
	tpdb       *TPDBClient
	secondary  *SecondaryRatingsClient
	tmdbCfg    config.TMDBConfig
	tpdbCfg    config.TPDBConfig
	logger     *slog.Logger
	reader     *catalog.Reader
}

// NewOrchestrator wires the TMDB/TPDB clients, their shared cache store,
// and the optional secondary ratings client into one enrichment step.
func NewOrchestrator(store *Store, tmdb *TMDBClient, tpdb *TPDBClient, secondary *SecondaryRatingsClient, tmdbCfg config.TMDBConfig, tpdbCfg config.TPDBConfig, reader *catalog.Reader, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{store: store, tmdb: tmdb, tpdb: tpdb, secondary: secondary, tmdbCfg: tmdbCfg, tpdbCfg: tpdbCfg, reader: reader, logger: logger}
}

// EnrichTMDB fetches and caches TMDB metadata for refs not already fresh
// in the cache, subject to tmdb.max_per_batch, then returns the rehydrated
// catalog rows for src so the caller can proceed straight to embedding.
func (o *Orchestrator) EnrichTMDB(ctx context.Context, src *catalog.Source, refs []Ref) ([]catalog.Row, error) {
	if !o.tmdbCfg.Enabled || !o.tmdbCfg.AutoEnrich || len(refs) == 0 {
		return nil, nil
	}

	now := time.Now()
	missing, err := o.store.FilterMissingOrStale(ctx, "tmdb_cache", refs, now)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return nil, nil
	}

	maxPerBatch := o.tmdbCfg.MaxPerBatch
	if maxPerBatch > 0 && len(missing) > maxPerBatch {
		missing = missing[:maxPerBatch]
	}

	successTTL := ttlDuration(o.tmdbCfg.SuccessTTLHours, 168)
	notFoundTTL := ttlDuration(o.tmdbCfg.NotFoundTTLHours, 720)
	sleep := sleepDuration(o.tmdbCfg.SleepSeconds)

	var pgIDs []string
	for _, ref := range missing {
		rec := o.fetchAndNormalizeTMDB(ctx, ref, now, successTTL, notFoundTTL)
		if err := o.store.UpsertTMDB(ctx, rec); err != nil {
			o.logger.WarnContext(ctx, "tmdb_cache_upsert_failed", slog.Any("error", err), slog.String("ref", ref.ContentID))
		}
		pgIDs = append(pgIDs, ref.ContentID)
		sleepCtx(ctx, sleep)
	}

	if o.reader == nil {
		return nil, nil
	}
	return o.reader.FetchByIDs(ctx, src, pgIDs)
}

func (o *Orchestrator) fetchAndNormalizeTMDB(ctx context.Context, ref Ref, now time.Time, successTTL, notFoundTTL time.Duration) TMDBRecord {
	payload, err := o.tmdb.FetchPayload(ctx, ref)
	if err != nil {
		if IsNotFound(err) {
			o.logger.InfoContext(ctx, "tmdb_not_found", slog.String("ref", ref.ContentID))
			return TMDBRecord{Ref: ref, Status: StatusNotFound, FetchedAt: now, ExpiresAt: now.Add(notFoundTTL)}
		}
		o.logger.WarnContext(ctx, "tmdb_fetch_failed", slog.Any("error", err), slog.String("ref", ref.ContentID))
		return TMDBRecord{Ref: ref, Status: StatusError, Message: err.Error(), FetchedAt: now, ExpiresAt: now.Add(notFoundTTL)}
	}

	rec := NormalizeTMDBPayload(payload, o.tmdbCfg.Limits)
	rec.Ref = ref
	rec.Status = StatusOK
	rec.FetchedAt = now
	rec.ExpiresAt = now.Add(successTTL)
	if raw, err := json.Marshal(payload); err == nil {
		rec.Raw = raw
	}

	if o.secondary != nil && rec.IMDBID != "" {
		if rating, err := o.secondary.FetchIMDBRating(ctx, rec.IMDBID); err == nil {
			rec.IMDBRating = rating
		}
		if rating, err := o.secondary.FetchDoubanRating(ctx, rec.IMDBID); err == nil {
			rec.DoubanRating = rating
		}
	}

	o.logger.InfoContext(ctx, "tmdb_enriched", slog.String("ref", ref.ContentID))
	return rec
}

// EnrichTPDB mirrors EnrichTMDB for the GraphQL-backed TPDB source. The
// caller supplies the tpdb_type and search variables per ref since, unlike
// TMDB, TPDB has no single fixed payload shape across content types.
func (o *Orchestrator) EnrichTPDB(ctx context.Context, src *catalog.Source, refs []Ref, tpdbType string, variablesFor func(Ref) map[string]any) ([]catalog.Row, error) {
	if !o.tpdbCfg.Enabled || !o.tpdbCfg.AutoEnrich || len(refs) == 0 {
		return nil, nil
	}

	now := time.Now()
	missing, err := o.store.FilterMissingOrStale(ctx, "tpdb_cache", refs, now)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return nil, nil
	}

	maxPerBatch := o.tpdbCfg.MaxPerBatch
	if maxPerBatch > 0 && len(missing) > maxPerBatch {
		missing = missing[:maxPerBatch]
	}

	successTTL := ttlDuration(o.tpdbCfg.CacheTTLHours, 168)
	notFoundTTL := ttlDuration(o.tpdbCfg.NotFoundTTLHours, 720)
	sleep := sleepDuration(o.tpdbCfg.SleepSeconds)

	var pgIDs []string
	for _, ref := range missing {
		variables := variablesFor(ref)
		rec := o.fetchAndNormalizeTPDB(ctx, ref, tpdbType, variables, now, successTTL, notFoundTTL)
		if err := o.store.UpsertTPDB(ctx, rec); err != nil {
			o.logger.WarnContext(ctx, "tpdb_cache_upsert_failed", slog.Any("error", err), slog.String("ref", ref.ContentID))
		}
		pgIDs = append(pgIDs, ref.ContentID)
		sleepCtx(ctx, sleep)
	}

	if o.reader == nil {
		return nil, nil
	}
	return o.reader.FetchByIDs(ctx, src, pgIDs)
}

func (o *Orchestrator) fetchAndNormalizeTPDB(ctx context.Context, ref Ref, tpdbType string, variables map[string]any, now time.Time, successTTL, notFoundTTL time.Duration) TPDBRecord {
	if o.tpdbCfg.RequireCode {
		if code, _ := variables["code"].(string); code == "" {
			return TPDBRecord{Ref: ref, Status: StatusNotFound, FetchedAt: now, ExpiresAt: now.Add(notFoundTTL)}
		}
	}

	query, err := o.tpdb.BuildQuery(tpdbType, variables)
	if err != nil {
		o.logger.WarnContext(ctx, "tpdb_query_build_failed", slog.Any("error", err), slog.String("ref", ref.ContentID))
		return TPDBRecord{Ref: ref, Status: StatusError, Message: err.Error(), FetchedAt: now, ExpiresAt: now.Add(notFoundTTL)}
	}

	payload, err := o.tpdb.FetchPayload(ctx, query)
	if err != nil {
		o.logger.WarnContext(ctx, "tpdb_fetch_failed", slog.Any("error", err), slog.String("ref", ref.ContentID))
		return TPDBRecord{Ref: ref, Status: StatusError, Message: err.Error(), FetchedAt: now, ExpiresAt: now.Add(notFoundTTL)}
	}

	items := ExtractItems(payload, query.ResultPath)
	if len(items) == 0 {
		o.logger.InfoContext(ctx, "tpdb_not_found", slog.String("ref", ref.ContentID))
		return TPDBRecord{Ref: ref, Status: StatusNotFound, FetchedAt: now, ExpiresAt: now.Add(notFoundTTL)}
	}

	code, _ := variables["code"].(string)
	title, _ := variables["raw_title"].(string)
	best, _, _ := PickBestItem(items, code, title)
	item := NormalizeTPDBItem(best)
	raw, _ := json.Marshal(best)

	o.logger.InfoContext(ctx, "tpdb_enriched", slog.String("ref", ref.ContentID))
	return TPDBRecord{
		Ref: ref, Code: item.TPDBID, Title: item.Title, Raw: raw,
		Status: StatusOK, FetchedAt: now, ExpiresAt: now.Add(successTTL),
	}
}

func ttlDuration(hours float64, fallback float64) time.Duration {
	if hours <= 0 {
		hours = fallback
	}
	return time.Duration(hours * float64(time.Hour))
}

func sleepDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return time.Second
	}
	return time.Duration(seconds * float64(time.Second))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
