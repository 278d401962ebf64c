// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package enrichment

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hermes-search/hermes/internal/platform/constants"
	"github.com/hermes-search/hermes/internal/platform/dberr"
)

// Store persists TMDB/TPDB enrichment results in the hermes schema,
// grounded on the reference services' ensure/filter/upsert steps but
// collapsed into one cache shape shared by both backends (cache_key,
// payload jsonb, found, fetched_at, expires_at) instead of two bespoke
// tables, since the only per-backend difference is the normalized field
// set already captured in TMDBRecord/TPDBRecord.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store bound to the hermes schema's cache tables.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// cacheKey joins a Ref into the single-column primary key used by both
// cache tables.
func cacheKey(ref Ref) string {
	if ref.ContentSource != "" {
		return ref.ContentType + ":" + ref.ContentSource + ":" + ref.ContentID
	}
	return ref.ContentType + ":" + ref.ContentID
}

// FilterMissingOrStale returns the subset of refs with no cache entry, or
// an entry whose TTL (success or not-found, matched by its found flag) has
// elapsed.
func (s *Store) FilterMissingOrStale(ctx context.Context, table string, refs []Ref, now time.Time) ([]Ref, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(refs))
	byKey := make(map[string]Ref, len(refs))
	for i, r := range refs {
		k := cacheKey(r)
		keys[i] = k
		byKey[k] = r
	}

	rows, err := s.pool.Query(ctx, `
		SELECT cache_key, expires_at FROM `+constants.SchemaHermes+`.`+table+`
		WHERE cache_key = ANY($1)
	`, keys)
	if err != nil {
		return nil, dberr.Wrap(err, "filter enrichment cache")
	}
	defer rows.Close()

	fresh := make(map[string]bool, len(keys))
	for rows.Next() {
		var key string
		var expiresAt time.Time
		if err := rows.Scan(&key, &expiresAt); err != nil {
			return nil, dberr.Wrap(err, "scan enrichment cache row")
		}
		if IsFresh(expiresAt, now) {
			fresh[key] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "iterate enrichment cache rows")
	}

	var missing []Ref
	for _, k := range keys {
		if !fresh[k] {
			missing = append(missing, byKey[k])
		}
	}
	return missing, nil
}

// CountsByStatus returns the number of cache rows per Status in table,
// used by the search-side status cache to report enrichment counters
// alongside sync-state per GET /sync_status. The cache tables keep only a
// found flag, so rows count as StatusOK or StatusNotFound; error outcomes
// are stored with found=false and are counted under StatusNotFound.
func (s *Store) CountsByStatus(ctx context.Context, table string) (map[Status]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT CASE WHEN found THEN 'ok' ELSE 'not_found' END, count(*)
		FROM `+constants.SchemaHermes+`.`+table+` GROUP BY 1
	`)
	if err != nil {
		return nil, dberr.Wrap(err, "count enrichment cache by status")
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, dberr.Wrap(err, "scan enrichment cache status count")
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

// UpsertTMDB persists a successful or not-found TMDB lookup result.
func (s *Store) UpsertTMDB(ctx context.Context, rec TMDBRecord) error {
	payload, err := json.Marshal(struct {
		IMDBID       string          `json:"imdb_id"`
		AKA          string          `json:"aka"`
		Keywords     string          `json:"keywords"`
		Actors       string          `json:"actors"`
		Directors    string          `json:"directors"`
		Plot         string          `json:"plot"`
		Genre        string          `json:"genre"`
		IMDBRating   *float64        `json:"imdb_rating,omitempty"`
		DoubanRating *float64        `json:"douban_rating,omitempty"`
		Raw          json.RawMessage `json:"raw,omitempty"`
	}{rec.IMDBID, rec.AKA, rec.Keywords, rec.Actors, rec.Directors, rec.Plot, rec.Genre, rec.IMDBRating, rec.DoubanRating, rec.Raw})
	if err != nil {
		return err
	}

	_, execErr := s.pool.Exec(ctx, `
		INSERT INTO `+constants.SchemaHermes+`.tmdb_cache (cache_key, payload, found, fetched_at, expires_at)
		VALUES ($1, $2::jsonb, $3, $4, $5)
		ON CONFLICT (cache_key) DO UPDATE SET
			payload = EXCLUDED.payload, found = EXCLUDED.found,
			fetched_at = EXCLUDED.fetched_at, expires_at = EXCLUDED.expires_at
	`, cacheKey(rec.Ref), payload, rec.Status == StatusOK, rec.FetchedAt, rec.ExpiresAt)
	if execErr != nil {
		return dberr.Wrap(execErr, "upsert tmdb cache")
	}
	return nil
}

// UpsertTPDB persists a successful or not-found TPDB lookup result.
func (s *Store) UpsertTPDB(ctx context.Context, rec TPDBRecord) error {
	payload, err := json.Marshal(struct {
		Code  string          `json:"code"`
		Title string          `json:"title"`
		Raw   json.RawMessage `json:"raw,omitempty"`
	}{rec.Code, rec.Title, rec.Raw})
	if err != nil {
		return err
	}

	_, execErr := s.pool.Exec(ctx, `
		INSERT INTO `+constants.SchemaHermes+`.tpdb_cache (cache_key, payload, found, fetched_at, expires_at)
		VALUES ($1, $2::jsonb, $3, $4, $5)
		ON CONFLICT (cache_key) DO UPDATE SET
			payload = EXCLUDED.payload, found = EXCLUDED.found,
			fetched_at = EXCLUDED.fetched_at, expires_at = EXCLUDED.expires_at
	`, cacheKey(rec.Ref), payload, rec.Status == StatusOK, rec.FetchedAt, rec.ExpiresAt)
	if execErr != nil {
		return dberr.Wrap(execErr, "upsert tpdb cache")
	}
	return nil
}

// FetchTMDB returns the cached TMDB normalized fields for a ref, or
// (nil, nil) if absent.
func (s *Store) FetchTMDB(ctx context.Context, ref Ref) (*TMDBRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT payload, found, fetched_at, expires_at FROM `+constants.SchemaHermes+`.tmdb_cache
		WHERE cache_key = $1
	`, cacheKey(ref))

	var (
		payload   []byte
		found     bool
		fetchedAt time.Time
		expiresAt time.Time
	)
	if err := row.Scan(&payload, &found, &fetchedAt, &expiresAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, dberr.Wrap(err, "fetch tmdb cache")
	}

	var fields struct {
		IMDBID       string   `json:"imdb_id"`
		AKA          string   `json:"aka"`
		Keywords     string   `json:"keywords"`
		Actors       string   `json:"actors"`
		Directors    string   `json:"directors"`
		Plot         string   `json:"plot"`
		Genre        string   `json:"genre"`
		IMDBRating   *float64 `json:"imdb_rating,omitempty"`
		DoubanRating *float64 `json:"douban_rating,omitempty"`
	}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}

	status := StatusOK
	if !found {
		status = StatusNotFound
	}

	return &TMDBRecord{
		Ref: ref, IMDBID: fields.IMDBID, AKA: fields.AKA, Keywords: fields.Keywords, Actors: fields.Actors,
		Directors: fields.Directors, Plot: fields.Plot, Genre: fields.Genre,
		IMDBRating: fields.IMDBRating, DoubanRating: fields.DoubanRating,
		Status: status, FetchedAt: fetchedAt, ExpiresAt: expiresAt,
	}, nil
}

// ListRecentTMDB returns the most recently fetched successful tmdb_cache
// rows, newest first, backing GET /tmdb_latest.
func (s *Store) ListRecentTMDB(ctx context.Context, limit int) ([]TMDBRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT cache_key, payload, fetched_at, expires_at FROM `+constants.SchemaHermes+`.tmdb_cache
		WHERE found
		ORDER BY fetched_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "list recent tmdb cache")
	}
	defer rows.Close()

	var out []TMDBRecord
	for rows.Next() {
		var (
			key                  string
			payload              []byte
			fetchedAt, expiresAt time.Time
		)
		if err := rows.Scan(&key, &payload, &fetchedAt, &expiresAt); err != nil {
			return nil, dberr.Wrap(err, "scan recent tmdb cache row")
		}

		var fields struct {
			IMDBID       string   `json:"imdb_id"`
			AKA          string   `json:"aka"`
			Keywords     string   `json:"keywords"`
			Actors       string   `json:"actors"`
			Directors    string   `json:"directors"`
			Plot         string   `json:"plot"`
			Genre        string   `json:"genre"`
			IMDBRating   *float64 `json:"imdb_rating,omitempty"`
			DoubanRating *float64 `json:"douban_rating,omitempty"`
		}
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, err
		}

		out = append(out, TMDBRecord{
			IMDBID: fields.IMDBID, AKA: fields.AKA, Keywords: fields.Keywords, Actors: fields.Actors,
			Directors: fields.Directors, Plot: fields.Plot, Genre: fields.Genre,
			IMDBRating: fields.IMDBRating, DoubanRating: fields.DoubanRating,
			Status: StatusOK, FetchedAt: fetchedAt, ExpiresAt: expiresAt,
		})
	}
	return out, rows.Err()
}

// MatchExpansionTerms scans hermes.tmdb_cache for rows whose alternate
// titles or keywords overlap query, and returns every comma-separated
// token from those fields with a weight equal to the number of matched
// rows it appeared in, capped at limit entries ordered by weight then by
// first appearance. Used by internal/queryrewrite to bound catalog-derived
// query expansion the same way the reference expander bounds it.
func (s *Store) MatchExpansionTerms(ctx context.Context, query string, limit int) (map[string]int, error) {
	if query == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT payload->>'aka', payload->>'keywords' FROM `+constants.SchemaHermes+`.tmdb_cache
		WHERE found AND (payload->>'aka' ILIKE '%'||$1||'%' OR payload->>'keywords' ILIKE '%'||$1||'%')
		LIMIT $2
	`, query, limit*4)
	if err != nil {
		return nil, dberr.Wrap(err, "match expansion terms")
	}
	defer rows.Close()

	counts := make(map[string]int)
	var order []string
	for rows.Next() {
		var aka, keywords string
		if err := rows.Scan(&aka, &keywords); err != nil {
			return nil, dberr.Wrap(err, "scan expansion term row")
		}
		for _, tok := range splitCSVTokens(aka) {
			if _, seen := counts[tok]; !seen {
				order = append(order, tok)
			}
			counts[tok]++
		}
		for _, tok := range splitCSVTokens(keywords) {
			if _, seen := counts[tok]; !seen {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "iterate expansion term rows")
	}

	if len(order) <= limit {
		terms := make(map[string]int, len(order))
		for _, tok := range order {
			terms[tok] = counts[tok]
		}
		return terms, nil
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	terms := make(map[string]int, limit)
	for _, tok := range order[:limit] {
		terms[tok] = counts[tok]
	}
	return terms, nil
}

func splitCSVTokens(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}
