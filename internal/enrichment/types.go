// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package enrichment resolves missing TMDB/TPDB metadata before a batch is
embedded, grounded directly on the reference tmdb_enrich.py/tpdb_enrich.py
services: fetch-missing-or-stale refs, cap by max_per_batch, fetch + sleep
per call, normalize the payload, and UPSERT into a cache table carrying the
raw JSON blob alongside the normalized fields.
*/
package enrichment

import "time"

// Ref identifies one external-metadata lookup: TMDB keys by (type, id),
// TPDB by (content_type, content_source, content_id) collapsed into the
// same three-part key shape.
type Ref struct {
	ContentType   string
	ContentSource string
	ContentID     string
}

// Status is the outcome of the last lookup attempt for a Ref.
type Status string

const (
	StatusOK       Status = "ok"
	StatusNotFound Status = "not_found"
	StatusError    Status = "error"
)

// TMDBRecord is the normalized+raw TMDB metadata persisted to
// hermes.tmdb_cache.
type TMDBRecord struct {
	Ref          Ref
	IMDBID       string
	AKA          string
	Keywords     string
	Actors       string
	Directors    string
	Plot         string
	Genre        string
	IMDBRating   *float64
	DoubanRating *float64
	Raw          []byte
	Status       Status
	Message      string
	FetchedAt    time.Time
	ExpiresAt    time.Time
}

// TPDBRecord is the normalized+raw TPDB metadata persisted to
// hermes.tpdb_cache.
type TPDBRecord struct {
	Ref       Ref
	Code      string
	Title     string
	Raw       []byte
	Status    Status
	Message   string
	FetchedAt time.Time
	ExpiresAt time.Time
}

// IsFresh reports whether a cached record is still within its TTL.
func IsFresh(expiresAt time.Time, now time.Time) bool {
	return now.Before(expiresAt)
}
