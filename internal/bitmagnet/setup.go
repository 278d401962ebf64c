// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bitmagnet

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hermes-search/hermes/internal/platform/dberr"
	"github.com/hermes-search/hermes/internal/platform/sqlident"
)

// EnsureSchema creates the target schema when createSchema is set,
// otherwise fails if it does not already exist, grounded directly on
// bitmagnet_setup.py's ensure_schema.
//
// The schema name is a runtime-configured identifier (bitmagnet.schema),
// not one of the fixed names internal/catalog's golang-migrate migrations
// target, so this runs as a direct, sqlident-quoted statement instead of a
// migration file: a migration's SQL text is static, and this identifier
// is not known until config load.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, schema string, createSchema bool) error {
	quotedSchema, err := sqlident.Quote(schema)
	if err != nil {
		return fmt.Errorf("bitmagnet: schema: %w", err)
	}

	var exists bool
	err = pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`, schema).Scan(&exists)
	if err != nil {
		return dberr.Wrap(err, "check bitmagnet schema")
	}
	if exists {
		return nil
	}
	if !createSchema {
		return fmt.Errorf("bitmagnet: schema %q does not exist and create_schema is false", schema)
	}

	if _, err := pool.Exec(ctx, `CREATE SCHEMA IF NOT EXISTS `+quotedSchema); err != nil {
		return dberr.Wrap(err, "create bitmagnet schema")
	}
	return nil
}

// EnsureTables creates the tmdb_enrichment/tpdb_enrichment cache tables and
// the torrent_files_view/content_view views Bitmagnet's own search UI reads
// from, grounded directly on bitmagnet_setup.py's ensure_tmdb_table,
// ensure_tmdb_columns, ensure_tpdb_table, create_torrent_files_view, and
// create_content_view, translated statement-for-statement to pgx.
func EnsureTables(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	quotedSchema, err := sqlident.Quote(schema)
	if err != nil {
		return fmt.Errorf("bitmagnet: schema: %w", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + quotedSchema + `.tmdb_enrichment (
			content_type TEXT NOT NULL,
			tmdb_id TEXT NOT NULL,
			imdb_id TEXT,
			aka TEXT,
			keywords TEXT,
			actors TEXT,
			directors TEXT,
			plot TEXT,
			genre TEXT,
			imdb_rating DOUBLE PRECISION,
			douban_rating DOUBLE PRECISION,
			raw JSONB,
			updated_at TIMESTAMPTZ DEFAULT now(),
			PRIMARY KEY (content_type, tmdb_id)
		)`,
		`ALTER TABLE ` + quotedSchema + `.tmdb_enrichment
			ADD COLUMN IF NOT EXISTS imdb_id TEXT,
			ADD COLUMN IF NOT EXISTS imdb_rating DOUBLE PRECISION,
			ADD COLUMN IF NOT EXISTS douban_rating DOUBLE PRECISION`,
		`CREATE TABLE IF NOT EXISTS ` + quotedSchema + `.tpdb_enrichment (
			content_type TEXT NOT NULL,
			content_source TEXT NOT NULL,
			content_id TEXT NOT NULL,
			tpdb_id TEXT,
			external_type TEXT,
			title TEXT,
			original_title TEXT,
			aka TEXT,
			actors TEXT,
			tags TEXT,
			studio TEXT,
			series TEXT,
			site TEXT,
			release_date TEXT,
			plot TEXT,
			poster_url TEXT,
			match_method TEXT,
			match_score DOUBLE PRECISION,
			status TEXT,
			error_message TEXT,
			raw JSONB,
			updated_at TIMESTAMPTZ DEFAULT now(),
			PRIMARY KEY (content_type, content_source, content_id)
		)`,
		`CREATE INDEX IF NOT EXISTS tpdb_enrichment_tpdb_id_idx ON ` + quotedSchema + `.tpdb_enrichment (tpdb_id)`,
		`CREATE OR REPLACE VIEW ` + quotedSchema + `.torrent_files_view AS
		SELECT
			(encode(info_hash, 'hex') || ':' || index::text) AS file_id,
			info_hash, index, path, extension, size, created_at, updated_at
		FROM public.torrent_files`,
		`DROP VIEW IF EXISTS ` + quotedSchema + `.content_view`,
		contentViewSQL(quotedSchema),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return dberr.Wrap(err, "bitmagnet ensure tables")
		}
	}
	return nil
}

// contentViewSQL builds the content_view definition joining the catalog's
// own content table against this schema's tmdb_enrichment/tpdb_enrichment
// tables, exactly as bitmagnet_setup.py's create_content_view does.
func contentViewSQL(quotedSchema string) string {
	return `CREATE OR REPLACE VIEW ` + quotedSchema + `.content_view AS
		SELECT
			(c.type || ':' || c.source || ':' || c.id) AS content_uid,
			c.type, c.source, c.id, c.title, c.original_title, c.overview,
			c.adult, c.release_year, c.updated_at,
			CASE WHEN c.source = 'tmdb' THEN c.id ELSE NULL END AS tmdb_id,
			te.genre AS genre, te.keywords AS keywords,
			trim(both ' ' from concat_ws(' ',
				c.title, c.original_title, c.overview, c.release_year::text,
				string_agg(DISTINCT cc.name, ' ') FILTER (WHERE cc.name IS NOT NULL),
				CASE WHEN c.source = 'tmdb' THEN c.id ELSE NULL END,
				te.aka, te.keywords, te.actors, te.directors, te.plot, te.genre,
				je.title, je.original_title, je.aka, je.actors, je.tags,
				je.studio, je.series, je.site, je.release_date, je.plot
			)) AS search_text,
			te.aka AS aka, te.actors AS actors, te.directors AS directors,
			te.plot AS plot, te.imdb_id AS imdb_id,
			te.imdb_rating AS imdb_rating, te.douban_rating AS douban_rating,
			te.raw->>'poster_path' AS poster_path,
			te.raw->>'backdrop_path' AS backdrop_path,
			je.tpdb_id AS tpdb_id, je.title AS tpdb_title,
			je.original_title AS tpdb_original_title, je.aka AS tpdb_aka,
			je.actors AS tpdb_actors, je.tags AS tpdb_tags,
			je.studio AS tpdb_studio, je.series AS tpdb_series,
			je.site AS tpdb_site, je.release_date AS tpdb_release_date,
			je.plot AS tpdb_plot, je.poster_url AS tpdb_poster_url
		FROM public.content c
		LEFT JOIN public.content_collections_content ccc
			ON ccc.content_type = c.type AND ccc.content_source = c.source AND ccc.content_id = c.id
		LEFT JOIN public.content_collections cc
			ON cc.type = ccc.content_collection_type AND cc.source = ccc.content_collection_source AND cc.id = ccc.content_collection_id
		LEFT JOIN ` + quotedSchema + `.tmdb_enrichment te
			ON te.content_type = c.type AND te.tmdb_id = c.id AND c.source = 'tmdb'
		LEFT JOIN ` + quotedSchema + `.tpdb_enrichment je
			ON je.content_type = c.type AND je.content_source = c.source AND je.content_id = c.id
		GROUP BY
			c.type, c.source, c.id, c.title, c.original_title, c.overview,
			c.adult, c.release_year, c.updated_at, te.genre, te.keywords,
			te.aka, te.actors, te.directors, te.plot, te.imdb_id, te.imdb_rating,
			te.douban_rating, te.raw->>'poster_path', te.raw->>'backdrop_path',
			je.tpdb_id, je.title, je.original_title, je.aka, je.actors, je.tags,
			je.studio, je.series, je.site, je.release_date, je.plot, je.poster_url`
}
