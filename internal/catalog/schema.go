// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package catalog reads the source-of-truth content tables the search index is
built from. Unlike the teacher's fixed, hand-written schema.CoreComicTable
structs (one Go type per table, known at compile time), every table here is
declared in config.SourceConfig at runtime, so a Source is assembled by
validating and quoting the configured identifiers once at startup rather
than by a generated constant. Column names still flow through sqlident.Quote
before they ever touch a query string; values are always bound parameters.
*/
package catalog

import (
	"fmt"

	"github.com/hermes-search/hermes/internal/platform/config"
	"github.com/hermes-search/hermes/internal/platform/sqlident"
)

// Join is a validated, quoted LEFT JOIN used when hydrating extra fields.
type Join struct {
	Table     string
	OnLocal   string
	OnForeign string
	SelectAs  string
	Column    string
	Aggregate bool
}

// Source is a validated, quote-ready projection of one SourceConfig. It is
// built once at startup by NewSource and reused for every query against that
// table; a startup-time validation failure fails the process instead of
// leaking an unsafe identifier onto a query string built per request.
type Source struct {
	Name string

	Table          string
	IDCol          string
	TextCol        string
	UpdatedAtCol   string
	SizeCol        string
	ExtraCols      []string
	KeywordCols      []string
	KeywordSearch    bool
	KeywordNormalize bool
	Joins            []Join
	Where          string
	TMDBEnrich     bool
	TPDBEnrich     bool
	TMDBOnlyCol    string
	NSFWTag        bool

	TMDBTypeField          string
	TMDBIDField            string
	TPDBTypeField          string
	TPDBContentTypeField   string
	TPDBContentSourceField string
	TPDBContentIDField     string
}

// NewSource validates and quotes every identifier named in a SourceConfig,
// returning an error that names the offending source instead of panicking,
// so the caller (cmd/sync, cmd/search-server) can fail the process with a
// clear message at startup.
func NewSource(cfg config.SourceConfig) (*Source, error) {
	table, err := sqlident.QuoteQualified(cfg.PG.Table)
	if err != nil {
		return nil, fmt.Errorf("source %q: table: %w", cfg.Name, err)
	}
	idCol, err := sqlident.Quote(cfg.PG.IDField)
	if err != nil {
		return nil, fmt.Errorf("source %q: id_field: %w", cfg.Name, err)
	}
	textCol, err := sqlident.Quote(cfg.PG.TextField)
	if err != nil {
		return nil, fmt.Errorf("source %q: text_field: %w", cfg.Name, err)
	}

	src := &Source{
		Name:             cfg.Name,
		Table:            table,
		IDCol:            idCol,
		TextCol:          textCol,
		KeywordSearch:    cfg.PG.KeywordSearch,
		KeywordNormalize: cfg.PG.KeywordNormalize,
		Where:            cfg.PG.Where,
		TMDBEnrich:       cfg.PG.TMDBEnrich,
		TPDBEnrich:       cfg.PG.TPDBEnrich,
		NSFWTag:          cfg.Tag.NSFW,

		TMDBTypeField:          withDefault(cfg.PG.TMDBTypeField, "type"),
		TMDBIDField:            withDefault(cfg.PG.TMDBIDField, "tmdb_id"),
		TPDBTypeField:          withDefault(cfg.PG.TPDBTypeField, "tpdb_type"),
		TPDBContentTypeField:   withDefault(cfg.PG.TPDBContentTypeField, "content_type"),
		TPDBContentSourceField: withDefault(cfg.PG.TPDBContentSourceField, "content_source"),
		TPDBContentIDField:     withDefault(cfg.PG.TPDBContentIDField, "content_id"),
	}

	if cfg.PG.UpdatedAtField != "" {
		col, err := sqlident.Quote(cfg.PG.UpdatedAtField)
		if err != nil {
			return nil, fmt.Errorf("source %q: updated_at_field: %w", cfg.Name, err)
		}
		src.UpdatedAtCol = col
	}

	if cfg.PG.SizeField != "" {
		col, err := sqlident.Quote(cfg.PG.SizeField)
		if err != nil {
			return nil, fmt.Errorf("source %q: size_field: %w", cfg.Name, err)
		}
		src.SizeCol = col
	}

	if cfg.PG.TMDBOnlyField != "" {
		col, err := sqlident.Quote(cfg.PG.TMDBOnlyField)
		if err != nil {
			return nil, fmt.Errorf("source %q: tmdb_only_field: %w", cfg.Name, err)
		}
		src.TMDBOnlyCol = col
	}

	for _, f := range cfg.PG.ExtraFields {
		col, err := sqlident.Quote(f)
		if err != nil {
			return nil, fmt.Errorf("source %q: extra_fields: %w", cfg.Name, err)
		}
		src.ExtraCols = append(src.ExtraCols, col)
	}

	for _, f := range cfg.PG.KeywordFields {
		col, err := sqlident.Quote(f)
		if err != nil {
			return nil, fmt.Errorf("source %q: keyword_fields: %w", cfg.Name, err)
		}
		src.KeywordCols = append(src.KeywordCols, col)
	}

	for _, j := range cfg.PG.Joins {
		joinTable, err := sqlident.QuoteQualified(j.Table)
		if err != nil {
			return nil, fmt.Errorf("source %q: joins: %w", cfg.Name, err)
		}
		onLocal, err := sqlident.Quote(j.OnLocal)
		if err != nil {
			return nil, fmt.Errorf("source %q: joins: %w", cfg.Name, err)
		}
		onForeign, err := sqlident.Quote(j.OnForeign)
		if err != nil {
			return nil, fmt.Errorf("source %q: joins: %w", cfg.Name, err)
		}
		column, err := sqlident.Quote(j.Column)
		if err != nil {
			return nil, fmt.Errorf("source %q: joins: %w", cfg.Name, err)
		}
		src.Joins = append(src.Joins, Join{
			Table:     joinTable,
			OnLocal:   onLocal,
			OnForeign: onForeign,
			SelectAs:  j.SelectAs,
			Column:    column,
			Aggregate: j.Aggregate,
		})
	}

	return src, nil
}

func withDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// NewSources builds a Source for every configured entry, failing on the
// first invalid identifier.
func NewSources(cfgs []config.SourceConfig) ([]*Source, error) {
	sources := make([]*Source, 0, len(cfgs))
	for _, c := range cfgs {
		src, err := NewSource(c)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
