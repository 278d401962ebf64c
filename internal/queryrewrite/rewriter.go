// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package queryrewrite turns a raw search box query into the two strings the
search service actually needs: a cleaned, pre-expansion query for keyword
search, and an expanded, BGE-prefixed query for the embedding call. It
chains internal/textproc's extractors in the reference query-rewriter's
fixed order: file-type phrase, language, genre, synonym + catalog-derived
expansion, normalization, embedding-model prefix.
*/
package queryrewrite

import (
	"context"
	"log/slog"

	"github.com/hermes-search/hermes/internal/enrichment"
	"github.com/hermes-search/hermes/internal/textproc"
)

// CatalogExpander resolves catalog-derived expansion terms (TMDB alternate
// titles and keywords) for a cleaned query, weighted by how many cached
// records they appeared in. Implemented by *internal/enrichment.Store.
type CatalogExpander interface {
	MatchExpansionTerms(ctx context.Context, query string, limit int) (map[string]int, error)
}

// Result is one query's rewrite output.
type Result struct {
	// CleanQuery is the file-type-phrase-stripped, noise-normalized query
	// with no synonym/catalog expansion applied. Keyword search matches
	// against this, since expansion tokens would only dilute a full-text
	// ranking built for exact terms.
	CleanQuery string

	// EmbedQuery is CleanQuery's synonym+catalog expansion, re-normalized
	// and prefixed for the embedding model. The vector search ANN call
	// embeds this string.
	EmbedQuery string

	FileType      textproc.FileType
	FileTypeKnown bool
	AudioLangs    []string
	SubtitleLangs []string
	GenreTags     []string
}

// Rewriter holds the tunables a Result is built from: the cap on
// catalog-derived expansion terms and the embedding model's query prefix.
type Rewriter struct {
	expander    CatalogExpander
	expandLimit int
	queryPrefix string
	logger      *slog.Logger
}

// New builds a Rewriter. expander may be nil, which simply disables
// catalog-derived expansion (synonym expansion still applies).
func New(expander CatalogExpander, expandLimit int, queryPrefix string, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{expander: expander, expandLimit: expandLimit, queryPrefix: queryPrefix, logger: logger}
}

// Rewrite runs the six-step pipeline over raw. A catalog-expansion lookup
// failure is logged and skipped rather than failing the whole query: a
// search should still run on synonym expansion alone if the enrichment
// cache is unreachable.
func (r *Rewriter) Rewrite(ctx context.Context, raw string) Result {
	ft, remainder, matched := textproc.ExtractFileTypePhrase(raw)
	audioLangs, subtitleLangs := textproc.DetectLanguages(remainder)
	genreTags := textproc.ExtractGenreTags(remainder)

	clean := textproc.Normalize(remainder)

	extraTerms := r.catalogTerms(ctx, clean)
	expanded := textproc.ExpandQuery(remainder, extraTerms)
	embedQuery := textproc.Normalize(expanded)
	if r.queryPrefix != "" {
		embedQuery = r.queryPrefix + embedQuery
	}

	return Result{
		CleanQuery:    clean,
		EmbedQuery:    embedQuery,
		FileType:      ft,
		FileTypeKnown: matched,
		AudioLangs:    audioLangs,
		SubtitleLangs: subtitleLangs,
		GenreTags:     genreTags,
	}
}

func (r *Rewriter) catalogTerms(ctx context.Context, clean string) map[string]int {
	if r.expander == nil || r.expandLimit <= 0 || clean == "" {
		return nil
	}
	terms, err := r.expander.MatchExpansionTerms(ctx, clean, r.expandLimit)
	if err != nil {
		r.logger.WarnContext(ctx, "catalog_expansion_failed", slog.Any("error", err))
		return nil
	}
	return terms
}

var _ CatalogExpander = (*enrichment.Store)(nil)
