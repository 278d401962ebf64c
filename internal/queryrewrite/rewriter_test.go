// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package queryrewrite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeExpander struct {
	terms map[string]int
	err   error
}

func (f *fakeExpander) MatchExpansionTerms(_ context.Context, _ string, _ int) (map[string]int, error) {
	return f.terms, f.err
}

func TestRewriteExtractsFileTypeLanguageAndGenre(t *testing.T) {
	r := New(nil, 0, "", testLogger())
	res := r.Rewrite(context.Background(), "惊悚片 中文字幕 压缩包")

	assert.True(t, res.FileTypeKnown)
	assert.Contains(t, res.GenreTags, "Thriller")
	assert.Contains(t, res.SubtitleLangs, "zh")
	assert.NotContains(t, res.CleanQuery, "压缩包")
}

func TestRewriteCleanQueryHasNoExpansion(t *testing.T) {
	r := New(nil, 0, "", testLogger())
	res := r.Rewrite(context.Background(), "惊悚电影")

	assert.NotContains(t, res.CleanQuery, "thriller")
	assert.Contains(t, res.EmbedQuery, "thriller")
}

func TestRewriteAppliesQueryPrefix(t *testing.T) {
	r := New(nil, 0, "query: ", testLogger())
	res := r.Rewrite(context.Background(), "电影")

	assert.Contains(t, res.EmbedQuery, "query:")
}

func TestRewriteIncludesCatalogExpansionTerms(t *testing.T) {
	expander := &fakeExpander{terms: map[string]int{"the matrix": 3}}
	r := New(expander, 5, "", testLogger())
	res := r.Rewrite(context.Background(), "黑客帝国")

	assert.Contains(t, res.EmbedQuery, "the matrix")
}

func TestRewriteSkipsExpansionOnCatalogError(t *testing.T) {
	expander := &fakeExpander{err: errors.New("db unavailable")}
	r := New(expander, 5, "", testLogger())
	res := r.Rewrite(context.Background(), "惊悚电影")

	assert.NotContains(t, res.EmbedQuery, "db unavailable")
	assert.Contains(t, res.EmbedQuery, "thriller")
}

func TestRewriteExpandLimitZeroDisablesCatalogExpansion(t *testing.T) {
	expander := &fakeExpander{terms: map[string]int{"the matrix": 3}}
	r := New(expander, 0, "", testLogger())
	res := r.Rewrite(context.Background(), "黑客帝国")

	assert.NotContains(t, res.EmbedQuery, "the matrix")
}
