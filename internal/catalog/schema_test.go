// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hermes-search/hermes/internal/platform/config"
)

func TestNewSourceQuotesIdentifiers(t *testing.T) {
	cfg := config.SourceConfig{
		Name: "movies",
		PG: config.SourcePGConfig{
			Table:          "public.movies",
			IDField:        "id",
			TextField:      "title",
			UpdatedAtField: "updated_at",
			ExtraFields:    []string{"overview"},
			KeywordFields:  []string{"title", "overview"},
			KeywordSearch:  true,
		},
	}

	src, err := NewSource(cfg)
	require.NoError(t, err)
	assert.Equal(t, `"public"."movies"`, src.Table)
	assert.Equal(t, `"id"`, src.IDCol)
	assert.Equal(t, `"title"`, src.TextCol)
	assert.Equal(t, `"updated_at"`, src.UpdatedAtCol)
	assert.Equal(t, []string{`"overview"`}, src.ExtraCols)
	assert.True(t, src.KeywordSearch)
}

func TestNewSourceRejectsUnsafeIdentifier(t *testing.T) {
	cfg := config.SourceConfig{
		Name: "movies",
		PG: config.SourcePGConfig{
			Table:     "movies; DROP TABLE users",
			IDField:   "id",
			TextField: "title",
		},
	}

	_, err := NewSource(cfg)
	assert.Error(t, err)
}

func TestNewSourcesFailsFastOnFirstBadSource(t *testing.T) {
	cfgs := []config.SourceConfig{
		{Name: "ok", PG: config.SourcePGConfig{Table: "t1", IDField: "id", TextField: "text"}},
		{Name: "bad", PG: config.SourcePGConfig{Table: "t2", IDField: "id;drop", TextField: "text"}},
	}

	_, err := NewSources(cfgs)
	assert.Error(t, err)
}
