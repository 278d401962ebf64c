// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource(t *testing.T) *Source {
	t.Helper()
	return &Source{
		Name:         "movies",
		Table:        `"public"."movies"`,
		IDCol:        `"id"`,
		TextCol:      `"title"`,
		UpdatedAtCol: `"updated_at"`,
	}
}

func TestBuildFetchPendingQueryJoinsSyncState(t *testing.T) {
	src := testSource(t)
	base := "SELECT t.\"id\", t.\"title\" FROM \"public\".\"movies\" t"

	sqlQuery, args := buildFetchPendingQuery(base, src, "", 50)

	assert.Contains(t, sqlQuery, `LEFT JOIN hermes.sync_state s ON s.source = $1 AND s.pg_id = t."id"::text`)
	assert.Contains(t, sqlQuery, `s.pg_id IS NULL`)
	assert.Contains(t, sqlQuery, `t."updated_at" > COALESCE(s.source_updated_at, to_timestamp(0))`)
	assert.Contains(t, sqlQuery, `s.text_hash IS DISTINCT FROM md5(t."title")`)
	assert.Contains(t, sqlQuery, `ORDER BY t."id" ASC LIMIT $2`)
	assert.Equal(t, []any{"movies", 50}, args)
}

func TestBuildFetchPendingQueryAppliesCursorAndWhere(t *testing.T) {
	src := testSource(t)
	src.Where = `t."deleted" = false`
	base := "SELECT t.\"id\", t.\"title\" FROM \"public\".\"movies\" t"

	sqlQuery, args := buildFetchPendingQuery(base, src, "42", 10)

	assert.Contains(t, sqlQuery, `AND (t."deleted" = false)`)
	assert.Contains(t, sqlQuery, `AND t."id"::text > $2`)
	assert.Contains(t, sqlQuery, `LIMIT $3`)
	assert.Equal(t, []any{"movies", "42", 10}, args)
}

func TestBuildFetchPendingQueryOmitsUpdatedAtClauseWhenUnconfigured(t *testing.T) {
	src := testSource(t)
	src.UpdatedAtCol = ""
	base := "SELECT t.\"id\", t.\"title\" FROM \"public\".\"movies\" t"

	sqlQuery, _ := buildFetchPendingQuery(base, src, "", 10)

	assert.NotContains(t, sqlQuery, "COALESCE(s.updated_at")
	assert.Contains(t, sqlQuery, `s.pg_id IS NULL OR s.text_hash IS DISTINCT FROM md5(t."title")`)
}

func TestBuildKeywordSearchQueryPlainILike(t *testing.T) {
	src := testSource(t)
	src.KeywordCols = []string{`"title"`, `"overview"`}
	base := "SELECT t.\"id\", t.\"title\" FROM \"public\".\"movies\" t"

	sqlQuery, args := buildKeywordSearchQuery(base, src, "恐怖", 20)

	assert.Contains(t, sqlQuery, `t."title" ILIKE '%' || $1 || '%'`)
	assert.Contains(t, sqlQuery, `t."overview" ILIKE '%' || $1 || '%'`)
	assert.NotContains(t, sqlQuery, "translate(")
	assert.Contains(t, sqlQuery, "LIMIT $2")
	assert.Equal(t, []any{"恐怖", 20}, args)
}

func TestBuildKeywordSearchQueryCJKFallback(t *testing.T) {
	src := testSource(t)
	src.KeywordCols = []string{`"title"`}
	src.KeywordNormalize = true
	base := "SELECT t.\"id\", t.\"title\" FROM \"public\".\"movies\" t"

	sqlQuery, args := buildKeywordSearchQuery(base, src, "恐怖 电影", 20)

	assert.Contains(t, sqlQuery, `translate(lower(t."title"), $2, $3) ILIKE '%' || translate(lower($1), $2, $3) || '%'`)
	assert.Contains(t, sqlQuery, "LIMIT $4")
	assert.Equal(t, []any{"恐怖 电影", keywordStripChars, "", 20}, args)
}

type fakeRows struct {
	rows [][]any
	i    int
}

func (f *fakeRows) Next() bool {
	if f.i >= len(f.rows) {
		return false
	}
	f.i++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	row := f.rows[f.i-1]
	for i, d := range dest {
		switch ptr := d.(type) {
		case *string:
			*ptr = row[i].(string)
		case **time.Time:
			*ptr, _ = row[i].(*time.Time)
		case **int64:
			*ptr, _ = row[i].(*int64)
		case **string:
			*ptr, _ = row[i].(*string)
		}
	}
	return nil
}

func (f *fakeRows) Err() error { return nil }

func TestScanRowsRoutesExtraFieldsByName(t *testing.T) {
	src := testSource(t)
	src.ExtraCols = []string{`"genre"`}

	genre := "Horror"
	rows := &fakeRows{rows: [][]any{
		{"1", "Ghost Story", (*time.Time)(nil), &genre},
	}}

	out, err := scanRows(rows, src, 2)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "movies", out[0].Source)
	assert.Equal(t, "1", out[0].PGID)
	assert.Equal(t, "Ghost Story", out[0].Text)
	assert.Equal(t, "Horror", out[0].Extra["genre"])
}
