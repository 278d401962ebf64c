// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hermes-search/hermes/internal/platform/constants"
	"github.com/hermes-search/hermes/internal/platform/dberr"
)

// Reader reads rows out of the configured source tables. It builds each
// query with the same strings.Builder + positional-arg idiom the catalog
// store used for its filtered listings, generalized to an arbitrary,
// config-driven set of columns instead of one fixed struct's fields.
type Reader struct {
	pool *pgxpool.Pool
}

// NewReader constructs a Reader over an already validated connection pool.
func NewReader(pool *pgxpool.Pool) *Reader {
	return &Reader{pool: pool}
}

// buildSelect assembles "SELECT id, text, updated_at, size, extra... FROM
// table" plus any configured LEFT JOINs, returning the column order so
// callers can scan rows positionally.
func (r *Reader) buildSelect(src *Source) (query string, scanCols int) {
	var b strings.Builder
	cols := []string{src.IDCol, src.TextCol}
	if src.UpdatedAtCol != "" {
		cols = append(cols, src.UpdatedAtCol)
	}
	if src.SizeCol != "" {
		cols = append(cols, src.SizeCol)
	}
	cols = append(cols, src.ExtraCols...)

	qualified := make([]string, len(cols))
	for i, c := range cols {
		qualified[i] = "t." + c
	}

	fmt.Fprintf(&b, "SELECT %s", strings.Join(qualified, ", "))
	for _, j := range src.Joins {
		if j.Aggregate {
			fmt.Fprintf(&b, ", (SELECT string_agg(j.%s::text, ',') FROM %s j WHERE j.%s = t.%s) AS %s",
				j.Column, j.Table, j.OnForeign, j.OnLocal, sanitizeAlias(j.SelectAs))
		} else {
			fmt.Fprintf(&b, ", (SELECT j.%s FROM %s j WHERE j.%s = t.%s LIMIT 1) AS %s",
				j.Column, j.Table, j.OnForeign, j.OnLocal, sanitizeAlias(j.SelectAs))
		}
	}
	fmt.Fprintf(&b, " FROM %s t", src.Table)

	return b.String(), len(cols)
}

func sanitizeAlias(s string) string {
	if s == "" {
		return "joined"
	}
	return `"` + s + `"`
}

// FetchPending returns rows for src whose (source, pg_id) has no sync_state
// row, or whose catalog updated_at has advanced past the recorded value, or
// whose text_hash differs from the recorded one — the sync pending
// predicate, applied as a LEFT JOIN against hermes.sync_state rather than
// trusted to the caller. limit bounds the batch; cursor is the last pg_id
// seen by the previous page of the same run and keeps traversal exhaustive
// even as in-flight commits shrink the pending set underneath it.
func (r *Reader) FetchPending(ctx context.Context, src *Source, cursor string, limit int) ([]Row, string, error) {
	base, scanCols := r.buildSelect(src)
	sqlQuery, args := buildFetchPendingQuery(base, src, cursor, limit)

	rows, err := r.pool.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, "", dberr.Wrap(err, "fetch pending rows")
	}
	defer rows.Close()

	out, err := scanRows(rows, src, scanCols)
	if err != nil {
		return nil, "", err
	}

	nextCursor := cursor
	if len(out) > 0 {
		nextCursor = out[len(out)-1].PGID
	}
	return out, nextCursor, nil
}

// buildFetchPendingQuery assembles the LEFT JOIN against hermes.sync_state
// and the pending predicate ("no sync-state OR updated_at advanced OR
// text_hash differs") on top of base (the plain "SELECT ... FROM table t"
// buildSelect produced). Split out from FetchPending so the query shape can
// be asserted on directly, without a live connection.
func buildFetchPendingQuery(base string, src *Source, cursor string, limit int) (string, []any) {
	var b strings.Builder
	b.WriteString(base)
	fmt.Fprintf(&b, " LEFT JOIN %s.sync_state s ON s.source = $1 AND s.pg_id = t.%s::text",
		constants.SchemaHermes, src.IDCol)
	args := []any{src.Name}
	argID := 2

	b.WriteString(" WHERE 1=1")
	if src.Where != "" {
		fmt.Fprintf(&b, " AND (%s)", src.Where)
	}
	if cursor != "" {
		fmt.Fprintf(&b, " AND t.%s::text > $%d", src.IDCol, argID)
		args = append(args, cursor)
		argID++
	}

	pending := []string{"s.pg_id IS NULL"}
	if src.UpdatedAtCol != "" {
		pending = append(pending, fmt.Sprintf("t.%s > COALESCE(s.source_updated_at, to_timestamp(0))", src.UpdatedAtCol))
	}
	pending = append(pending, fmt.Sprintf("s.text_hash IS DISTINCT FROM md5(t.%s)", src.TextCol))
	fmt.Fprintf(&b, " AND (%s)", strings.Join(pending, " OR "))

	fmt.Fprintf(&b, " ORDER BY t.%s ASC LIMIT $%d", src.IDCol, argID)
	args = append(args, limit)

	return b.String(), args
}

// FetchByIDs hydrates a known set of (pg_id) rows, used by enrichment and
// sync-state reconciliation once the pending set has been determined.
func (r *Reader) FetchByIDs(ctx context.Context, src *Source, ids []string) ([]Row, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	base, scanCols := r.buildSelect(src)
	query := base + fmt.Sprintf(" WHERE t.%s::text = ANY($1)", src.IDCol)

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, dberr.Wrap(err, "fetch rows by id")
	}
	defer rows.Close()

	return scanRows(rows, src, scanCols)
}

// keywordStripChars is the Go-side table of structural/punctuation
// characters the CJK keyword fallback strips (via Postgres's translate())
// from both the column value and the query before comparing, so a query
// split by spaces or separators the release-naming convention introduced
// still matches.
const keywordStripChars = " \t\r\n.,_\\-[](){}:;!?'\"/~`@#$%^&*+=|<>"

// SearchByKeyword does an ILIKE substring match across the source's
// configured keyword_fields. When keyword_normalize is set, it additionally
// matches a translate()-stripped, lower-cased projection of both column and
// query, so CJK titles separated by punctuation or full-width spacing still
// hit.
func (r *Reader) SearchByKeyword(ctx context.Context, src *Source, query string, limit int) ([]Row, error) {
	if !src.KeywordSearch || len(src.KeywordCols) == 0 {
		return nil, nil
	}

	base, scanCols := r.buildSelect(src)
	sqlQuery, args := buildKeywordSearchQuery(base, src, query, limit)

	rows, err := r.pool.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "keyword search")
	}
	defer rows.Close()

	return scanRows(rows, src, scanCols)
}

// buildKeywordSearchQuery assembles the ILIKE (and, when keyword_normalize
// is set, translate()-folded) predicate on top of base. Split out from
// SearchByKeyword so the query shape can be asserted on directly, without a
// live connection.
func buildKeywordSearchQuery(base string, src *Source, query string, limit int) (string, []any) {
	conds := make([]string, 0, len(src.KeywordCols)*2)
	for _, c := range src.KeywordCols {
		conds = append(conds, fmt.Sprintf("t.%s ILIKE '%%' || $1 || '%%'", c))
	}

	args := []any{query}
	limitArg := 2

	if src.KeywordNormalize {
		for _, c := range src.KeywordCols {
			conds = append(conds, fmt.Sprintf(
				"translate(lower(t.%s), $2, $3) ILIKE '%%' || translate(lower($1), $2, $3) || '%%'", c))
		}
		args = append(args, keywordStripChars, "")
		limitArg = 4
	}

	sqlQuery := fmt.Sprintf("%s WHERE (%s) LIMIT $%d", base, strings.Join(conds, " OR "), limitArg)
	args = append(args, limit)
	return sqlQuery, args
}

// scanRows materializes the positional column layout buildSelect produced
// into Row values, routing anything past the fixed id/text/updated_at/size
// prefix into Row.Extra keyed by the configured extra_fields names.
func scanRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}, src *Source, scanCols int) ([]Row, error) {
	var out []Row

	for rows.Next() {
		var (
			id        string
			text      string
			updatedAt *time.Time
			size      *int64
		)

		dest := []any{&id, &text}
		if src.UpdatedAtCol != "" {
			dest = append(dest, &updatedAt)
		}
		if src.SizeCol != "" {
			dest = append(dest, &size)
		}

		extraVals := make([]*string, len(src.ExtraCols)+len(src.Joins))
		for i := range extraVals {
			dest = append(dest, &extraVals[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, dberr.Wrap(err, "scan catalog row")
		}

		row := Row{Source: src.Name, PGID: id, Text: text, Size: size, UpdatedAt: updatedAt}

		if len(src.ExtraCols) > 0 || len(src.Joins) > 0 {
			row.Extra = make(map[string]string, len(extraVals))
			for i, col := range src.ExtraCols {
				if extraVals[i] != nil {
					row.Extra[unquote(col)] = *extraVals[i]
				}
			}
			for i, j := range src.Joins {
				idx := len(src.ExtraCols) + i
				if extraVals[idx] != nil {
					row.Extra[strings.Trim(j.SelectAs, `"`)] = *extraVals[idx]
				}
			}
		}

		out = append(out, row)
	}

	return out, rows.Err()
}

func unquote(s string) string {
	return strings.Trim(s, `"`)
}
