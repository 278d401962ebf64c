// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package search

import (
	"sort"
	"strings"
)

// hit is the internal working shape search.go sorts and dedupes before
// projecting to the public Result.
type hit struct {
	result Result
	size   *int64
}

// sortByScoreDesc orders hits by descending score, the step-9 ordering
// applied before title dedup and any size re-sort.
func sortByScoreDesc(hits []hit) {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].result.Score > hits[j].result.Score })
}

// dedupeByNormalizedTitle keeps the first (highest-scoring, since the
// slice is already score-sorted) occurrence of each normalized title,
// falling back to the source:pg_id key when the title is empty.
func dedupeByNormalizedTitle(hits []hit) []hit {
	seen := make(map[string]struct{}, len(hits))
	out := make([]hit, 0, len(hits))
	for _, h := range hits {
		key := normalizedTitleKey(h.result)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out
}

func normalizedTitleKey(r Result) string {
	title := strings.ToLower(strings.TrimSpace(r.Title))
	if title == "" {
		return r.Source + ":" + r.PGID
	}
	return title
}

// sortBySize re-sorts hits by size when size_sort is "asc" or "desc",
// per Open Question resolution 3: hits with no known size sort last
// regardless of direction, and score breaks ties within equal sizes.
func sortBySize(hits []hit, direction string) {
	asc := direction == "asc"
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if (a.size == nil) != (b.size == nil) {
			return a.size != nil // known size sorts before missing, in both directions
		}
		if a.size != nil && b.size != nil && *a.size != *b.size {
			if asc {
				return *a.size < *b.size
			}
			return *a.size > *b.size
		}
		return a.result.Score > b.result.Score
	})
}
