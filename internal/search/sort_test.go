// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sizePtr(n int64) *int64 { return &n }

func TestSortBySizeMissingSortsLastAscending(t *testing.T) {
	hits := []hit{
		{result: Result{PGID: "1", Score: 0.5}, size: nil},
		{result: Result{PGID: "2", Score: 0.5}, size: sizePtr(100)},
		{result: Result{PGID: "3", Score: 0.5}, size: sizePtr(50)},
	}
	sortBySize(hits, "asc")
	assert.Equal(t, []string{"3", "2", "1"}, ids(hits))
}

func TestSortBySizeMissingSortsLastDescending(t *testing.T) {
	hits := []hit{
		{result: Result{PGID: "1", Score: 0.5}, size: nil},
		{result: Result{PGID: "2", Score: 0.5}, size: sizePtr(100)},
		{result: Result{PGID: "3", Score: 0.5}, size: sizePtr(50)},
	}
	sortBySize(hits, "desc")
	assert.Equal(t, []string{"2", "3", "1"}, ids(hits))
}

func TestDedupeByNormalizedTitleKeepsHighestScoring(t *testing.T) {
	hits := []hit{
		{result: Result{PGID: "1", Title: "Alien", Score: 0.9}},
		{result: Result{PGID: "2", Title: "alien ", Score: 0.5}},
		{result: Result{PGID: "3", Title: "Predator", Score: 0.8}},
	}
	sortByScoreDesc(hits)
	deduped := dedupeByNormalizedTitle(hits)
	assert.Len(t, deduped, 2)
	assert.Equal(t, "1", deduped[0].result.PGID)
	assert.Equal(t, "3", deduped[1].result.PGID)
}

func ids(hits []hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.result.PGID
	}
	return out
}
