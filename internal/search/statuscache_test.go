// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hermes-search/hermes/internal/enrichment"
)

func TestStatusCountsToStrings(t *testing.T) {
	counts := map[enrichment.Status]int{
		enrichment.StatusOK:       5,
		enrichment.StatusNotFound: 2,
	}
	out := statusCountsToStrings(counts)
	assert.Equal(t, 5, out["ok"])
	assert.Equal(t, 2, out["not_found"])
}

func TestNewStatusCacheZeroValueSnapshotBeforeRefresh(t *testing.T) {
	c := NewStatusCache(nil, nil, 0, nil)
	assert.Empty(t, c.Snapshot().Sources)
}
