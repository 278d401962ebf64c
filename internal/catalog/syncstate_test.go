// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsPendingNoRecord(t *testing.T) {
	row := Row{Source: "movies", PGID: "1", Text: "x"}
	assert.True(t, IsPending(row, "hash", nil))
}

func TestIsPendingUpdatedAtAdvanced(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	row := Row{UpdatedAt: &newer}
	rec := &SyncRecord{UpdatedAt: &older, TextHash: "hash"}

	assert.True(t, IsPending(row, "hash", rec))
}

func TestIsPendingUpdatedAtNotAdvanced(t *testing.T) {
	ts := time.Now()
	row := Row{UpdatedAt: &ts}
	rec := &SyncRecord{UpdatedAt: &ts, TextHash: "hash"}

	assert.False(t, IsPending(row, "hash", rec))
}

func TestIsPendingNoUpdatedAtFallsBackToTextHash(t *testing.T) {
	row := Row{}
	rec := &SyncRecord{TextHash: "old-hash"}

	assert.True(t, IsPending(row, "new-hash", rec))
	assert.False(t, IsPending(row, "old-hash", rec))
}
