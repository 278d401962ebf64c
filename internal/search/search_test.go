// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hermes-search/hermes/internal/bitmagnet"
	"github.com/hermes-search/hermes/internal/catalog"
)

func TestComputeFetchKCapsAtOneHundred(t *testing.T) {
	assert.Equal(t, 100, computeFetchK(500, 20))
	assert.Equal(t, 20, computeFetchK(5, 20))
	assert.Equal(t, 5, computeFetchK(5, 2))
	assert.Equal(t, 100, computeFetchK(0, 0))
}

func TestTitleFromRowPrefersExtraTitle(t *testing.T) {
	row := catalog.Row{Text: "raw indexed text", Extra: map[string]string{"title": "Nice Title"}}
	assert.Equal(t, "Nice Title", titleFromRow(row))
}

func TestTitleFromRowFallsBackToText(t *testing.T) {
	row := catalog.Row{Text: "raw indexed text", Extra: map[string]string{"year": "2001"}}
	assert.Equal(t, "raw indexed text", titleFromRow(row))
}

func TestMetadataFromRowIncludesSizeAndExtras(t *testing.T) {
	size := int64(1234)
	row := catalog.Row{Extra: map[string]string{"year": "2001"}, Size: &size}
	meta := metadataFromRow(row)
	assert.Equal(t, "2001", meta["year"])
	assert.Equal(t, int64(1234), meta["size"])
}

func TestMetadataFromRowWithoutSize(t *testing.T) {
	row := catalog.Row{Extra: map[string]string{"year": "2001"}}
	meta := metadataFromRow(row)
	_, ok := meta["size"]
	assert.False(t, ok)
}

func TestFirstNonEmptyPicksFirstSet(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}

func TestTorrentMetadataMapsFields(t *testing.T) {
	tor := bitmagnet.Torrent{
		Size:        100,
		FilesCount:  2,
		Seeders:     5,
		Leechers:    1,
		PublishedAt: "2020-01-01",
		ContentType: "movie",
		ReleaseYear: 2020,
		Collections: []string{"marvel"},
	}
	meta := torrentMetadata(tor)
	assert.Equal(t, int64(100), meta["size"])
	assert.Equal(t, "movie", meta["content_type"])
	assert.Equal(t, 2020, meta["release_year"])
}

func TestSourcesToSearchDefaultsToAllSortedByName(t *testing.T) {
	svc := &Service{sources: map[string]*catalog.Source{
		"b": {Name: "b"},
		"a": {Name: "a"},
	}}
	out := svc.sourcesToSearch(nil)
	if assert.Len(t, out, 2) {
		assert.Equal(t, "a", out[0].Name)
		assert.Equal(t, "b", out[1].Name)
	}
}

func TestSourcesToSearchFiltersUnknownNames(t *testing.T) {
	svc := &Service{sources: map[string]*catalog.Source{"a": {Name: "a"}}}
	out := svc.sourcesToSearch([]string{"a", "missing"})
	assert.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Name)
}
