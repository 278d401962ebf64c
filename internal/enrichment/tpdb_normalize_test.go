// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCodeMatchesProductCode(t *testing.T) {
	assert.Equal(t, "ABC-123", ExtractCode("ABC-123 1080p Chinese Subtitle"))
	assert.Equal(t, "", ExtractCode("no code here"))
}

func TestExtractNamesFromPerformerList(t *testing.T) {
	list := []any{
		map[string]any{"performer": map[string]any{"name": "Alice"}},
		map[string]any{"name": "Bob"},
		"Carol",
	}
	assert.Equal(t, "Alice, Bob, Carol", ExtractNames(list))
}

func TestExtractImageURLFromList(t *testing.T) {
	list := []any{
		map[string]any{"path": ""},
		map[string]any{"url": "https://example.com/a.jpg"},
	}
	assert.Equal(t, "https://example.com/a.jpg", ExtractImageURL(list))
}

func TestExtractItemsFollowsResultPath(t *testing.T) {
	payload := map[string]any{
		"data": map[string]any{
			"searchScenes": []any{
				map[string]any{"title": "one"},
				map[string]any{"title": "two"},
			},
		},
	}
	items := ExtractItems(payload, "data.searchScenes")
	assert.Len(t, items, 2)
}

func TestExtractItemsFallsBackToConventionalKeys(t *testing.T) {
	payload := map[string]any{
		"results": []any{map[string]any{"title": "one"}},
	}
	items := ExtractItems(payload, "")
	assert.Len(t, items, 1)
}

func TestPickBestItemPrefersExactCodeMatch(t *testing.T) {
	items := []map[string]any{
		{"title": "Something Else", "code": "XYZ-999"},
		{"title": "Target Title", "code": "ABC-123"},
	}
	item, method, score := PickBestItem(items, "ABC-123", "")
	assert.Equal(t, "Target Title", item["title"])
	assert.Equal(t, MatchCode, method)
	assert.Equal(t, 1.0, score)
}

func TestPickBestItemFallsBackToFirst(t *testing.T) {
	items := []map[string]any{{"title": "only"}}
	item, method, _ := PickBestItem(items, "", "no match here")
	assert.Equal(t, "only", item["title"])
	assert.Equal(t, MatchFallback, method)
}

func TestNormalizeTPDBItemFillsAKAFromCode(t *testing.T) {
	item := map[string]any{
		"title": "Scene Title",
		"code":  "ABC-123",
	}
	normalized := NormalizeTPDBItem(item)
	assert.Equal(t, "Scene Title", normalized.Title)
	assert.Equal(t, "ABC-123", normalized.AKA)
}
