// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandQueryAddsSynonyms(t *testing.T) {
	expanded := ExpandQuery("恐怖 电影", nil)
	assert.Contains(t, expanded, "horror")
	assert.Contains(t, expanded, "movie")
}

func TestExpandQueryDeduplicates(t *testing.T) {
	expanded := ExpandQuery("电影 电影", nil)
	count := 0
	for _, tok := range strings.Fields(expanded) {
		if tok == "电影" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExpandQueryEmpty(t *testing.T) {
	assert.Equal(t, "", ExpandQuery("", nil))
}

func TestExpandQueryExtraTermsClamped(t *testing.T) {
	expanded := ExpandQuery("剧情", map[string]int{"drama-boost": 10})
	count := 0
	for _, tok := range strings.Fields(expanded) {
		if tok == "drama-boost" {
			count++
		}
	}
	assert.Equal(t, 1, count) // deduped after clamp+append, since repeats collapse
}
