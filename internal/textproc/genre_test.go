// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractGenreTagsBilingual(t *testing.T) {
	tags := ExtractGenreTags("恐怖 电影 视频 中字")
	assert.Contains(t, tags, "恐怖")
	assert.Contains(t, tags, "Horror")
}

func TestExtractGenreTagsNoMatch(t *testing.T) {
	assert.Empty(t, ExtractGenreTags("nothing matching here"))
}

func TestExtractGenreTagsDedupes(t *testing.T) {
	tags := ExtractGenreTags("恐怖 恐怖 恐怖")
	count := 0
	for _, tag := range tags {
		if tag == "Horror" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
