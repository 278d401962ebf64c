// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSizeFirstPositiveCandidate(t *testing.T) {
	size, ok := ExtractSize(map[string]string{"total_size": "0", "torrent_size": "1048576"})
	assert.True(t, ok)
	assert.Equal(t, int64(1048576), size)
}

func TestExtractSizeNoneFound(t *testing.T) {
	_, ok := ExtractSize(map[string]string{"unrelated": "100"})
	assert.False(t, ok)
}

func TestExtractSizeIgnoresNonPositive(t *testing.T) {
	_, ok := ExtractSize(map[string]string{"size": "-5", "length": "0"})
	assert.False(t, ok)
}
