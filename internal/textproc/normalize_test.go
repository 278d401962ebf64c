// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStripsNoiseTokens(t *testing.T) {
	in := "The.Matrix.1999.2160p.UHD.BluRay.x265.HDR.DTS-HD.MA.mkv"
	out := Normalize(in)
	assert.NotContains(t, out, "2160p")
	assert.NotContains(t, out, "BluRay")
	assert.NotContains(t, out, "x265")
	assert.Contains(t, out, "The Matrix 1999")
}

func TestNormalizeCollapsesBracketsAndSeparators(t *testing.T) {
	out := Normalize("[Group]_My.Show_(2024)")
	assert.NotContains(t, out, "[")
	assert.NotContains(t, out, "_")
	assert.Contains(t, out, "Group")
	assert.Contains(t, out, "My Show")
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
}
