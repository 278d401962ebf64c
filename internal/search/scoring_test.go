// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordScoreWorkedExample(t *testing.T) {
	alien := KeywordScore("alien", "Alien")
	theAlien := KeywordScore("alien", "The Alien")
	xenomorph := KeywordScore("alien", "xenomorph")

	assert.Equal(t, 1.0, alien)
	assert.InDelta(t, 0.2, theAlien, 1e-9)
	assert.Equal(t, 0.1, xenomorph)

	assert.Greater(t, alien, theAlien)
	assert.Greater(t, theAlien, xenomorph)
}

func TestKeywordScoreExactMatchIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, 1.0, KeywordScore("Alien", "alien"))
}

func TestKeywordScoreNoMatchIsFloor(t *testing.T) {
	assert.Equal(t, 0.1, KeywordScore("predator", "Alien vs Xenomorph"))
}

func TestKeywordScoreMonotonicityByPosition(t *testing.T) {
	// Both non-exact substring matches; the earlier position must score
	// strictly higher while 0.9/(1+p) is above the 0.2 floor: p=0 gives 0.9,
	// p=4 gives 0.18, floored to 0.2.
	early := KeywordScore("matrix", "Matrix Reloaded")
	late := KeywordScore("matrix", "The Matrix Reloaded")
	assert.Greater(t, early, late)
}
