// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package search

import "strings"

// KeywordScore ranks a candidate title against a lowercase query: an exact
// match scores 1.0, a substring match at position p scores
// max(0.2, 0.9/(1+p)), and anything else scores the floor, 0.1.
func KeywordScore(query, title string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	t := strings.ToLower(strings.TrimSpace(title))

	if q == t {
		return 1.0
	}

	pos := strings.Index(t, q)
	if pos < 0 {
		return 0.1
	}

	score := 0.9 / float64(1+pos)
	if score < 0.2 {
		return 0.2
	}
	return score
}
