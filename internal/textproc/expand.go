// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package textproc

import "strings"

// synonymDictionary maps a Chinese query token to its English/alternate
// synonyms, grounded on the reference query expander's expansions table.
// It is intentionally a superset of genreDictionary's keys: genre words
// expand to their English name too, but expand_query also covers non-genre
// vocabulary ("电影" -> "movie"/"film") that carries no genre tag.
var synonymDictionary = []struct {
	keyword string
	synonyms []string
}{
	{"电影", []string{"影片", "movie", "film"}},
	{"影片", []string{"电影", "movie", "film"}},
	{"惊悚", []string{"thriller", "紧张"}},
	{"恐怖", []string{"horror", "恐怖片"}},
	{"悬疑", []string{"mystery", "疑案"}},
	{"爱情", []string{"romance"}},
	{"喜剧", []string{"comedy"}},
	{"科幻", []string{"sci-fi", "science fiction"}},
	{"动作", []string{"action"}},
	{"战争", []string{"war"}},
	{"动画", []string{"animation", "cartoon"}},
	{"纪录", []string{"documentary", "doc"}},
	{"犯罪", []string{"crime"}},
	{"奇幻", []string{"fantasy"}},
	{"冒险", []string{"adventure"}},
	{"剧情", []string{"drama"}},
	{"家庭", []string{"family"}},
	{"音乐", []string{"music"}},
	{"传记", []string{"biography", "biopic"}},
	{"历史", []string{"history"}},
	{"西部", []string{"western"}},
	{"体育", []string{"sport", "sports"}},
	{"真人秀", []string{"reality"}},
	{"综艺", []string{"variety"}},
	{"剧集", []string{"series", "tv", "show"}},
	{"电视剧", []string{"tv", "series", "drama"}},
}

// ExpandQuery appends every synonym whose Chinese keyword appears in
// query, plus weighted catalog-derived terms (e.g. matched title tokens),
// deduplicating and joining into a single space-separated expanded string.
// extraTerms weight is clamped to [1,3] repetitions before deduplication,
// and deduplication keeps only the first occurrence, so every term appears
// once in the result whatever its weight. Extra terms follow the synonyms
// in map iteration order, which is not defined.
func ExpandQuery(query string, extraTerms map[string]int) string {
	if query == "" {
		return query
	}

	tokens := []string{query}
	for _, entry := range synonymDictionary {
		if strings.Contains(query, entry.keyword) {
			tokens = append(tokens, entry.synonyms...)
		}
	}

	for term, weight := range extraTerms {
		count := weight
		if count < 1 {
			count = 1
		}
		if count > 3 {
			count = 3
		}
		for i := 0; i < count; i++ {
			tokens = append(tokens, term)
		}
	}

	deduped := make([]string, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		deduped = append(deduped, t)
	}
	return strings.Join(deduped, " ")
}
