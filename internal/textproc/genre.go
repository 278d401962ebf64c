// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package textproc

import "strings"

// genreDictionary maps a Chinese genre keyword to its canonical bilingual
// tag pair, grounded on the reference query-filter extractor's genre
// mapping table.
var genreDictionary = []struct {
	keyword string
	tags    []string
}{
	{"惊悚", []string{"惊悚", "Thriller"}},
	{"恐怖", []string{"恐怖", "Horror"}},
	{"悬疑", []string{"悬疑", "Mystery"}},
	{"动作", []string{"动作", "Action"}},
	{"科幻", []string{"科幻", "Science Fiction"}},
	{"犯罪", []string{"犯罪", "Crime"}},
	{"爱情", []string{"爱情", "Romance"}},
	{"喜剧", []string{"喜剧", "Comedy"}},
	{"剧情", []string{"剧情", "Drama"}},
	{"冒险", []string{"冒险", "Adventure"}},
	{"动画", []string{"动画", "Animation"}},
	{"奇幻", []string{"奇幻", "Fantasy"}},
	{"战争", []string{"战争", "War"}},
	{"纪录", []string{"纪录", "Documentary"}},
	{"家庭", []string{"家庭", "Family"}},
	{"音乐", []string{"音乐", "Music"}},
	{"历史", []string{"历史", "History"}},
	{"西部", []string{"西部", "Western"}},
}

// ExtractGenreTags returns every canonical genre tag (both Chinese and
// English forms) whose Chinese keyword appears in text, deduplicated and
// in dictionary order.
func ExtractGenreTags(text string) []string {
	var tags []string
	for _, entry := range genreDictionary {
		if strings.Contains(text, entry.keyword) {
			for _, t := range entry.tags {
				tags = appendUnique(tags, t)
			}
		}
	}
	return tags
}
