// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package enrichment

import (
	"regexp"
	"strings"

	"github.com/hermes-search/hermes/internal/textproc"
)

// TPDBItem is the normalized subset of a TPDB search result used to
// populate TPDBRecord, grounded on the reference normalize_tpdb_item.
type TPDBItem struct {
	TPDBID        string
	ExternalType  string
	Title         string
	OriginalTitle string
	AKA           string
	Actors        string
	Tags          string
	Studio        string
	Series        string
	Site          string
	ReleaseDate   string
	Plot          string
	PosterURL     string
}

// MatchMethod describes how PickBestItem selected a candidate, carried
// alongside the record for observability.
type MatchMethod string

const (
	MatchCode        MatchMethod = "code"
	MatchTitleExact  MatchMethod = "title_exact"
	MatchTitlePartial MatchMethod = "title_partial"
	MatchFallback    MatchMethod = "fallback"
)

var codePattern = regexp.MustCompile(`(?i)\b([A-Z]{2,6})[-_ ]?(\d{2,5})\b`)

// ExtractCode pulls a JAV-style product code (e.g. "ABC-123") out of
// free text, or returns "" if none is present.
func ExtractCode(text string) string {
	if text == "" {
		return ""
	}
	m := codePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1]) + "-" + m[2]
}

// ExtractNames flattens a list of strings, {name|title|label} maps, or
// {performer: {name|title}} maps into a comma-joined string.
func ExtractNames(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		var names []string
		for _, item := range v {
			if name := nameOf(item); name != "" {
				names = append(names, name)
			}
		}
		return strings.Join(names, ", ")
	case map[string]any:
		return nameOf(v)
	default:
		return ""
	}
}

func nameOf(item any) string {
	switch v := item.(type) {
	case string:
		return v
	case map[string]any:
		if performer, ok := v["performer"].(map[string]any); ok {
			if n, _ := performer["name"].(string); n != "" {
				return n
			}
			if n, _ := performer["title"].(string); n != "" {
				return n
			}
		}
		for _, key := range []string{"name", "title", "label"} {
			if n, _ := v[key].(string); n != "" {
				return n
			}
		}
	}
	return ""
}

// ExtractImageURL pulls the first usable image URL out of a string,
// {url|path|src} map, or list of such values.
func ExtractImageURL(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"url", "path", "src"} {
			if u, _ := v[key].(string); u != "" {
				return u
			}
		}
	case []any:
		for _, item := range v {
			if u := ExtractImageURL(item); u != "" {
				return u
			}
		}
	}
	return ""
}

// ExtractItems walks payload along the dot-separated resultPath and
// coerces whatever it finds into a list of candidate item maps, falling
// back to a handful of conventional list keys when resultPath is empty
// or points at an object instead of an array.
func ExtractItems(payload map[string]any, resultPath string) []map[string]any {
	var data any = payload
	if resultPath != "" {
		for _, part := range strings.Split(resultPath, ".") {
			if part == "" {
				continue
			}
			m, ok := data.(map[string]any)
			if !ok {
				data = nil
				break
			}
			data = m[part]
		}
	}
	if data == nil {
		return nil
	}
	if list, ok := data.([]any); ok {
		return toMapList(list)
	}
	if m, ok := data.(map[string]any); ok {
		for _, key := range []string{"items", "results", "scenes", "movies", "javs"} {
			if list, ok := m[key].([]any); ok {
				return toMapList(list)
			}
		}
		return []map[string]any{m}
	}
	return nil
}

func toMapList(list []any) []map[string]any {
	var out []map[string]any
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// PickBestItem selects the best candidate from items by exact code match,
// then exact normalized-title match, then substring title match, falling
// back to the first item, mirroring the reference's tiered scoring.
func PickBestItem(items []map[string]any, code, title string) (map[string]any, MatchMethod, float64) {
	if code != "" {
		for _, item := range items {
			itemCode, _ := item["code"].(string)
			if itemCode == "" {
				itemTitle, _ := item["title"].(string)
				itemCode = ExtractCode(itemTitle)
			}
			if itemCode != "" && strings.EqualFold(itemCode, code) {
				return item, MatchCode, 1.0
			}
		}
	}
	if title != "" {
		normTitle := strings.ToLower(textproc.Normalize(title))
		for _, item := range items {
			if normTitle == strings.ToLower(textproc.Normalize(itemTitle(item))) {
				return item, MatchTitleExact, 0.9
			}
		}
		for _, item := range items {
			normItem := strings.ToLower(textproc.Normalize(itemTitle(item)))
			if normItem == "" {
				continue
			}
			if strings.Contains(normItem, normTitle) || strings.Contains(normTitle, normItem) {
				return item, MatchTitlePartial, 0.7
			}
		}
	}
	return items[0], MatchFallback, 0.5
}

func itemTitle(item map[string]any) string {
	if t, _ := item["title"].(string); t != "" {
		return t
	}
	t, _ := item["name"].(string)
	return t
}

// NormalizeTPDBItem flattens a selected TPDB item into TPDBItem fields,
// grounded directly on the reference normalize_tpdb_item.
func NormalizeTPDBItem(item map[string]any) TPDBItem {
	title := itemTitle(item)
	originalTitle, _ := item["original_title"].(string)
	if originalTitle == "" {
		originalTitle, _ = item["originalTitle"].(string)
	}

	var aka string
	if v, ok := item["aka"]; ok {
		aka = ExtractNames(v)
	} else if v, ok := item["alternateTitles"]; ok {
		aka = ExtractNames(v)
	}

	actors := ExtractNames(firstNonNil(item["performers"], item["actors"]))
	tags := ExtractNames(item["tags"])
	studio := ExtractNames(item["studio"])
	series := ExtractNames(item["series"])

	var urlSites []string
	if urls, ok := item["urls"].([]any); ok {
		for _, u := range urls {
			um, ok := u.(map[string]any)
			if !ok {
				continue
			}
			switch site := um["site"].(type) {
			case map[string]any:
				if name, _ := site["name"].(string); name != "" {
					urlSites = append(urlSites, name)
				}
			case string:
				urlSites = append(urlSites, site)
			}
		}
	}
	site := ExtractNames(firstNonNil(item["site"], anySlice(urlSites)))

	releaseDate := firstNonEmptyString(item, "release_date", "releaseDate", "date", "production_date")
	plot := firstNonEmptyString(item, "description", "overview", "plot", "details")
	posterURL := ExtractImageURL(firstNonNil(item["image"], item["images"], item["poster"]))

	if aka == "" {
		if code, _ := item["code"].(string); code != "" {
			aka = code
		}
	}

	return TPDBItem{
		TPDBID:        firstNonEmptyString(item, "id", "uuid"),
		ExternalType:  firstNonEmptyString(item, "type", "__typename"),
		Title:         title,
		OriginalTitle: originalTitle,
		AKA:           aka,
		Actors:        actors,
		Tags:          tags,
		Studio:        studio,
		Series:        series,
		Site:          site,
		ReleaseDate:   releaseDate,
		Plot:          plot,
		PosterURL:     posterURL,
	}
}

func firstNonNil(values ...any) any {
	for _, v := range values {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		return v
	}
	return nil
}

func anySlice(ss []string) []any {
	if len(ss) == 0 {
		return nil
	}
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func firstNonEmptyString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, _ := item[key].(string); s != "" {
			return s
		}
	}
	return ""
}
