// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package enrichment

import (
	"strings"

	"github.com/hermes-search/hermes/internal/platform/config"
)

// NormalizeTMDBPayload flattens a raw TMDB JSON payload into the comma
// joined fields stored alongside the raw blob, capping cast/crew/alt-title
// lists per the configured limits, grounded directly on the reference
// normalize_tmdb_payload.
func NormalizeTMDBPayload(payload map[string]any, limits config.TMDBLimits) TMDBRecord {
	var rec TMDBRecord

	rec.IMDBID, _ = payload["imdb_id"].(string)
	rec.Genre = joinNames(asSlice(payload["genres"]), "name", 0)
	rec.Plot, _ = payload["overview"].(string)

	keywordsObj, _ := payload["keywords"].(map[string]any)
	var keywordList []any
	if keywordsObj != nil {
		if v, ok := keywordsObj["keywords"].([]any); ok {
			keywordList = v
		} else if v, ok := keywordsObj["results"].([]any); ok {
			keywordList = v
		}
	}
	rec.Keywords = joinNames(keywordList, "name", 0)

	credits, _ := payload["credits"].(map[string]any)
	var cast, crew []any
	if credits != nil {
		cast, _ = credits["cast"].([]any)
		crew, _ = credits["crew"].([]any)
	}
	actorLimit := defaultLimit(limits.Actors, 10)
	rec.Actors = joinNames(cast, "name", actorLimit)

	directorLimit := defaultLimit(limits.Directors, 5)
	var directors []string
	for _, entry := range crew {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if job, _ := m["job"].(string); job != "Director" {
			continue
		}
		if name, _ := m["name"].(string); name != "" {
			directors = append(directors, name)
		}
	}
	if directorLimit > 0 && len(directors) > directorLimit {
		directors = directors[:directorLimit]
	}
	rec.Directors = strings.Join(directors, ", ")

	altTitles, _ := payload["alternative_titles"].(map[string]any)
	var altList []any
	if altTitles != nil {
		if v, ok := altTitles["titles"].([]any); ok {
			altList = v
		} else if v, ok := altTitles["results"].([]any); ok {
			altList = v
		}
	}
	akaLimit := defaultLimit(limits.AKA, 10)
	rec.AKA = joinNames(altList, "title", akaLimit)

	return rec
}

func defaultLimit(configured, fallback int) int {
	if configured > 0 {
		return configured
	}
	return fallback
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// joinNames extracts the field key from each map in list (capped to limit
// entries when limit > 0) and joins the non-empty values with ", ".
func joinNames(list []any, field string, limit int) string {
	var names []string
	for i, entry := range list {
		if limit > 0 && i >= limit {
			break
		}
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m[field].(string)
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}
