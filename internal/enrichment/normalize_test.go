// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hermes-search/hermes/internal/platform/config"
)

func TestNormalizeTMDBPayloadJoinsFields(t *testing.T) {
	payload := map[string]any{
		"imdb_id":  "tt1234567",
		"overview": "A plot.",
		"genres": []any{
			map[string]any{"name": "Action"},
			map[string]any{"name": "Drama"},
		},
		"keywords": map[string]any{
			"keywords": []any{map[string]any{"name": "heist"}},
		},
		"credits": map[string]any{
			"cast": []any{
				map[string]any{"name": "Actor One"},
				map[string]any{"name": "Actor Two"},
			},
			"crew": []any{
				map[string]any{"name": "Director One", "job": "Director"},
				map[string]any{"name": "Writer One", "job": "Writer"},
			},
		},
		"alternative_titles": map[string]any{
			"titles": []any{map[string]any{"title": "Alt Title"}},
		},
	}

	rec := NormalizeTMDBPayload(payload, config.TMDBLimits{Actors: 1, Directors: 5, AKA: 10})

	assert.Equal(t, "tt1234567", rec.IMDBID)
	assert.Equal(t, "A plot.", rec.Plot)
	assert.Equal(t, "Action, Drama", rec.Genre)
	assert.Equal(t, "heist", rec.Keywords)
	assert.Equal(t, "Actor One", rec.Actors)
	assert.Equal(t, "Director One", rec.Directors)
	assert.Equal(t, "Alt Title", rec.AKA)
}

func TestNormalizeTMDBPayloadHandlesMissingSections(t *testing.T) {
	rec := NormalizeTMDBPayload(map[string]any{}, config.TMDBLimits{})
	assert.Equal(t, "", rec.Genre)
	assert.Equal(t, "", rec.Actors)
	assert.Equal(t, "", rec.Directors)
}
