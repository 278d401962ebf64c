// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterMatchIsConjunctive(t *testing.T) {
	nsfw := true
	f := Filter{Source: "movies", NSFW: &nsfw}

	assert.True(t, f.Match(Payload{Source: "movies", NSFW: true}))
	assert.False(t, f.Match(Payload{Source: "movies", NSFW: false}))
	assert.False(t, f.Match(Payload{Source: "tv", NSFW: true}))
}

func TestFilterMatchIgnoresUnsetFields(t *testing.T) {
	f := Filter{}
	assert.True(t, f.Match(Payload{Source: "anything"}))
}

func TestFilterMatchGenreTagsIsAnyOf(t *testing.T) {
	f := Filter{GenreTags: []string{"action", "scifi"}}
	assert.True(t, f.Match(Payload{GenreTags: []string{"action", "drama"}}))
	assert.True(t, f.Match(Payload{GenreTags: []string{"scifi"}}))
	assert.False(t, f.Match(Payload{GenreTags: []string{"drama"}}))
}

func TestFilterMatchAudioSubtitleLangsIsAnyOf(t *testing.T) {
	f := Filter{AudioLangs: []string{"zh"}}
	assert.True(t, f.Match(Payload{AudioLangs: []string{"zh", "en"}}))
	assert.False(t, f.Match(Payload{AudioLangs: []string{"en"}}))

	f = Filter{SubtitleLangs: []string{"zh", "en"}}
	assert.True(t, f.Match(Payload{SubtitleLangs: []string{"en"}}))
	assert.False(t, f.Match(Payload{SubtitleLangs: []string{"jp"}}))
}

func TestFilterMatchSizeMinBytes(t *testing.T) {
	min := int64(1000)
	f := Filter{SizeMinBytes: &min}
	big := int64(2000)
	small := int64(500)
	assert.True(t, f.Match(Payload{Size: &big}))
	assert.False(t, f.Match(Payload{Size: &small}))
	assert.False(t, f.Match(Payload{Size: nil}))
}

func TestPayloadMarshalRoundTrip(t *testing.T) {
	size := int64(1024)
	p := Payload{Source: "movies", PGID: "1", Size: &size, GenreTags: []string{"action"}}

	data, err := p.MarshalPayload()
	assert.NoError(t, err)

	got, err := UnmarshalPayload(data)
	assert.NoError(t, err)
	assert.Equal(t, p.Source, got.Source)
	assert.Equal(t, *p.Size, *got.Size)
	assert.Equal(t, p.GenreTags, got.GenreTags)
}
