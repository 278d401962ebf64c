// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package vectorstore abstracts the nearest-neighbor index behind three
interchangeable backends (a local coder/hnsw graph, a Qdrant cluster, and a
raw HTTP columnar store), selected at startup by vector_store.type and
presenting the same Add/Query/Size/Close contract to the sync coordinator
and search service.
*/
package vectorstore

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
)

// Payload is the flat metadata carried alongside each vector, matching the
// catalog record it was embedded from. It is a struct with explicit fields,
// not a map, so every backend's wire encoding (JSON for cluster A, column
// values for cluster B, gob for the local sidecar) stays exhaustive and
// typo-proof.
type Payload struct {
	Source          string
	PGID            string
	TextHash        string
	EmbeddingVersion string
	NSFW            bool
	NSFWScore       float64
	HasTMDB         bool
	TMDBID          string
	HasTPDB         bool
	TPDBID          string
	GenreTags       []string
	FileType        string
	AudioLangs      []string
	SubtitleLangs   []string
	Size            *int64
}

// MarshalPayload encodes a Payload as JSON, used by the cluster A and
// cluster B backends on the wire.
func (p Payload) MarshalPayload() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalPayload decodes a Payload previously produced by MarshalPayload.
func UnmarshalPayload(data []byte) (Payload, error) {
	var p Payload
	err := json.Unmarshal(data, &p)
	return p, err
}

func init() {
	gob.Register(Payload{})
}

// Filter restricts a Query to vectors whose payload matches every
// non-empty field set here. Filters are conjunctive; unset fields are
// ignored and unknown keys (on the wire) are simply never matched
// against.
type Filter struct {
	Source        string
	NSFW          *bool
	FileType      string
	HasTMDB       *bool
	HasTPDB       *bool
	GenreTags     []string
	AudioLangs    []string
	SubtitleLangs []string
	SizeMinBytes  *int64
}

// Match reports whether p satisfies every set field of f.
func (f Filter) Match(p Payload) bool {
	if f.Source != "" && f.Source != p.Source {
		return false
	}
	if f.NSFW != nil && *f.NSFW != p.NSFW {
		return false
	}
	if f.FileType != "" && f.FileType != p.FileType {
		return false
	}
	if f.HasTMDB != nil && *f.HasTMDB != p.HasTMDB {
		return false
	}
	if f.HasTPDB != nil && *f.HasTPDB != p.HasTPDB {
		return false
	}
	if !intersects(f.GenreTags, p.GenreTags) {
		return false
	}
	if !intersects(f.AudioLangs, p.AudioLangs) {
		return false
	}
	if !intersects(f.SubtitleLangs, p.SubtitleLangs) {
		return false
	}
	if f.SizeMinBytes != nil && (p.Size == nil || *p.Size < *f.SizeMinBytes) {
		return false
	}
	return true
}

// intersects reports whether any entry of want is present in got. An empty
// want is always satisfied (filter not set).
func intersects(want, got []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		for _, g := range got {
			if g == w {
				return true
			}
		}
	}
	return false
}

// Vector is one row to upsert: a stable id, the embedding, and its payload.
type Vector struct {
	ID        string
	Embedding []float32
	Payload   Payload
}

// Match is one ranked nearest-neighbor result.
type Match struct {
	ID      string
	Score   float32
	Payload Payload
}

// Store is the nearest-neighbor index contract shared by every backend.
type Store interface {
	// Add upserts vectors; re-adding an existing id replaces its vector
	// and payload.
	Add(ctx context.Context, vectors []Vector) error
	// Query returns the topK nearest matches to the query vector,
	// restricted by filter and paginated by offset (offset is applied
	// after filtering and scoring, with the backend over-fetching as
	// needed to satisfy offset+topK under a filter).
	Query(ctx context.Context, query []float32, topK int, offset int, filter Filter) ([]Match, error)
	// Size returns the number of live (non-tombstoned) vectors.
	Size(ctx context.Context) (int, error)
	Close() error
}

// ErrMaxElements is returned by Add when the local backend's
// max_elements capacity would be exceeded. There is no growth policy:
// operators must reconfigure and rebuild.
type ErrMaxElements struct {
	MaxElements int
}

func (e *ErrMaxElements) Error() string {
	return fmt.Sprintf("vectorstore: max_elements (%d) capacity reached, no growth policy configured", e.MaxElements)
}

// ErrDimensionMismatch is returned by Add/Query when a vector's length
// does not match the store's configured dimension.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vectorstore: dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
