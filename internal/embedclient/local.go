// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package embedclient

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// LocalEmbedder is a dependency-free, hash-based embedder used when
// local_embedder.enabled is set, grounded on the pack's static hash-bucket
// embedder idiom but tokenized for catalog titles/overviews rather than
// source code (no programming stop-word filter, Unicode-aware token regex
// so CJK text buckets sensibly).
type LocalEmbedder struct {
	dim int
}

// NewLocalEmbedder constructs a local embedder producing vectors of dim
// dimensions, matching vector_store.dim so it can stand in for the remote
// service during development or air-gapped operation.
func NewLocalEmbedder(dim int) *LocalEmbedder {
	return &LocalEmbedder{dim: dim}
}

// Embed hash-buckets each token and trigram into a fixed-size vector, then
// L2-normalizes it so it is directly comparable to remote embeddings under
// cosine similarity.
func (e *LocalEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *LocalEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dim)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return vec
	}

	for _, tok := range tokenPattern.FindAllString(strings.ToLower(trimmed), -1) {
		vec[bucket(tok, e.dim)] += 0.7
	}
	for _, gram := range trigrams(trimmed) {
		vec[bucket(gram, e.dim)] += 0.3
	}

	return l2Normalize(vec)
}

func bucket(s string, dim int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % uint32(dim))
}

func trigrams(s string) []string {
	runes := []rune(strings.ToLower(s))
	if len(runes) < 3 {
		return []string{string(runes)}
	}
	grams := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+3]))
	}
	return grams
}

func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
