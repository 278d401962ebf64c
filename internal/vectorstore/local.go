// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vectorstore

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/coder/hnsw"
)

// LocalConfig configures the local HNSW backend.
type LocalConfig struct {
	Path           string
	Dim            int
	Metric         string // cosine | dot | euclidean
	MaxElements    int
	M              int
	EfConstruction int
	EfSearch       int
}

// Local is a single-process nearest-neighbor index backed by
// coder/hnsw, grounded directly on amanmcp's HNSWStore: uint64 graph
// labels behind a (source,pg_id)-keyed string id map, lazy deletion on
// update/remove to sidestep coder/hnsw's last-node-deletion bug, and
// atomic temp-file-then-rename persistence of the graph plus a gob
// sidecar carrying the id/payload maps.
type Local struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	cfg    LocalConfig

	idMap      map[string]uint64
	keyMap     map[uint64]string
	payloadMap map[uint64]Payload
	nextKey    uint64

	closed bool
}

type localMetadata struct {
	IDMap      map[string]uint64
	PayloadMap map[uint64]Payload
	NextKey    uint64
	Cfg        LocalConfig
}

// NewLocal constructs a Local store, loading an existing index from
// cfg.Path if present.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 64
	}

	graph := hnsw.NewGraph[uint64]()
	switch cfg.Metric {
	case "dot":
		graph.Distance = dotDistance
	case "euclidean":
		graph.Distance = hnsw.EuclideanDistance
	default:
		graph.Distance = hnsw.CosineDistance
	}
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch

	l := &Local{
		graph:      graph,
		cfg:        cfg,
		idMap:      make(map[string]uint64),
		keyMap:     make(map[uint64]string),
		payloadMap: make(map[uint64]Payload),
	}

	if cfg.Path != "" {
		if _, err := os.Stat(cfg.Path); err == nil {
			if err := l.load(cfg.Path); err != nil {
				return nil, err
			}
		}
	}

	return l, nil
}

// dotDistance inverts the dot product so that "smaller is closer", the
// convention the rest of the distance functions use; scoring re-inverts
// it back to "larger is better" in scoreFor.
func dotDistance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return -sum
}

func (l *Local) Add(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("vectorstore: local store is closed")
	}

	for _, v := range vectors {
		if len(v.Embedding) != l.cfg.Dim {
			return &ErrDimensionMismatch{Expected: l.cfg.Dim, Got: len(v.Embedding)}
		}
	}

	for _, v := range vectors {
		if _, exists := l.idMap[v.ID]; !exists {
			if l.cfg.MaxElements > 0 && len(l.idMap) >= l.cfg.MaxElements {
				return &ErrMaxElements{MaxElements: l.cfg.MaxElements}
			}
		}
	}

	for _, v := range vectors {
		if existingKey, exists := l.idMap[v.ID]; exists {
			// Lazy delete: orphan the old key rather than calling
			// graph.Delete, which corrupts the graph on the last node.
			delete(l.keyMap, existingKey)
			delete(l.payloadMap, existingKey)
			delete(l.idMap, v.ID)
		}

		key := l.nextKey
		l.nextKey++

		vec := make([]float32, len(v.Embedding))
		copy(vec, v.Embedding)
		if l.cfg.Metric == "" || l.cfg.Metric == "cosine" {
			normalizeInPlace(vec)
		}

		l.graph.Add(hnsw.MakeNode(key, vec))
		l.idMap[v.ID] = key
		l.keyMap[key] = v.ID
		l.payloadMap[key] = v.Payload
	}

	// Persisting inside the same write-lock critical section as the label
	// allocation and payload update above means a reader can never observe
	// an in-memory graph that is ahead of what's on disk.
	return l.persistLocked()
}

func (l *Local) Query(ctx context.Context, query []float32, topK int, offset int, filter Filter) ([]Match, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, fmt.Errorf("vectorstore: local store is closed")
	}
	if len(query) != l.cfg.Dim {
		return nil, &ErrDimensionMismatch{Expected: l.cfg.Dim, Got: len(query)}
	}
	if l.graph.Len() == 0 {
		return nil, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	if l.cfg.Metric == "" || l.cfg.Metric == "cosine" {
		normalizeInPlace(q)
	}

	// Over-fetch to survive tombstones and the filter: ask the graph
	// for enough live candidates to cover offset+topK even after
	// dropping orphaned keys and non-matching payloads.
	want := offset + topK
	fetchK := want * 4
	if fetchK < want+32 {
		fetchK = want + 32
	}
	if fetchK > l.graph.Len() {
		fetchK = l.graph.Len()
	}

	nodes := l.graph.Search(q, fetchK)

	matches := make([]Match, 0, len(nodes))
	for _, node := range nodes {
		id, ok := l.keyMap[node.Key]
		if !ok {
			continue
		}
		payload := l.payloadMap[node.Key]
		if !filter.Match(payload) {
			continue
		}
		distance := l.graph.Distance(q, node.Value)
		matches = append(matches, Match{ID: id, Score: scoreFor(distance, l.cfg.Metric), Payload: payload})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	if offset >= len(matches) {
		return nil, nil
	}
	end := offset + topK
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end], nil
}

func scoreFor(distance float32, metric string) float32 {
	switch metric {
	case "dot":
		return -distance
	case "euclidean":
		return -distance
	default:
		return 1 - distance
	}
}

func (l *Local) Size(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return 0, fmt.Errorf("vectorstore: local store is closed")
	}
	return len(l.idMap), nil
}

// Persist writes the graph and its metadata sidecar atomically via
// temp-file-then-rename, mirroring amanmcp's Save. Add calls this itself
// under its own write lock after every batch; exported for callers (e.g. a
// shutdown hook) that want to force a flush outside that path.
func (l *Local) Persist() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistLocked()
}

// persistLocked assumes the caller already holds l.mu for writing.
func (l *Local) persistLocked() error {
	if l.closed {
		return fmt.Errorf("vectorstore: local store is closed")
	}
	if l.cfg.Path == "" {
		return nil
	}

	if dir := filepath.Dir(l.cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("vectorstore: create index dir: %w", err)
		}
	}

	tmpIndex := l.cfg.Path + ".tmp"
	f, err := os.Create(tmpIndex)
	if err != nil {
		return fmt.Errorf("vectorstore: create index file: %w", err)
	}
	if err := l.graph.Export(f); err != nil {
		f.Close()
		os.Remove(tmpIndex)
		return fmt.Errorf("vectorstore: export graph: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpIndex)
		return fmt.Errorf("vectorstore: close index file: %w", err)
	}
	if err := os.Rename(tmpIndex, l.cfg.Path); err != nil {
		os.Remove(tmpIndex)
		return fmt.Errorf("vectorstore: rename index file: %w", err)
	}

	return l.saveMetadata(l.cfg.Path + ".meta.gob")
}

func (l *Local) saveMetadata(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("vectorstore: create metadata file: %w", err)
	}

	meta := localMetadata{IDMap: l.idMap, PayloadMap: l.payloadMap, NextKey: l.nextKey, Cfg: l.cfg}
	if err := gob.NewEncoder(f).Encode(meta); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("vectorstore: encode metadata: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("vectorstore: close metadata file: %w", err)
	}
	return os.Rename(tmp, path)
}

func (l *Local) load(path string) error {
	metaPath := path + ".meta.gob"
	if _, err := os.Stat(metaPath); err == nil {
		if err := l.loadMetadata(metaPath); err != nil {
			return err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("vectorstore: open index file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	if err := l.graph.Import(reader); err != nil {
		return fmt.Errorf("vectorstore: import graph: %w", err)
	}
	return nil
}

func (l *Local) loadMetadata(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("vectorstore: open metadata file: %w", err)
	}
	defer f.Close()

	var meta localMetadata
	if err := gob.NewDecoder(f).Decode(&meta); err != nil {
		return fmt.Errorf("vectorstore: decode metadata: %w", err)
	}

	l.idMap = meta.IDMap
	l.payloadMap = meta.PayloadMap
	l.nextKey = meta.NextKey
	l.keyMap = make(map[uint64]string, len(l.idMap))
	for id, key := range l.idMap {
		l.keyMap[key] = id
	}
	return nil
}

func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	err := l.persistLocked()
	l.closed = true
	l.graph = nil
	return err
}

func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}

var _ Store = (*Local)(nil)
