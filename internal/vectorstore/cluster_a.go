// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vectorstore

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// splitHostPort parses "host:port" into components, defaulting to
// Qdrant's gRPC port (6334, not the 6333 HTTP REST port) when port is
// omitted.
func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6334, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("vectorstore: invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}

// ClusterAConfig configures the Qdrant-backed remote vector store.
type ClusterAConfig struct {
	URL            string
	Collection     string
	Dim            int
	Metric         string // cosine | dot | euclidean
	TimeoutSeconds float64
}

// ClusterA is a Qdrant gRPC-backed Store, grounded on contextd's
// QdrantStore: point upsert via PointStruct, payload translated to
// qdrant.Value, and Filter translated into Must conditions the same
// way contextd's adapter builds its tenant filter.
type ClusterA struct {
	client     *qdrant.Client
	collection string
	dim        int
	timeout    time.Duration
}

// NewClusterA dials the Qdrant collection named in cfg, creating it if
// absent.
func NewClusterA(ctx context.Context, cfg ClusterAConfig) (*ClusterA, error) {
	host, port, err := splitHostPort(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: connect qdrant: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds * float64(time.Second))
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := &ClusterA{client: client, collection: cfg.Collection, dim: cfg.Dim, timeout: timeout}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	exists, err := client.CollectionExists(checkCtx, cfg.Collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("vectorstore: check qdrant collection: %w", err)
	}
	if !exists {
		createCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		err := client.CreateCollection(createCtx, &qdrant.CreateCollection{
			CollectionName: cfg.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(cfg.Dim),
				Distance: qdrantMetric(cfg.Metric),
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("vectorstore: create qdrant collection: %w", err)
		}
	}

	return store, nil
}

func qdrantMetric(metric string) qdrant.Distance {
	switch metric {
	case "dot":
		return qdrant.Distance_Dot
	case "euclidean":
		return qdrant.Distance_Euclid
	default:
		return qdrant.Distance_Cosine
	}
}

// isTransientGRPC reports whether err is a retryable gRPC status,
// mirroring contextd's IsTransientError.
func isTransientGRPC(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case grpccodes.Unavailable, grpccodes.DeadlineExceeded, grpccodes.Aborted, grpccodes.ResourceExhausted:
		return true
	default:
		return false
	}
}

func (c *ClusterA) Add(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	for _, v := range vectors {
		if len(v.Embedding) != c.dim {
			return &ErrDimensionMismatch{Expected: c.dim, Got: len(v.Embedding)}
		}
	}

	points := make([]*qdrant.PointStruct, len(vectors))
	for i, v := range vectors {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(stableUUID(v.ID)),
			Vectors: qdrant.NewVectors(v.Embedding...),
			Payload: payloadToQdrant(v.ID, v.Payload),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{CollectionName: c.collection, Points: points})
	if err != nil {
		if isTransientGRPC(err) {
			return fmt.Errorf("vectorstore: qdrant upsert transiently failed: %w", err)
		}
		return fmt.Errorf("vectorstore: qdrant upsert: %w", err)
	}
	return nil
}

// stableUUID maps an arbitrary string vector id onto a UUID, since
// Qdrant point ids must be either a UUID or an unsigned integer; the
// original string id is preserved in the payload's "vector_id" field.
func stableUUID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func payloadToQdrant(vectorID string, p Payload) map[string]*qdrant.Value {
	out := map[string]*qdrant.Value{
		"vector_id":         strVal(vectorID),
		"source":            strVal(p.Source),
		"pg_id":             strVal(p.PGID),
		"text_hash":         strVal(p.TextHash),
		"embedding_version": strVal(p.EmbeddingVersion),
		"nsfw":              boolVal(p.NSFW),
		"nsfw_score":        doubleVal(p.NSFWScore),
		"has_tmdb":          boolVal(p.HasTMDB),
		"tmdb_id":           strVal(p.TMDBID),
		"has_tpdb":          boolVal(p.HasTPDB),
		"tpdb_id":           strVal(p.TPDBID),
		"file_type":         strVal(p.FileType),
		"genre_tags":        strListVal(p.GenreTags),
		"audio_langs":       strListVal(p.AudioLangs),
		"subtitle_langs":    strListVal(p.SubtitleLangs),
	}
	if p.Size != nil {
		out["size"] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: *p.Size}}
	}
	return out
}

func strVal(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func boolVal(b bool) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: b}}
}

func doubleVal(f float64) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: f}}
}

func strListVal(ss []string) *qdrant.Value {
	values := make([]*qdrant.Value, len(ss))
	for i, s := range ss {
		values[i] = strVal(s)
	}
	return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: values}}}
}

func payloadFromQdrant(fields map[string]*qdrant.Value) Payload {
	get := func(key string) string {
		if v, ok := fields[key]; ok {
			return v.GetStringValue()
		}
		return ""
	}
	getBool := func(key string) bool {
		if v, ok := fields[key]; ok {
			return v.GetBoolValue()
		}
		return false
	}
	getList := func(key string) []string {
		v, ok := fields[key]
		if !ok || v.GetListValue() == nil {
			return nil
		}
		items := v.GetListValue().GetValues()
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.GetStringValue()
		}
		return out
	}

	p := Payload{
		Source:           get("source"),
		PGID:             get("pg_id"),
		TextHash:         get("text_hash"),
		EmbeddingVersion: get("embedding_version"),
		NSFW:             getBool("nsfw"),
		HasTMDB:          getBool("has_tmdb"),
		TMDBID:           get("tmdb_id"),
		HasTPDB:          getBool("has_tpdb"),
		TPDBID:           get("tpdb_id"),
		FileType:         get("file_type"),
		GenreTags:        getList("genre_tags"),
		AudioLangs:       getList("audio_langs"),
		SubtitleLangs:    getList("subtitle_langs"),
	}
	if v, ok := fields["nsfw_score"]; ok {
		p.NSFWScore = v.GetDoubleValue()
	}
	if v, ok := fields["size"]; ok {
		size := v.GetIntegerValue()
		p.Size = &size
	}
	return p
}

// buildFilter translates a Filter into Qdrant Must conditions.
func buildFilter(f Filter) *qdrant.Filter {
	var conditions []*qdrant.Condition
	if f.Source != "" {
		conditions = append(conditions, keywordCondition("source", f.Source))
	}
	if f.NSFW != nil {
		conditions = append(conditions, boolCondition("nsfw", *f.NSFW))
	}
	if f.FileType != "" {
		conditions = append(conditions, keywordCondition("file_type", f.FileType))
	}
	if f.HasTMDB != nil {
		conditions = append(conditions, boolCondition("has_tmdb", *f.HasTMDB))
	}
	if f.HasTPDB != nil {
		conditions = append(conditions, boolCondition("has_tpdb", *f.HasTPDB))
	}
	if c := anyOfCondition("genre_tags", f.GenreTags); c != nil {
		conditions = append(conditions, c)
	}
	if c := anyOfCondition("audio_langs", f.AudioLangs); c != nil {
		conditions = append(conditions, c)
	}
	if c := anyOfCondition("subtitle_langs", f.SubtitleLangs); c != nil {
		conditions = append(conditions, c)
	}
	if f.SizeMinBytes != nil {
		conditions = append(conditions, rangeGTECondition("size", float64(*f.SizeMinBytes)))
	}
	if len(conditions) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: conditions}
}

// anyOfCondition matches payloads whose array-valued key contains at least
// one of values, via a nested Should sub-filter (Qdrant has no native
// "array field contains any of" condition for repeated keyword payloads
// indexed this way, so a Should-of-keyword-matches stands in for it).
func anyOfCondition(key string, values []string) *qdrant.Condition {
	if len(values) == 0 {
		return nil
	}
	should := make([]*qdrant.Condition, 0, len(values))
	for _, v := range values {
		should = append(should, keywordCondition(key, v))
	}
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Filter{
			Filter: &qdrant.Filter{Should: should},
		},
	}
}

func rangeGTECondition(key string, min float64) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{Key: key, Range: &qdrant.Range{Gte: &min}},
		},
	}
}

func keywordCondition(key, value string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{Key: key, Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: value}}},
		},
	}
}

func boolCondition(key string, value bool) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{Key: key, Match: &qdrant.Match{MatchValue: &qdrant.Match_Boolean{Boolean: value}}},
		},
	}
}

func (c *ClusterA) Query(ctx context.Context, query []float32, topK int, offset int, filter Filter) ([]Match, error) {
	if len(query) != c.dim {
		return nil, &ErrDimensionMismatch{Expected: c.dim, Got: len(query)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	limit := uint64(topK + offset)
	points, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         buildFilter(filter),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: qdrant query: %w", err)
	}

	if offset >= len(points) {
		return nil, nil
	}
	points = points[offset:]
	if len(points) > topK {
		points = points[:topK]
	}

	matches := make([]Match, len(points))
	for i, p := range points {
		payload := payloadFromQdrant(p.Payload)
		vectorID := payload.PGID
		if v, ok := p.Payload["vector_id"]; ok {
			vectorID = v.GetStringValue()
		}
		matches[i] = Match{ID: vectorID, Score: p.Score, Payload: payload}
	}
	return matches, nil
}

func (c *ClusterA) Size(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	info, err := c.client.GetCollectionInfo(ctx, c.collection)
	if err != nil {
		return 0, fmt.Errorf("vectorstore: qdrant collection info: %w", err)
	}
	if info.PointsCount == nil {
		return 0, nil
	}
	return int(*info.PointsCount), nil
}

func (c *ClusterA) Close() error {
	return c.client.Close()
}

var _ Store = (*ClusterA)(nil)
