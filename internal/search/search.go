// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hermes-search/hermes/internal/bitmagnet"
	"github.com/hermes-search/hermes/internal/catalog"
	"github.com/hermes-search/hermes/internal/embedclient"
	"github.com/hermes-search/hermes/internal/platform/apperr"
	"github.com/hermes-search/hermes/internal/queryrewrite"
	"github.com/hermes-search/hermes/internal/vectorstore"
)

const maxFetchK = 100

// Service implements the ten-step Search contract (§4.8), orchestrating the
// query rewriter, vector store, catalog reader, and optionally the
// Bitmagnet GraphQL keyword backend.
type Service struct {
	rewriter       *queryrewrite.Rewriter
	store          vectorstore.Store
	reader         *catalog.Reader
	syncStates     *catalog.SyncStateStore
	sources        map[string]*catalog.Source
	embedder       embedclient.Embedder
	bitmagnet      *bitmagnet.Client
	keywordBackend string // "sql" | "graphql"
	logger         *slog.Logger
}

// Config configures a new Service. Bitmagnet may be nil, which forces the
// SQL keyword path regardless of KeywordBackend.
type Config struct {
	Rewriter       *queryrewrite.Rewriter
	Store          vectorstore.Store
	Reader         *catalog.Reader
	SyncStates     *catalog.SyncStateStore
	Sources        []*catalog.Source
	Embedder       embedclient.Embedder
	Bitmagnet      *bitmagnet.Client
	KeywordBackend string
	Logger         *slog.Logger
}

// NewService builds a Service, indexing cfg.Sources by name for the
// per-source hydrate/keyword-search fan-out.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[string]*catalog.Source, len(cfg.Sources))
	for _, src := range cfg.Sources {
		byName[src.Name] = src
	}
	return &Service{
		rewriter:       cfg.Rewriter,
		store:          cfg.Store,
		reader:         cfg.Reader,
		syncStates:     cfg.SyncStates,
		sources:        byName,
		embedder:       cfg.Embedder,
		bitmagnet:      cfg.Bitmagnet,
		keywordBackend: cfg.KeywordBackend,
		logger:         logger,
	}
}

// rawHit is one ANN match before catalog hydration.
type rawHit struct {
	vectorID string
	score    float32
	payload  vectorstore.Payload
}

// Search runs the ten-step hybrid search contract for GET /search.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, apperr.ValidationError("q is required")
	}

	rw := s.rewriter.Rewrite(ctx, req.Query)

	filter := vectorstore.Filter{
		GenreTags:     rw.GenreTags,
		AudioLangs:    rw.AudioLangs,
		SubtitleLangs: rw.SubtitleLangs,
	}
	if rw.FileTypeKnown {
		filter.FileType = string(rw.FileType)
	}
	if req.TMDBOnly {
		tmdbOnly := true
		filter.HasTMDB = &tmdbOnly
	}
	if req.HasSizeMin {
		bytes := int64(req.SizeMinGB * 1e9)
		filter.SizeMinBytes = &bytes
	}

	fetchK := computeFetchK(req.TopK, req.PageSize)

	vectors, err := s.embedder.Embed(ctx, []string{rw.EmbedQuery})
	if err != nil {
		return nil, apperr.BadGateway(fmt.Errorf("search: embed query: %w", err))
	}
	if len(vectors) == 0 {
		return nil, apperr.Internal(fmt.Errorf("search: embedder returned no vector"))
	}

	matches, err := s.store.Query(ctx, vectors[0], fetchK, req.Cursor, filter)
	if err != nil {
		return nil, apperr.BadGateway(fmt.Errorf("search: vector store query: %w", err))
	}
	rawCount := len(matches)

	var nextCursor *int
	if rawCount == fetchK {
		n := req.Cursor + rawCount
		nextCursor = &n
	}

	// Step 4: dedupe raw hits by text_hash, falling back to source:pg_id.
	rawHits := make([]rawHit, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		key := m.Payload.TextHash
		if key == "" {
			key = m.Payload.Source + ":" + m.Payload.PGID
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		// Step 5: drop NSFW hits when excluded.
		if req.ExcludeNSFW && m.Payload.NSFW {
			continue
		}
		rawHits = append(rawHits, rawHit{vectorID: m.ID, score: m.Score, payload: m.Payload})
	}

	// Step 7: group by source, batched hydrate per source.
	bySource := make(map[string][]rawHit)
	for _, h := range rawHits {
		bySource[h.payload.Source] = append(bySource[h.payload.Source], h)
	}

	hits := make([]hit, 0, len(rawHits))
	for sourceName, sourceHits := range bySource {
		src, ok := s.sources[sourceName]
		if !ok {
			continue
		}

		ids := make([]string, len(sourceHits))
		for i, h := range sourceHits {
			ids[i] = h.payload.PGID
		}

		rows, err := s.reader.FetchByIDs(ctx, src, ids)
		if err != nil {
			s.logger.ErrorContext(ctx, "search_hydrate_failed", slog.String("source", sourceName), slog.Any("error", err))
			continue
		}
		rowByID := make(map[string]catalog.Row, len(rows))
		for _, row := range rows {
			rowByID[row.PGID] = row
		}

		for _, h := range sourceHits {
			row, ok := rowByID[h.payload.PGID]
			if !ok {
				// Step 7: catalog row missing at hydrate, drop silently.
				continue
			}
			hits = append(hits, projectHit(row, h.payload, float64(h.score)))
		}

		if src.KeywordSearch {
			kwHits, err := s.mergeKeywordHits(ctx, src, rw.CleanQuery, sourceHits)
			if err != nil {
				s.logger.WarnContext(ctx, "search_keyword_merge_failed", slog.String("source", sourceName), slog.Any("error", err))
			} else {
				hits = append(hits, kwHits...)
			}
		}
	}

	// Step 9: sort desc by score, dedupe by normalized title.
	sortByScoreDesc(hits)
	hits = dedupeByNormalizedTitle(hits)

	// Step 10: optional size re-sort.
	if req.SizeSort == "asc" || req.SizeSort == "desc" {
		sortBySize(hits, req.SizeSort)
	}

	if req.PageSize > 0 && len(hits) > req.PageSize {
		hits = hits[:req.PageSize]
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = h.result
	}

	return &Response{
		Count:      len(results),
		NextCursor: nextCursor,
		PageSize:   req.PageSize,
		Results:    results,
	}, nil
}

// mergeKeywordHits augments a source's ANN hits with SearchByKeyword rows
// not already present among the ids the ANN query surfaced, per step 7's
// "optionally augmented by search_by_keyword results merged under the same
// shape when keyword_search is enabled".
func (s *Service) mergeKeywordHits(ctx context.Context, src *catalog.Source, cleanQuery string, existing []rawHit) ([]hit, error) {
	present := make(map[string]struct{}, len(existing))
	for _, h := range existing {
		present[h.payload.PGID] = struct{}{}
	}

	rows, err := s.reader.SearchByKeyword(ctx, src, cleanQuery, maxFetchK)
	if err != nil {
		return nil, err
	}

	var out []hit
	for _, row := range rows {
		if _, ok := present[row.PGID]; ok {
			continue
		}
		payload := s.reconstitutePayload(ctx, src, row)
		score := KeywordScore(cleanQuery, titleFromRow(row))
		out = append(out, projectHit(row, payload, score))
	}
	return out, nil
}

// reconstitutePayload fills in the NSFW flag a keyword-only hit lacks (it
// never went through the vector store), via the ancillary fetch_sync_scores
// operation (§4.1): read the sync-state row's nsfw_score and re-derive nsfw
// the same way the sync coordinator does.
func (s *Service) reconstitutePayload(ctx context.Context, src *catalog.Source, row catalog.Row) vectorstore.Payload {
	p := vectorstore.Payload{Source: src.Name, PGID: row.PGID}
	if s.syncStates == nil {
		return p
	}
	rec, err := s.syncStates.Fetch(ctx, src.Name, row.PGID)
	if err != nil || rec == nil {
		return p
	}
	p.NSFWScore = rec.NSFWScore
	p.NSFW = src.NSFWTag && rec.NSFWScore > 0
	return p
}

func projectHit(row catalog.Row, payload vectorstore.Payload, score float64) hit {
	return hit{
		result: Result{
			Score:     score,
			Source:    row.Source,
			PGID:      row.PGID,
			Title:     titleFromRow(row),
			NSFW:      payload.NSFW,
			NSFWScore: payload.NSFWScore,
			Metadata:  metadataFromRow(row),
		},
		size: row.Size,
	}
}

// titleFromRow resolves the display title from the source's configured
// extra fields (extra_fields: ["title", ...]), falling back to the raw
// indexed text when no such column was configured.
func titleFromRow(row catalog.Row) string {
	if title, ok := row.Extra["title"]; ok && title != "" {
		return title
	}
	return row.Text
}

// metadataFromRow builds the Result.metadata object. Bytea columns are
// already rendered as \xHEX strings by the catalog reader's SQL (every
// identifier is selected through a ::text cast), so no further byte
// serialization is needed here.
func metadataFromRow(row catalog.Row) map[string]any {
	meta := make(map[string]any, len(row.Extra)+1)
	for k, v := range row.Extra {
		meta[k] = v
	}
	if row.Size != nil {
		meta["size"] = *row.Size
	}
	return meta
}

// SearchKeyword runs the GET /search_keyword contract: a GraphQL lookup
// through Bitmagnet when configured and selected, else the SQL keyword path
// across the named (or every keyword_search-enabled) sources.
func (s *Service) SearchKeyword(ctx context.Context, req KeywordRequest) (*Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, apperr.ValidationError("q is required")
	}

	var hits []hit
	if s.bitmagnet != nil && s.keywordBackend == "graphql" {
		result, err := s.bitmagnet.SearchTorrents(ctx, req.Query, maxFetchK)
		if err != nil {
			return nil, apperr.BadGateway(fmt.Errorf("search_keyword: bitmagnet: %w", err))
		}
		for _, t := range result.Torrents {
			hits = append(hits, hit{result: Result{
				Score:    KeywordScore(req.Query, t.ContentTitle),
				Source:   "bitmagnet",
				PGID:     t.InfoHash,
				Title:    firstNonEmpty(t.ContentTitle, t.Name),
				Metadata: torrentMetadata(t),
			}})
		}
	} else {
		for _, src := range s.sourcesToSearch(req.Sources) {
			if !src.KeywordSearch {
				continue
			}
			rows, err := s.reader.SearchByKeyword(ctx, src, req.Query, maxFetchK)
			if err != nil {
				s.logger.WarnContext(ctx, "search_keyword_sql_failed", slog.String("source", src.Name), slog.Any("error", err))
				continue
			}
			for _, row := range rows {
				payload := s.reconstitutePayload(ctx, src, row)
				score := KeywordScore(req.Query, titleFromRow(row))
				hits = append(hits, projectHit(row, payload, score))
			}
		}
	}

	sortByScoreDesc(hits)
	hits = dedupeByNormalizedTitle(hits)

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	start := req.Cursor
	if start > len(hits) {
		start = len(hits)
	}
	end := start + pageSize
	if end > len(hits) {
		end = len(hits)
	}
	page := hits[start:end]

	var nextCursor *int
	if end < len(hits) {
		n := end
		nextCursor = &n
	}

	results := make([]Result, len(page))
	for i, h := range page {
		results[i] = h.result
	}

	return &Response{Count: len(results), NextCursor: nextCursor, PageSize: pageSize, Results: results}, nil
}

func (s *Service) sourcesToSearch(names []string) []*catalog.Source {
	if len(names) == 0 {
		out := make([]*catalog.Source, 0, len(s.sources))
		for _, src := range s.sources {
			out = append(out, src)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out
	}
	out := make([]*catalog.Source, 0, len(names))
	for _, n := range names {
		if src, ok := s.sources[n]; ok {
			out = append(out, src)
		}
	}
	return out
}

func torrentMetadata(t bitmagnet.Torrent) map[string]any {
	return map[string]any{
		"size":          t.Size,
		"files_count":   t.FilesCount,
		"seeders":       t.Seeders,
		"leechers":      t.Leechers,
		"published_at":  t.PublishedAt,
		"content_type":  t.ContentType,
		"release_year":  t.ReleaseYear,
		"collections":   t.Collections,
	}
}

// computeFetchK derives fetch_k = min(100, max(topk, page_size)), falling
// back to the cap when both inputs are non-positive.
func computeFetchK(topK, pageSize int) int {
	fetchK := topK
	if pageSize > fetchK {
		fetchK = pageSize
	}
	if fetchK > maxFetchK {
		fetchK = maxFetchK
	}
	if fetchK <= 0 {
		fetchK = maxFetchK
	}
	return fetchK
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
