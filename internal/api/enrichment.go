// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"net/http"

	"github.com/hermes-search/hermes/internal/bitmagnet"
	"github.com/hermes-search/hermes/internal/enrichment"
	"github.com/hermes-search/hermes/internal/platform/apperr"
	"github.com/hermes-search/hermes/internal/platform/respond"
)

// EnrichmentHandler serves the ancillary enrichment/torrent lookup
// endpoints that sit alongside the main search contract: a detail lookup
// and a recency listing over the TMDB cache, and a torrent file listing
// via the Bitmagnet GraphQL backend when configured.
type EnrichmentHandler struct {
	store     *enrichment.Store
	bitmagnet *bitmagnet.Client
}

// NewEnrichmentHandler constructs an EnrichmentHandler. bitmagnet may be nil,
// in which case /torrent_files reports 501 Not Implemented.
func NewEnrichmentHandler(store *enrichment.Store, bm *bitmagnet.Client) *EnrichmentHandler {
	return &EnrichmentHandler{store: store, bitmagnet: bm}
}

// TMDBDetail handles GET /tmdb_detail?content_type=&content_source=&content_id=.
func (h *EnrichmentHandler) TMDBDetail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := enrichment.Ref{
		ContentType:   q.Get("content_type"),
		ContentSource: q.Get("content_source"),
		ContentID:     q.Get("content_id"),
	}
	if ref.ContentType == "" || ref.ContentID == "" {
		respond.Error(w, r, apperr.ValidationError("content_type and content_id are required"))
		return
	}

	rec, err := h.store.FetchTMDB(r.Context(), ref)
	if err != nil {
		respond.Error(w, r, apperr.Internal(err))
		return
	}
	if rec == nil {
		respond.Error(w, r, apperr.NotFound("TMDB record"))
		return
	}
	respond.OK(w, rec)
}

// TMDBLatest handles GET /tmdb_latest?limit=.
func (h *EnrichmentHandler) TMDBLatest(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r.URL.Query(), "limit", 20)

	records, err := h.store.ListRecentTMDB(r.Context(), limit)
	if err != nil {
		respond.Error(w, r, apperr.Internal(err))
		return
	}
	respond.OK(w, records)
}

// TorrentFiles handles GET /torrent_files?info_hash=, resolving the file
// listing for a torrent through the Bitmagnet GraphQL backend, the same
// source /search_keyword's graphql path reads from.
func (h *EnrichmentHandler) TorrentFiles(w http.ResponseWriter, r *http.Request) {
	if h.bitmagnet == nil {
		respond.NotImplemented(w, r)
		return
	}

	infoHash := r.URL.Query().Get("info_hash")
	if infoHash == "" {
		respond.Error(w, r, apperr.ValidationError("info_hash is required"))
		return
	}

	result, err := h.bitmagnet.SearchTorrents(r.Context(), infoHash, 1)
	if err != nil {
		respond.Error(w, r, apperr.BadGateway(err))
		return
	}
	if len(result.Torrents) == 0 {
		respond.Error(w, r, apperr.NotFound("Torrent"))
		return
	}
	respond.OK(w, result.Torrents[0])
}
