// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/hermes-search/hermes/internal/platform/apperr"
	"github.com/hermes-search/hermes/internal/platform/respond"
	"github.com/hermes-search/hermes/internal/search"
)

const (
	defaultTopK      = 20
	defaultPageSize  = 20
	defaultExclNSFW  = true
)

// SearchHandler serves GET /search and GET /search_keyword, decoding query
// parameters into internal/search's Request/KeywordRequest shapes.
type SearchHandler struct {
	svc    *search.Service
	status *search.StatusCache
}

// NewSearchHandler constructs a SearchHandler.
func NewSearchHandler(svc *search.Service, status *search.StatusCache) *SearchHandler {
	return &SearchHandler{svc: svc, status: status}
}

// Search handles GET /search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := search.Request{
		Query:       q.Get("q"),
		TopK:        queryInt(q, "top_k", defaultTopK),
		ExcludeNSFW: queryBool(q, "exclude_nsfw", defaultExclNSFW),
		TMDBOnly:    queryBool(q, "tmdb_only", false),
		SizeSort:    q.Get("size_sort"),
		PageSize:    queryInt(q, "page_size", defaultPageSize),
		Cursor:      queryInt(q, "cursor", 0),
	}

	if raw := q.Get("size_min_gb"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respond.Error(w, r, apperr.ValidationError("size_min_gb must be a number"))
			return
		}
		req.SizeMinGB = v
		req.HasSizeMin = true
	}

	if req.SizeSort != "" && req.SizeSort != "asc" && req.SizeSort != "desc" {
		respond.Error(w, r, apperr.ValidationError("size_sort must be asc or desc"))
		return
	}

	resp, err := h.svc.Search(r.Context(), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, resp)
}

// SearchKeyword handles GET /search_keyword.
func (h *SearchHandler) SearchKeyword(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var sources []string
	if raw := q.Get("sources"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				sources = append(sources, s)
			}
		}
	}

	req := search.KeywordRequest{
		Query:    q.Get("q"),
		Sources:  sources,
		PageSize: queryInt(q, "page_size", defaultPageSize),
		Cursor:   queryInt(q, "cursor", 0),
	}

	resp, err := h.svc.SearchKeyword(r.Context(), req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.OK(w, resp)
}

// SyncStatus handles GET /sync_status, serving the most recently refreshed
// StatusCache snapshot rather than recomputing the aggregate per request.
func (h *SearchHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, h.status.Snapshot())
}

func queryInt(q map[string][]string, key string, fallback int) int {
	raw := firstValue(q, key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryBool(q map[string][]string, key string, fallback bool) bool {
	raw := firstValue(q, key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func firstValue(q map[string][]string, key string) string {
	vals := q[key]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
