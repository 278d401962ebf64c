// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bitmagnet

// parseTorrentsEdges extracts SearchResult from the torrents_edges variant's
// data field, mirroring the reference client's extract_torrent_nodes /
// total_count static helpers.
func parseTorrentsEdges(data map[string]any) (SearchResult, bool) {
	torrentsField, ok := data["torrents"].(map[string]any)
	if !ok {
		return SearchResult{}, false
	}

	result := SearchResult{TotalCount: asInt(torrentsField["totalCount"])}

	edges, _ := torrentsField["edges"].([]any)
	for _, e := range edges {
		edge, ok := e.(map[string]any)
		if !ok {
			continue
		}
		node, ok := edge["node"].(map[string]any)
		if !ok {
			continue
		}
		result.Torrents = append(result.Torrents, torrentFromNode(node))
	}
	return result, true
}

// parseSearchResults extracts SearchResult from the search_results variant's
// flatter shape (no edges/node wrapping), tolerating a schema where the
// Bitmagnet deployment exposes a "search" root field instead of "torrents".
func parseSearchResults(data map[string]any) (SearchResult, bool) {
	searchField, ok := data["search"].(map[string]any)
	if !ok {
		return SearchResult{}, false
	}

	result := SearchResult{TotalCount: asInt(searchField["totalCount"])}

	items, _ := searchField["results"].([]any)
	for _, it := range items {
		node, ok := it.(map[string]any)
		if !ok {
			continue
		}
		result.Torrents = append(result.Torrents, torrentFromNode(node))
	}
	return result, true
}

func torrentFromNode(node map[string]any) Torrent {
	t := Torrent{
		InfoHash:    asString(node["infoHash"]),
		Name:        asString(node["name"]),
		Size:        asInt64(node["size"]),
		FilesCount:  asInt(node["filesCount"]),
		Seeders:     asInt(node["seeders"]),
		Leechers:    asInt(node["leechers"]),
		PublishedAt: asString(node["publishedAt"]),
	}

	if content, ok := node["content"].(map[string]any); ok {
		t.ContentType = asString(content["type"])
		t.ContentTitle = asString(content["title"])
		t.ReleaseYear = asInt(content["releaseYear"])

		if collections, ok := content["collections"].([]any); ok {
			for _, c := range collections {
				if cm, ok := c.(map[string]any); ok {
					if name := asString(cm["name"]); name != "" {
						t.Collections = append(t.Collections, name)
					}
				}
			}
		}

		if attrs, ok := content["attributes"].([]any); ok {
			for _, a := range attrs {
				am, ok := a.(map[string]any)
				if !ok {
					continue
				}
				key := asString(am["key"])
				if key == "" {
					continue
				}
				if t.AttributeTags == nil {
					t.AttributeTags = make(map[string]string)
				}
				t.AttributeTags[key] = asString(am["value"])
			}
		}
	}

	return t
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return int(f)
}

func asInt64(v any) int64 {
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return int64(f)
}
