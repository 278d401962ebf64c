// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package bitmagnet speaks the Bitmagnet GraphQL keyword-search API over plain
net/http, grounded directly on
original_source/src/cpu/clients/bitmagnet_graphql.py: same linear-backoff
retry over the same transient status set, same "try alternative query
shapes in order, first success wins" variant probing to tolerate upstream
schema drift, same 422-is-fatal split. No GraphQL client library appears
anywhere in the example corpus, and the wire protocol here is just two JSON
fields (query, variables), so a bespoke client is the idiom, not a gap.
*/
package bitmagnet

// Torrent is one matched node from a Bitmagnet torrents query, flattened
// from the nested content/collections/attributes shape the GraphQL schema
// returns.
type Torrent struct {
	InfoHash    string
	Name        string
	Size        int64
	FilesCount  int
	Seeders     int
	Leechers    int
	PublishedAt string

	ContentType    string
	ContentTitle   string
	ReleaseYear    int
	Collections    []string
	AttributeTags  map[string]string
}

// SearchResult is one SearchTorrents call's outcome.
type SearchResult struct {
	Torrents   []Torrent
	TotalCount int
}
