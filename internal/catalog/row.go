// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import "time"

// Row is one hydrated catalog record read from a source table, keyed by the
// (source, pg_id) identity every downstream component uses.
type Row struct {
	Source    string
	PGID      string
	Text      string
	UpdatedAt *time.Time
	Size      *int64
	Extra     map[string]string
}

// VectorKey is the stable string used to join a Row to its sync-state
// record and its vector store id derivation.
func (r Row) VectorKey() string {
	return r.Source + ":" + r.PGID
}
