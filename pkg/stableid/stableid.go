// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package stableid derives deterministic vector identifiers from a record's
// (source, pg_id) pair.
//
// # Why UUIDv5?
//
// The vector store must return the same identifier for the same catalog row
// across repeated sync cycles so that re-indexing overwrites rather than
// duplicates a point. UUIDv5 is a deterministic, namespaced hash (SHA-1 based)
// over an input string, which makes "same input always produces the same
// UUID" the whole point of the algorithm — unlike UUIDv7 (pkg/uuidv7), which
// is intentionally random/time-ordered and unsuitable here.
package stableid

import "github.com/google/uuid"

// vectorNamespace is a fixed namespace UUID (the URL namespace, per spec) used
// to derive stable per-record vector ids. It must never change across
// deployments or previously indexed vectors become unreachable by id.
var vectorNamespace = uuid.NameSpaceURL

// VectorID returns the stable UUIDv5 vector id for a (source, pg_id) pair.
func VectorID(source, pgID string) string {
	return uuid.NewSHA1(vectorNamespace, []byte(source+":"+pgID)).String()
}
