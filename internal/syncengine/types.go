// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package syncengine drives one source's catalog rows into the vector store:
fetch a batch, resolve enrichment, normalize text, embed, write the vector,
then commit sync-state — in that order, so a crash between the vector write
and the sync-state commit is always safely replayable on the next cycle.

The coordinator is a producer/consumer pipeline: one goroutine serially
fetches pages from internal/catalog and pushes them onto a bounded channel,
guarding an in-flight (source,pg_id) set before each push; a
golang.org/x/sync/errgroup group of concurrency worker goroutines drains
the channel and commits each batch.
*/
package syncengine

import "time"

// Result summarizes one source's run, returned to cmd/sync for logging and
// exit-code decisions.
type Result struct {
	Source     string
	Fetched    int
	Embedded   int
	Failed     int
	Aborted    bool
	AbortedErr error
	Duration   time.Duration
}

// rowError pairs a failed row with the message recorded against it.
type rowError struct {
	pgID    string
	message string
}
