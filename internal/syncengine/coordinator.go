// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package syncengine

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hermes-search/hermes/internal/catalog"
	"github.com/hermes-search/hermes/internal/embedclient"
	"github.com/hermes-search/hermes/internal/enrichment"
	"github.com/hermes-search/hermes/internal/platform/constants"
	"github.com/hermes-search/hermes/internal/textproc"
	"github.com/hermes-search/hermes/internal/vectorstore"
	"github.com/hermes-search/hermes/pkg/stableid"
)

// Embedder is the subset of embedclient.Client this package depends on,
// letting tests substitute a fake without a network round trip.
type Embedder interface {
	Infer(ctx context.Context, texts []string) ([][]float32, []float64, error)
}

// Reader is the subset of catalog.Reader the coordinator drives a source
// through, letting tests substitute a fake without a Postgres connection.
type Reader interface {
	FetchPending(ctx context.Context, src *catalog.Source, cursor string, limit int) ([]catalog.Row, string, error)
}

// SyncStateStore is the subset of catalog.SyncStateStore the coordinator
// commits to.
type SyncStateStore interface {
	Upsert(ctx context.Context, rec catalog.SyncRecord) error
	RecordError(ctx context.Context, source, pgID, message string) error
}

// Coordinator drives one configured source through the fetch → enrich →
// normalize → embed → vector-add → sync-state-commit pipeline.
type Coordinator struct {
	reader     Reader
	syncState  SyncStateStore
	orch       *enrichment.Orchestrator
	embedder   Embedder
	store      vectorstore.Store
	logger     *slog.Logger

	embeddingVersion string
	nsfwThreshold    float64
}

// NewCoordinator constructs a Coordinator. orch may be nil for sources with
// neither tmdb_enrich nor tpdb_enrich configured.
func NewCoordinator(
	reader Reader,
	syncState SyncStateStore,
	orch *enrichment.Orchestrator,
	embedder Embedder,
	store vectorstore.Store,
	embeddingVersion string,
	nsfwThreshold float64,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		reader:           reader,
		syncState:        syncState,
		orch:             orch,
		embedder:         embedder,
		store:            store,
		embeddingVersion: embeddingVersion,
		nsfwThreshold:    nsfwThreshold,
		logger:           logger,
	}
}

// batchJob is one page of pending rows pushed from the fetch goroutine to
// the worker pool.
type batchJob struct {
	rows []catalog.Row
}

// Run drives src to completion: serially fetches pages, in-flight-dedupes
// them, and fans them out across concurrency workers, draining the channel
// before returning. A dimension mismatch aborts the source for this cycle
// (Result.Aborted). A failed batch (enrichment, embedding or vector write)
// has each of its rows recorded as a sync-state error and counted as
// failed; the run goes on with the next batch and is not aborted.
func (c *Coordinator) Run(ctx context.Context, src *catalog.Source, batchSize, concurrency int) Result {
	start := time.Now()
	res := Result{Source: src.Name}

	if batchSize <= 0 {
		batchSize = 64
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	jobs := make(chan batchJob, concurrency)
	var inFlight sync.Map // pg_id -> struct{}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex // guards res's counters across workers

	for i := 0; i < concurrency; i++ {
		g.Go(func() error {
			for job := range jobs {
				fetched, embedded, failed, abortErr := c.commitBatch(gctx, src, job.rows)

				mu.Lock()
				res.Fetched += fetched
				res.Embedded += embedded
				res.Failed += failed
				mu.Unlock()

				for _, row := range job.rows {
					inFlight.Delete(row.PGID)
				}

				if abortErr != nil {
					return abortErr
				}
			}
			return nil
		})
	}

	fetchErr := c.produce(gctx, src, batchSize, jobs, &inFlight)

	workerErr := g.Wait()

	if workerErr != nil {
		res.Aborted = true
		res.AbortedErr = workerErr
	} else if fetchErr != nil {
		res.Aborted = true
		res.AbortedErr = fetchErr
	}

	res.Duration = time.Since(start)
	return res
}

// produce serially pages through src's pending rows, skipping any (pg_id)
// already in flight, and pushes each page onto jobs. It closes jobs when
// either the catalog is exhausted or ctx is done.
func (c *Coordinator) produce(ctx context.Context, src *catalog.Source, batchSize int, jobs chan<- batchJob, inFlight *sync.Map) error {
	defer close(jobs)

	cursor := ""
	for {
		rows, next, err := c.reader.FetchPending(ctx, src, cursor, batchSize)
		if err != nil {
			return fmt.Errorf("syncengine: fetch pending for %s: %w", src.Name, err)
		}
		if len(rows) == 0 {
			return nil
		}

		var batch []catalog.Row
		for _, row := range rows {
			if _, already := inFlight.LoadOrStore(row.PGID, struct{}{}); already {
				continue
			}
			batch = append(batch, row)
		}

		if len(batch) > 0 {
			select {
			case jobs <- batchJob{rows: batch}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if next == cursor {
			return nil
		}
		cursor = next
	}
}

// commitBatch runs one page through enrichment, normalization, embedding,
// the vector store write, and the sync-state commit, in that order.
func (c *Coordinator) commitBatch(ctx context.Context, src *catalog.Source, rows []catalog.Row) (fetched, embedded, failed int, abortErr error) {
	fetched = len(rows)
	if len(rows) == 0 {
		return 0, 0, 0, nil
	}

	rows, err := c.enrich(ctx, src, rows)
	if err != nil {
		c.recordBatchFailure(ctx, src, rows, err)
		return fetched, 0, len(rows), nil
	}

	featuresByID := make(map[string]textproc.Features, len(rows))
	texts := make([]string, len(rows))
	for i, row := range rows {
		f := textproc.Extract(row.Text, row.Extra)
		featuresByID[row.PGID] = f
		texts[i] = f.NormalizedText
	}

	embeddings, nsfwScores, err := c.embedder.Infer(ctx, texts)
	if err != nil {
		c.recordBatchFailure(ctx, src, rows, err)
		return fetched, 0, len(rows), nil
	}
	if len(embeddings) != len(rows) {
		err := fmt.Errorf("syncengine: embed returned %d vectors for %d rows", len(embeddings), len(rows))
		c.recordBatchFailure(ctx, src, rows, err)
		return fetched, 0, len(rows), nil
	}

	vectors := make([]vectorstore.Vector, len(rows))
	records := make([]catalog.SyncRecord, len(rows))
	for i, row := range rows {
		f := featuresByID[row.PGID]
		// Hash the raw fetched text, not the normalized embedding input: this
		// value has to match what FetchPending recomputes with md5() against
		// the source table directly, which never sees the normalized form.
		textHash := hashText(row.Text)
		vectorID := stableid.VectorID(row.Source, row.PGID)

		var nsfwScore float64
		if i < len(nsfwScores) {
			nsfwScore = nsfwScores[i]
		}
		nsfw := src.NSFWTag && nsfwScore >= c.nsfwThreshold

		tmdbID := row.Extra[src.TMDBIDField]
		tpdbID := row.Extra[src.TPDBContentIDField]
		hasTMDB := src.TMDBEnrich && tmdbID != ""
		hasTPDB := src.TPDBEnrich && tpdbID != ""

		payload := vectorstore.Payload{
			Source:           row.Source,
			PGID:             row.PGID,
			TextHash:         textHash,
			EmbeddingVersion: c.embeddingVersion,
			NSFW:             nsfw,
			NSFWScore:        nsfwScore,
			HasTMDB:          hasTMDB,
			TMDBID:           tmdbID,
			HasTPDB:          hasTPDB,
			TPDBID:           tpdbID,
			GenreTags:        f.GenreTags,
			FileType:         string(f.FileType),
			AudioLangs:       f.AudioLangs,
			SubtitleLangs:    f.SubtitleLangs,
			Size:             f.Size,
		}

		vectors[i] = vectorstore.Vector{ID: vectorID, Embedding: embeddings[i], Payload: payload}
		records[i] = catalog.SyncRecord{
			Source:           row.Source,
			PGID:             row.PGID,
			VectorID:         vectorID,
			TextHash:         textHash,
			EmbeddingVersion: c.embeddingVersion,
			NSFWScore:        nsfwScore,
			UpdatedAt:        row.UpdatedAt,
		}
	}

	if err := c.store.Add(ctx, vectors); err != nil {
		var dimErr *vectorstore.ErrDimensionMismatch
		if errors.As(err, &dimErr) {
			return fetched, 0, len(rows), fmt.Errorf("syncengine: source %s: %w", src.Name, err)
		}
		c.recordBatchFailure(ctx, src, rows, err)
		return fetched, 0, len(rows), nil
	}

	var rowFailed int
	for _, rec := range records {
		if err := c.syncState.Upsert(ctx, rec); err != nil {
			c.logger.ErrorContext(ctx, "sync_state_commit_failed", slog.String("source", src.Name), slog.String("pg_id", rec.PGID), slog.Any("error", err))
			_ = c.syncState.RecordError(ctx, src.Name, rec.PGID, err.Error())
			rowFailed++
		}
	}

	return fetched, len(records) - rowFailed, rowFailed, nil
}

// enrich resolves TMDB/TPDB metadata for rows that need it and returns the
// rehydrated rows. A per-reference failure inside the orchestrator is
// already absorbed (recorded as status=error in the cache); only a
// structural failure (e.g. the cache store itself erroring) propagates
// here.
func (c *Coordinator) enrich(ctx context.Context, src *catalog.Source, rows []catalog.Row) ([]catalog.Row, error) {
	if c.orch == nil || (!src.TMDBEnrich && !src.TPDBEnrich) {
		return rows, nil
	}

	if src.TMDBEnrich {
		refs := tmdbRefs(src, rows)
		if len(refs) > 0 {
			hydrated, err := c.orch.EnrichTMDB(ctx, src, refs)
			if err != nil {
				return nil, fmt.Errorf("enrich tmdb: %w", err)
			}
			rows = mergeHydrated(rows, hydrated)
		}
	}

	if src.TPDBEnrich {
		// TPDB has no single fixed query across content types (unlike
		// TMDB), so refs are grouped by tpdb_type and each group runs its
		// own EnrichTPDB call with a variablesFor closure that resolves
		// the originating row's text for code/title extraction.
		groups := groupTPDBRefs(src, rows)
		for tpdbType, group := range groups {
			byRef := group.byRef
			hydrated, err := c.orch.EnrichTPDB(ctx, src, group.refs, tpdbType, func(r enrichment.Ref) map[string]any {
				row, ok := byRef[r]
				if !ok {
					return map[string]any{}
				}
				return map[string]any{
					"code":      enrichment.ExtractCode(row.Text),
					"raw_title": row.Text,
				}
			})
			if err != nil {
				return nil, fmt.Errorf("enrich tpdb (type=%s): %w", tpdbType, err)
			}
			rows = mergeHydrated(rows, hydrated)
		}
	}

	return rows, nil
}

func tmdbRefs(src *catalog.Source, rows []catalog.Row) []enrichment.Ref {
	var refs []enrichment.Ref
	for _, row := range rows {
		contentType := row.Extra[src.TMDBTypeField]
		tmdbID := row.Extra[src.TMDBIDField]
		if contentType == "" || tmdbID == "" {
			continue
		}
		refs = append(refs, enrichment.Ref{ContentType: contentType, ContentID: tmdbID})
	}
	return refs
}

// tpdbRefGroup collects the refs belonging to one tpdb_type, plus the
// originating row for each ref so variablesFor can recover its raw text.
type tpdbRefGroup struct {
	refs  []enrichment.Ref
	byRef map[enrichment.Ref]catalog.Row
}

// groupTPDBRefs buckets rows' TPDB refs by their tpdb_type column, since
// EnrichTPDB resolves one query/endpoint/result_path per call.
func groupTPDBRefs(src *catalog.Source, rows []catalog.Row) map[string]tpdbRefGroup {
	groups := make(map[string]tpdbRefGroup)
	for _, row := range rows {
		contentType := row.Extra[src.TPDBContentTypeField]
		contentSource := row.Extra[src.TPDBContentSourceField]
		contentID := row.Extra[src.TPDBContentIDField]
		if contentType == "" || contentSource == "" || contentID == "" {
			continue
		}
		tpdbType := row.Extra[src.TPDBTypeField]
		ref := enrichment.Ref{ContentType: contentType, ContentSource: contentSource, ContentID: contentID}

		group, ok := groups[tpdbType]
		if !ok {
			group = tpdbRefGroup{byRef: make(map[enrichment.Ref]catalog.Row)}
		}
		group.refs = append(group.refs, ref)
		group.byRef[ref] = row
		groups[tpdbType] = group
	}
	return groups
}

// mergeHydrated overlays freshly re-fetched rows onto the original batch by
// pg_id, keeping the original ordering and any row the re-fetch omitted.
func mergeHydrated(original, hydrated []catalog.Row) []catalog.Row {
	byID := make(map[string]catalog.Row, len(hydrated))
	for _, row := range hydrated {
		byID[row.PGID] = row
	}
	out := make([]catalog.Row, len(original))
	for i, row := range original {
		if h, ok := byID[row.PGID]; ok {
			out[i] = h
		} else {
			out[i] = row
		}
	}
	return out
}

// recordBatchFailure stamps every row in a failed batch with a truncated
// last_error. It does not stop the source: the caller moves on to the next
// batch. One bad batch must not silently drop rows from future pending
// scans, so their sync-state row is touched without advancing text_hash
// (the pending predicate keeps proposing them next cycle).
func (c *Coordinator) recordBatchFailure(ctx context.Context, src *catalog.Source, rows []catalog.Row, cause error) {
	message := cause.Error()
	if len(message) > constants.LastErrorMaxLen {
		message = message[:constants.LastErrorMaxLen]
	}
	c.logger.WarnContext(ctx, "sync_batch_failed", slog.String("source", src.Name), slog.Int("rows", len(rows)), slog.Any("error", cause))
	for _, row := range rows {
		if err := c.syncState.RecordError(ctx, src.Name, row.PGID, message); err != nil {
			c.logger.ErrorContext(ctx, "record_sync_error_failed", slog.String("source", src.Name), slog.String("pg_id", row.PGID), slog.Any("error", err))
		}
	}
}

// hashText mirrors the data model's documented text_hash definition (md5 of
// the raw indexed text), not a stronger hash chosen for its own sake: this
// value is compared byte-for-byte against catalog.SyncRecord.TextHash to
// decide whether a row has changed since its last sync.
func hashText(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

var _ Embedder = (*embedclient.Client)(nil)
var _ Embedder = (*embedclient.FallbackEmbedder)(nil)
var _ Reader = (*catalog.Reader)(nil)
var _ SyncStateStore = (*catalog.SyncStateStore)(nil)
