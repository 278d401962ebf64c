// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Enrich-tmdb runs the sync pipeline restricted to sources configured with
tmdb_enrich, refreshing their TMDB cache and re-embedding the rows it
touches. Unlike cmd/sync it does not drive sources that have no TMDB
metadata to fetch.

Usage:

	go run cmd/enrich-tmdb/main.go -config config.yaml
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hermes-search/hermes/internal/catalog"
	"github.com/hermes-search/hermes/internal/embedclient"
	"github.com/hermes-search/hermes/internal/enrichment"
	"github.com/hermes-search/hermes/internal/platform/config"
	"github.com/hermes-search/hermes/internal/platform/constants"
	"github.com/hermes-search/hermes/internal/platform/migration"
	pgstore "github.com/hermes-search/hermes/internal/platform/postgres"
	"github.com/hermes-search/hermes/internal/syncengine"
	"github.com/hermes-search/hermes/internal/vectorstore"
)

func main() {
	if err := run(); err != nil {
		slog.Error("enrich_tmdb_run_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to the declarative config file")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With(slog.String("app", constants.AppName), slog.String("cmd", "enrich-tmdb"))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if !cfg.TMDB.Enabled {
		log.Info("tmdb_enrichment_disabled")
		return nil
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	pool, err := pgstore.NewPool(startupCtx, cfg.Postgres.DSN, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migration.RunUp(cfg.Postgres.DSN, config.MigrationsDir(), log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	allSources, err := catalog.NewSources(cfg.Sources)
	if err != nil {
		return fmt.Errorf("build catalog sources: %w", err)
	}

	var targets []*catalog.Source
	for _, src := range allSources {
		if src.TMDBEnrich {
			targets = append(targets, src)
		}
	}
	if len(targets) == 0 {
		log.Info("no_sources_configured_for_tmdb_enrich")
		return nil
	}

	reader := catalog.NewReader(pool)
	syncStates := catalog.NewSyncStateStore(pool)

	store, err := vectorstore.New(startupCtx, cfg.VectorStore, log)
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Error("vector_store_close_error", slog.Any("error", cerr))
		}
	}()

	remoteEmbedder := embedclient.New(cfg.GPUEndpoint, constants.DefaultEmbedTimeout)
	var embedder syncengine.Embedder = remoteEmbedder
	if cfg.LocalEmbedder.Enabled {
		local := embedclient.NewLocalEmbedder(cfg.VectorStore.Dim)
		embedder = embedclient.NewFallbackEmbedder(local, remoteEmbedder, log)
	}

	httpClient := &http.Client{Timeout: constants.DefaultEnrichmentTimeout}
	enrichStore := enrichment.NewStore(pool)
	tmdbClient := enrichment.NewTMDBClient(cfg.TMDB, httpClient)
	secondary := enrichment.NewSecondaryRatingsClient(cfg.TMDB.IMDB, cfg.TMDB.Douban, httpClient)

	// Targets are filtered to tmdb_enrich sources, but a source can carry
	// both tmdb_enrich and tpdb_enrich; wire the TPDB client too whenever
	// configured so the coordinator's combined enrich step never dereferences
	// a nil client for such a source.
	var tpdbClient *enrichment.TPDBClient
	if cfg.TPDB.Enabled {
		tpdbClient = enrichment.NewTPDBClient(cfg.TPDB, httpClient)
	}
	orch := enrichment.NewOrchestrator(enrichStore, tmdbClient, tpdbClient, secondary, cfg.TMDB, cfg.TPDB, reader, log)

	coordinator := syncengine.NewCoordinator(
		reader, syncStates, orch, embedder, store,
		cfg.EmbeddingModelVersion, cfg.NSFWThreshold, log,
	)

	g, gctx := errgroup.WithContext(context.Background())
	for _, src := range targets {
		src := src
		g.Go(func() error {
			res := coordinator.Run(gctx, src, cfg.Sync.BatchSize, cfg.Sync.Concurrency)
			log.Info("tmdb_enrich_source_complete",
				slog.String("source", res.Source),
				slog.Int("fetched", res.Fetched),
				slog.Int("embedded", res.Embedded),
				slog.Int("failed", res.Failed),
				slog.Duration("duration", res.Duration),
			)
			if res.Aborted {
				return fmt.Errorf("source %s aborted: %w", res.Source, res.AbortedErr)
			}
			return nil
		})
	}
	return g.Wait()
}
