// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Sync is the batch entry point that drives every configured source through
the fetch -> enrich -> normalize -> embed -> vector-add -> commit pipeline
once, then exits.

Usage:

	go run cmd/sync/main.go -config config.yaml [-source name]

Sources run concurrently via golang.org/x/sync/errgroup, one goroutine per
configured source; a single source aborting does not stop the others.
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
		slog.Error("sync_run_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to the declarative config file")
	sourceName := flag.String("source", "", "sync only the named source (default: all configured sources)")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With(slog.String("app", constants.AppName), slog.String("cmd", "sync"))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
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

	sources, err := catalog.NewSources(cfg.Sources)
	if err != nil {
		return fmt.Errorf("build catalog sources: %w", err)
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
	tpdbClient := enrichment.NewTPDBClient(cfg.TPDB, httpClient)
	secondary := enrichment.NewSecondaryRatingsClient(cfg.TMDB.IMDB, cfg.TMDB.Douban, httpClient)
	orch := enrichment.NewOrchestrator(enrichStore, tmdbClient, tpdbClient, secondary, cfg.TMDB, cfg.TPDB, reader, log)

	coordinator := syncengine.NewCoordinator(
		reader,
		syncStates,
		orch,
		embedder,
		store,
		cfg.EmbeddingModelVersion,
		cfg.NSFWThreshold,
		log,
	)

	var g errgroup.Group
	for _, src := range sources {
		src := src
		if *sourceName != "" && src.Name != *sourceName {
			continue
		}
		batchSize, concurrency := cfg.Sync.BatchSize, cfg.Sync.Concurrency
		if override := sourceOverride(cfg, src.Name); override != nil {
			if override.BatchSize > 0 {
				batchSize = override.BatchSize
			}
			if override.Concurrency > 0 {
				concurrency = override.Concurrency
			}
		}

		g.Go(func() error {
			res := coordinator.Run(context.Background(), src, batchSize, concurrency)
			logResult(log, res)
			if res.Aborted {
				return fmt.Errorf("source %s aborted: %w", res.Source, res.AbortedErr)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("sync_run_complete")
	return nil
}

func sourceOverride(cfg *config.Config, name string) *config.SyncOverride {
	for _, s := range cfg.Sources {
		if s.Name == name {
			return s.Sync
		}
	}
	return nil
}

func logResult(log *slog.Logger, res syncengine.Result) {
	attrs := []any{
		slog.String("source", res.Source),
		slog.Int("fetched", res.Fetched),
		slog.Int("embedded", res.Embedded),
		slog.Int("failed", res.Failed),
		slog.Duration("duration", res.Duration),
	}
	if res.Aborted {
		attrs = append(attrs, slog.Any("error", res.AbortedErr))
		log.Error("source_sync_aborted", attrs...)
		return
	}
	log.Info("source_sync_complete", attrs...)
}
