// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Search-server is the entry point for the hermes HTTP search API.

It exposes the hybrid semantic/keyword search contract over the catalog
synchronized by cmd/sync: /search, /search_keyword, /sync_status, the TMDB
detail/recency lookups, and the JSON-file backed auth endpoints.

Usage:

	go run cmd/search-server/main.go -config config.yaml

The config path defaults to the CONFIG_PATH environment variable when it is
set, and to config.yaml otherwise; -config overrides both.

Startup Sequence:

 1. Logger: Initialize structured JSON logging (slog).
 2. Config: Load and validate the declarative config file.
 3. Storage: Establish the Postgres connection pool and run migrations.
 4. Wiring: Construct sources, vector store, embedder, enrichment store,
    query rewriter, auth store, and the search service.
 5. Server: Bind the HTTP listener and handle graceful shutdown.

No business logic lives here. This file is strictly for orchestration and wiring.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hermes-search/hermes/internal/api"
	"github.com/hermes-search/hermes/internal/auth"
	"github.com/hermes-search/hermes/internal/bitmagnet"
	"github.com/hermes-search/hermes/internal/catalog"
	"github.com/hermes-search/hermes/internal/embedclient"
	"github.com/hermes-search/hermes/internal/enrichment"
	"github.com/hermes-search/hermes/internal/platform/config"
	"github.com/hermes-search/hermes/internal/platform/constants"
	"github.com/hermes-search/hermes/internal/platform/migration"
	pgstore "github.com/hermes-search/hermes/internal/platform/postgres"
	"github.com/hermes-search/hermes/internal/queryrewrite"
	"github.com/hermes-search/hermes/internal/search"
	"github.com/hermes-search/hermes/internal/vectorstore"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	defaultConfigPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		defaultConfigPath = envPath
	}
	configPath := flag.String("config", defaultConfigPath, "path to the declarative config file (default from CONFIG_PATH)")
	flag.Parse()

	// # 1. Logger
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)
	log.Info("search_server_initializing")

	// # 2. Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Int("sources", len(cfg.Sources)),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// # 3. PostgreSQL
	pool, err := pgstore.NewPool(startupCtx, cfg.Postgres.DSN, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	if err := migration.RunUp(cfg.Postgres.DSN, config.MigrationsDir(), log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// # 4. Catalog sources
	sources, err := catalog.NewSources(cfg.Sources)
	if err != nil {
		return fmt.Errorf("build catalog sources: %w", err)
	}
	reader := catalog.NewReader(pool)
	syncStates := catalog.NewSyncStateStore(pool)

	// # 5. Vector store
	store, err := vectorstore.New(startupCtx, cfg.VectorStore, log)
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Error("vector_store_close_error", slog.Any("error", cerr))
		}
	}()

	// # 6. Embedder
	remoteEmbedder := embedclient.New(cfg.GPUEndpoint, constants.DefaultEmbedTimeout)
	var embedder embedclient.Embedder = remoteEmbedder
	if cfg.LocalEmbedder.Enabled {
		local := embedclient.NewLocalEmbedder(cfg.VectorStore.Dim)
		embedder = embedclient.NewFallbackEmbedder(local, remoteEmbedder, log)
	}

	// # 7. Enrichment store and query rewriter
	enrichStore := enrichment.NewStore(pool)
	rewriter := queryrewrite.New(enrichStore, cfg.TMDB.QueryExpandLimit, cfg.Search.QueryPrefix, log)

	// # 8. Bitmagnet (optional GraphQL keyword backend)
	var bmClient *bitmagnet.Client
	if cfg.Bitmagnet.Enabled {
		bmClient = bitmagnet.New(cfg.Bitmagnet.GraphQLEndpoint, constants.DefaultGraphQLTimeout)
	}

	// # 9. Auth store
	authStore, err := auth.NewStore(
		cfg.Auth.UserStorePath,
		cfg.Auth.TokenStorePath,
		cfg.Auth.AdminUser,
		cfg.Auth.AdminPassword,
		cfg.Auth.TokenTTLSeconds,
	)
	if err != nil {
		return fmt.Errorf("open auth store: %w", err)
	}

	// # 10. Search service and status cache
	searchSvc := search.NewService(search.Config{
		Rewriter:       rewriter,
		Store:          store,
		Reader:         reader,
		SyncStates:     syncStates,
		Sources:        sources,
		Embedder:       embedder,
		Bitmagnet:      bmClient,
		KeywordBackend: cfg.Search.KeywordBackend,
		Logger:         log,
	})

	statusCache := search.NewStatusCache(syncStates, enrichStore, 0, log)

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()
	statusCache.Start(appCtx)
	defer statusCache.Stop()

	// # 11. Health wiring
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
	}, log)

	// # 12. API assembly
	handlers := api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Auth:       auth.NewHandler(authStore),
		Search:     api.NewSearchHandler(searchSvc, statusCache),
		Enrichment: api.NewEnrichmentHandler(enrichStore, bmClient),
	}

	server := api.NewServer(appCtx, cfg, log, authStore, handlers)

	// # 13. Lifecycle handling
	shutdownErr := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr <- fmt.Errorf("http_server_crash: %w", err)
		}
	}()

	log.Info("search_server_running", slog.String("port", cfg.ServerPort))

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-shutdownErr:
		return err
	}

	appCancel()

	log.Info("shutting_down_search_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("server_shutdown_failed: %w", err)
	}

	log.Info("graceful_shutdown_complete")
	return nil
}
