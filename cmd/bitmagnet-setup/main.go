// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Bitmagnet-setup provisions the schema and cache tables the Bitmagnet GraphQL
keyword-search backend expects: it is a one-shot idempotent migration run
ahead of the search server rather than part of its startup path, since the
target schema is operator-configured (bitmagnet.schema) and may live outside
this service's own hermes schema.

Usage:

	go run cmd/bitmagnet-setup/main.go -config config.yaml
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hermes-search/hermes/internal/bitmagnet"
	"github.com/hermes-search/hermes/internal/platform/config"
	"github.com/hermes-search/hermes/internal/platform/constants"
	pgstore "github.com/hermes-search/hermes/internal/platform/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("bitmagnet_setup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to the declarative config file")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With(slog.String("app", constants.AppName), slog.String("cmd", "bitmagnet-setup"))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if !cfg.Bitmagnet.Enabled {
		log.Info("bitmagnet_backend_disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := bitmagnet.EnsureSchema(ctx, pool, cfg.Bitmagnet.Schema, cfg.Bitmagnet.CreateSchema); err != nil {
		return fmt.Errorf("ensure bitmagnet schema: %w", err)
	}
	if err := bitmagnet.EnsureTables(ctx, pool, cfg.Bitmagnet.Schema); err != nil {
		return fmt.Errorf("ensure bitmagnet tables: %w", err)
	}

	log.Info("bitmagnet_setup_complete", slog.String("schema", cfg.Bitmagnet.Schema))
	return nil
}
