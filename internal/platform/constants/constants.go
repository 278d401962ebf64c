// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - HTTP Headers: Correlation and proxy headers read/written by middleware.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "hermes-search"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	// SchemaHermes namespaces the sync-state and enrichment tables this
	// service owns (as opposed to the pre-existing catalog tables it reads).
	SchemaHermes = "hermes"

	// SchemaBitmagnet is the schema created by cmd/bitmagnet-setup when
	// bitmagnet.create_schema is enabled.
	SchemaBitmagnet = "bitmagnet"
)

// # Sync / Search Defaults

const (
	// DefaultEmbedTimeout bounds a single embedding HTTP call.
	DefaultEmbedTimeout = 30 * time.Second

	// DefaultEnrichmentTimeout bounds a single TMDB/TPDB HTTP call.
	DefaultEnrichmentTimeout = 15 * time.Second

	// DefaultVectorStoreTimeout bounds a single remote vector store call.
	DefaultVectorStoreTimeout = 10 * time.Second

	// DefaultGraphQLTimeout bounds a single Bitmagnet GraphQL call.
	DefaultGraphQLTimeout = 15 * time.Second

	// MaxSearchFetchK caps the number of ANN hits ever requested in one call.
	MaxSearchFetchK = 100

	// LastErrorMaxLen truncates sync-state last_error text.
	LastErrorMaxLen = 512
)
