// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config loads the service's declarative configuration file.

Unlike the teacher's flat env-var struct (caarlos0/env), this service's
config is a deeply nested YAML document with a list of per-source blocks —
a shape a flat env-tag struct cannot express. It is loaded with
knadh/koanf/v2: the YAML file is parsed into a map and layered under
environment variable overrides, then unmarshalled into a single typed
Config, following the same "file first, env overrides" precedence and
path/permission hygiene as the pack's own koanf-based loader.
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1 << 20 // 1MB

// Config is the root of the declarative config file described in §6.
type Config struct {
	GPUEndpoint           string              `koanf:"gpu_endpoint"`
	EmbeddingModelVersion string              `koanf:"embedding_model_version"`
	NSFWThreshold         float64             `koanf:"nsfw_threshold"`
	Environment           string              `koanf:"environment"`
	OriginSuffix          string              `koanf:"allowed_origin_suffix"`
	ServerPort            string              `koanf:"server_port"`
	Debug                 bool                `koanf:"debug"`
	Postgres              PostgresConfig      `koanf:"postgres"`
	VectorStore           VectorStoreConfig   `koanf:"vector_store"`
	Sync                  SyncDefaultsConfig  `koanf:"sync"`
	Sources               []SourceConfig      `koanf:"sources"`
	LocalEmbedder         LocalEmbedderConfig `koanf:"local_embedder"`
	TMDB                  TMDBConfig          `koanf:"tmdb"`
	TPDB                  TPDBConfig          `koanf:"tpdb"`
	Bitmagnet             BitmagnetConfig     `koanf:"bitmagnet"`
	Auth                  AuthConfig          `koanf:"auth"`
	Search                SearchConfig        `koanf:"search"`
}

// PostgresConfig holds the relational catalog connection.
type PostgresConfig struct {
	DSN string `koanf:"dsn"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	Type            string  `koanf:"type"` // local | cluster_a | cluster_b
	Path            string  `koanf:"path"`
	Dim             int     `koanf:"dim"`
	Metric          string  `koanf:"metric"` // cosine | dot | euclidean
	MaxElements     int     `koanf:"max_elements"`
	EfConstruction  int     `koanf:"ef_construction"`
	M               int     `koanf:"m"`
	EfSearch        int     `koanf:"ef_search"`
	URL             string  `koanf:"url"`
	Collection      string  `koanf:"collection"`
	APIKey          string  `koanf:"api_key"`
	URI             string  `koanf:"uri"`
	TimeoutSeconds  float64 `koanf:"timeout_seconds"`
}

// SyncDefaultsConfig is the fallback batch_size/concurrency used when a
// source does not override them.
type SyncDefaultsConfig struct {
	BatchSize   int `koanf:"batch_size"`
	Concurrency int `koanf:"concurrency"`
}

// SourceConfig binds one catalog table to the search index.
type SourceConfig struct {
	Name string          `koanf:"name"`
	PG   SourcePGConfig  `koanf:"pg"`
	Sync *SyncOverride   `koanf:"sync"`
	Tag  SourceTagConfig `koanf:"tagging"`
}

// SourcePGConfig describes the source table's projection.
type SourcePGConfig struct {
	Table            string            `koanf:"table"`
	IDField          string            `koanf:"id_field"`
	TextField        string            `koanf:"text_field"`
	UpdatedAtField   string            `koanf:"updated_at_field"`
	ExtraFields      []string          `koanf:"extra_fields"`
	Joins            []SourceJoin      `koanf:"joins"`
	KeywordFields    []string          `koanf:"keyword_fields"`
	KeywordSearch    bool              `koanf:"keyword_search"`
	KeywordNormalize bool              `koanf:"keyword_normalize"`
	SizeField        string            `koanf:"size_field"`
	TMDBEnrich       bool              `koanf:"tmdb_enrich"`
	TPDBEnrich       bool              `koanf:"tpdb_enrich"`
	Where            string            `koanf:"where"`
	TMDBOnlyField    string            `koanf:"tmdb_only_field"`
	Extra            map[string]string `koanf:"extra"`

	// TMDBTypeField/TMDBIDField name the extra_fields columns that carry a
	// row's TMDB (content_type, tmdb_id) pair, read out of Row.Extra by the
	// sync coordinator when TMDBEnrich is set. Defaults to "type"/"tmdb_id".
	TMDBTypeField string `koanf:"tmdb_type_field"`
	TMDBIDField   string `koanf:"tmdb_id_field"`

	// TPDB field names, read the same way when TPDBEnrich is set. Defaults
	// to "tpdb_type"/"content_type"/"content_source"/"content_id".
	TPDBTypeField          string `koanf:"tpdb_type_field"`
	TPDBContentTypeField   string `koanf:"tpdb_content_type_field"`
	TPDBContentSourceField string `koanf:"tpdb_content_source_field"`
	TPDBContentIDField     string `koanf:"tpdb_content_id_field"`
}

// SourceJoin describes a LEFT JOIN side-table used by FetchByIDs.
type SourceJoin struct {
	Table     string `koanf:"table"`
	OnLocal   string `koanf:"on_local"`
	OnForeign string `koanf:"on_foreign"`
	SelectAs  string `koanf:"select_as"`
	Column    string `koanf:"column"`
	Aggregate bool   `koanf:"aggregate"`
}

// SyncOverride is a per-source override of the top-level sync defaults.
type SyncOverride struct {
	BatchSize   int `koanf:"batch_size"`
	Concurrency int `koanf:"concurrency"`
}

// SourceTagConfig controls per-source tagging behavior.
type SourceTagConfig struct {
	NSFW bool `koanf:"nsfw"`
}

// LocalEmbedderConfig optionally enables an in-process embedder tried
// before the remote embedding service.
type LocalEmbedderConfig struct {
	Enabled   bool   `koanf:"enabled"`
	ModelName string `koanf:"model_name"`
}

// TMDBConfig configures TMDB enrichment.
type TMDBConfig struct {
	Enabled          bool        `koanf:"enabled"`
	AutoEnrich       bool        `koanf:"auto_enrich"`
	APIKey           string      `koanf:"api_key"`
	APIKeyEnv        string      `koanf:"api_key_env"`
	BaseURL          string      `koanf:"base_url"`
	Language         string      `koanf:"language"`
	Limits           TMDBLimits  `koanf:"limits"`
	SleepSeconds     float64     `koanf:"sleep_seconds"`
	TimeoutSeconds   float64     `koanf:"timeout_seconds"`
	MaxPerBatch      int         `koanf:"max_per_batch"`
	QueryExpand      bool        `koanf:"query_expand"`
	QueryExpandLimit int         `koanf:"query_expand_limit"`
	IMDB             IMDBConfig  `koanf:"imdb"`
	Douban           DoubanConfig `koanf:"douban"`
	SuccessTTLHours  float64     `koanf:"success_ttl_hours"`
	NotFoundTTLHours float64     `koanf:"not_found_ttl_hours"`
}

// TMDBLimits caps the length of normalized list fields.
type TMDBLimits struct {
	Actors    int `koanf:"actors"`
	Directors int `koanf:"directors"`
	AKA       int `koanf:"aka"`
}

// IMDBConfig configures the optional secondary IMDB rating lookup.
type IMDBConfig struct {
	Enabled        bool    `koanf:"enabled"`
	APIKey         string  `koanf:"api_key"`
	BaseURL        string  `koanf:"base_url"`
	TimeoutSeconds float64 `koanf:"timeout_seconds"`
}

// DoubanConfig configures the optional secondary Douban rating lookup.
type DoubanConfig struct {
	Enabled        bool    `koanf:"enabled"`
	BaseURL        string  `koanf:"base_url"`
	TimeoutSeconds float64 `koanf:"timeout_seconds"`
}

// TPDBConfig configures TPDB enrichment.
type TPDBConfig struct {
	Enabled          bool              `koanf:"enabled"`
	AutoEnrich       bool              `koanf:"auto_enrich"`
	Endpoint         string            `koanf:"endpoint"`
	Endpoints        map[string]string `koanf:"endpoints"`
	APIToken         string            `koanf:"api_token"`
	APITokenEnv      string            `koanf:"api_token_env"`
	AuthHeader       string            `koanf:"auth_header"`
	AuthPrefix       string            `koanf:"auth_prefix"`
	Queries          map[string]string `koanf:"queries"`
	ResultPaths      map[string]string `koanf:"result_paths"`
	CacheTTLHours    float64           `koanf:"cache_ttl_hours"`
	NotFoundTTLHours float64           `koanf:"not_found_ttl_hours"`
	SearchLimit      int               `koanf:"search_limit"`
	RequireCode      bool              `koanf:"require_code"`
	DefaultType      string            `koanf:"default_type"`
	SleepSeconds     float64           `koanf:"sleep_seconds"`
	TimeoutSeconds   float64           `koanf:"timeout_seconds"`
	MaxPerBatch      int               `koanf:"max_per_batch"`
}

// ResolveAPIToken returns the TPDB API token, preferring the named
// environment variable (api_token_env) over a literal config value,
// mirroring TMDBConfig.ResolveAPIKey.
func (t TPDBConfig) ResolveAPIToken() string {
	if t.APITokenEnv != "" {
		if v := os.Getenv(t.APITokenEnv); v != "" {
			return v
		}
	}
	return t.APIToken
}

// BitmagnetConfig configures the GraphQL keyword-search backend.
type BitmagnetConfig struct {
	Enabled                bool    `koanf:"enabled"`
	Schema                 string  `koanf:"schema"`
	CreateSchema           bool    `koanf:"create_schema"`
	Host                   string  `koanf:"host"`
	GraphQLEndpoint        string  `koanf:"graphql_endpoint"`
	GraphQLTimeoutSeconds  float64 `koanf:"graphql_timeout_seconds"`
	GraphQLSearchLimitCap  int     `koanf:"graphql_search_limit_cap"`
}

// AuthConfig configures the JSON-file backed user/token store.
type AuthConfig struct {
	Enabled         bool   `koanf:"enabled"`
	AdminUser       string `koanf:"admin_user"`
	AdminPassword   string `koanf:"admin_password"`
	UserStorePath   string `koanf:"user_store_path"`
	TokenStorePath  string `koanf:"token_store_path"`
	TokenTTLSeconds int    `koanf:"token_ttl_seconds"`
}

// SearchConfig configures search-wide defaults.
type SearchConfig struct {
	KeywordBackend string `koanf:"keyword_backend"` // sql | graphql
	QueryPrefix    string `koanf:"query_prefix"`
}

// IsDevelopment satisfies internal/platform/middleware.AppConfig.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development") || strings.EqualFold(c.Environment, "dev")
}

// AllowedOriginSuffix satisfies internal/platform/middleware.AppConfig.
func (c *Config) AllowedOriginSuffix() string {
	return c.OriginSuffix
}

// Load reads and validates the config file at path, layering environment
// variable overrides on top (HERMES_SECTION_FIELD=value style), matching
// the precedence and path/permission hygiene of the pack's koanf loader.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: path is required")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot stat %s: %w", path, err)
	}
	if err := validateFileProperties(info); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
	}

	parsed, err := yaml.Parser().Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("config: invalid YAML in %s: %w", path, err)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(parsed, "."), nil); err != nil {
		return nil, fmt.Errorf("config: loading parsed YAML: %w", err)
	}

	if err := k.Load(env.Provider("HERMES_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return &cfg, nil
}

// envTransform maps HERMES_POSTGRES_DSN -> postgres.dsn, matching the
// section-then-field convention used throughout the pack's env loaders.
func envTransform(s string) string {
	trimmed := strings.TrimPrefix(s, "HERMES_")
	lower := strings.ToLower(trimmed)
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func validateFileProperties(info os.FileInfo) error {
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm&0077 != 0 {
			return fmt.Errorf("insecure permissions %v (must not be group/world accessible)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.NSFWThreshold == 0 {
		cfg.NSFWThreshold = 0.7
	}
	if cfg.Sync.BatchSize == 0 {
		cfg.Sync.BatchSize = 64
	}
	if cfg.Sync.Concurrency == 0 {
		cfg.Sync.Concurrency = 4
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "local"
	}
	if cfg.VectorStore.Metric == "" {
		cfg.VectorStore.Metric = "cosine"
	}
	if cfg.VectorStore.M == 0 {
		cfg.VectorStore.M = 16
	}
	if cfg.VectorStore.EfConstruction == 0 {
		cfg.VectorStore.EfConstruction = 200
	}
	if cfg.VectorStore.EfSearch == 0 {
		cfg.VectorStore.EfSearch = 64
	}
	if cfg.VectorStore.MaxElements == 0 {
		cfg.VectorStore.MaxElements = 1_000_000
	}
	if cfg.VectorStore.TimeoutSeconds == 0 {
		cfg.VectorStore.TimeoutSeconds = 10
	}
	if cfg.Auth.TokenTTLSeconds == 0 {
		cfg.Auth.TokenTTLSeconds = int((24 * time.Hour).Seconds())
	}
	if cfg.Search.KeywordBackend == "" {
		cfg.Search.KeywordBackend = "sql"
	}
	for i := range cfg.Sources {
		resolveSourceDefaults(&cfg.Sources[i], cfg.Sync)
	}
}

func resolveSourceDefaults(src *SourceConfig, defaults SyncDefaultsConfig) {
	if src.Sync == nil {
		src.Sync = &SyncOverride{BatchSize: defaults.BatchSize, Concurrency: defaults.Concurrency}
		return
	}
	if src.Sync.BatchSize == 0 {
		src.Sync.BatchSize = defaults.BatchSize
	}
	if src.Sync.Concurrency == 0 {
		src.Sync.Concurrency = defaults.Concurrency
	}
}

// Validate fails fast on structurally invalid configuration, matching §7's
// "configuration invalid -> fail process at startup" rule.
func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	seen := make(map[string]bool, len(c.Sources))
	for _, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("source name is required")
		}
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		seen[src.Name] = true
		if src.PG.Table == "" || src.PG.IDField == "" || src.PG.TextField == "" {
			return fmt.Errorf("source %q: table, id_field, and text_field are required", src.Name)
		}
	}
	switch c.VectorStore.Type {
	case "local", "cluster_a", "cluster_b":
	default:
		return fmt.Errorf("vector_store.type %q is not one of local|cluster_a|cluster_b", c.VectorStore.Type)
	}
	if c.VectorStore.Dim <= 0 {
		return fmt.Errorf("vector_store.dim must be positive")
	}
	return nil
}

// ResolveAPIKey returns the TMDB API key, preferring the named environment
// variable over the literal config value when api_key_env is set.
func (t TMDBConfig) ResolveAPIKey() string {
	if t.APIKeyEnv != "" {
		if v := os.Getenv(t.APIKeyEnv); v != "" {
			return v
		}
	}
	return t.APIKey
}

// SourceByName returns the named source config, or nil if not found.
func (c *Config) SourceByName(name string) *SourceConfig {
	for i := range c.Sources {
		if c.Sources[i].Name == name {
			return &c.Sources[i]
		}
	}
	return nil
}

// MigrationsDir is the on-disk migrations directory that cmd/search-server
// and cmd/sync hand to the migration runner, relative to the working
// directory. It is fixed; there is no embedded migration set.
func MigrationsDir() string {
	return filepath.Join("internal", "catalog", "migrations")
}
