// Package config loads the orchestrator configuration from a YAML file with
// UFDR_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ufdr-assistant/go/orchestrator/internal/db"
	"github.com/ufdr-assistant/go/orchestrator/internal/embeddings"
	"github.com/ufdr-assistant/go/orchestrator/internal/engine"
	"github.com/ufdr-assistant/go/orchestrator/internal/graph"
	"github.com/ufdr-assistant/go/orchestrator/internal/planner"
	"github.com/ufdr-assistant/go/orchestrator/internal/tracing"
	"github.com/ufdr-assistant/go/orchestrator/internal/vectordb"
)

// EnvPrefix prefixes every environment override, e.g. UFDR_STORE_DSN
const EnvPrefix = "UFDR"

// Graph backends
const (
	GraphBackendFile  = "file"
	GraphBackendNeo4j = "neo4j"
	GraphBackendNone  = "none"
)

type ObservabilityConfig struct {
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

// GraphConfig selects and configures the graph collaborator
type GraphConfig struct {
	Backend string            `mapstructure:"backend"`
	Path    string            `mapstructure:"path"`
	Neo4j   graph.Neo4jConfig `mapstructure:"neo4j"`
}

// LexiconConfig points at an optional YAML overlay of the keyword tables
type LexiconConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// Config is the full process configuration
type Config struct {
	Store         db.Config           `mapstructure:"store"`
	VectorDB      vectordb.Config     `mapstructure:"vectordb"`
	Embeddings    embeddings.Config   `mapstructure:"embeddings"`
	Graph         GraphConfig         `mapstructure:"graph"`
	Planner       planner.Config      `mapstructure:"planner"`
	Lexicon       LexiconConfig       `mapstructure:"lexicon"`
	Engine        engine.Config       `mapstructure:"engine"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", db.DriverSQLite)
	v.SetDefault("store.dsn", "ufdr.db")
	v.SetDefault("store.max_connections", 10)
	v.SetDefault("store.idle_connections", 2)
	v.SetDefault("store.max_lifetime", 5*time.Minute)
	v.SetDefault("store.candidate_cap", db.DefaultCandidateCap)

	v.SetDefault("vectordb.enabled", false)
	v.SetDefault("vectordb.host", "localhost")
	v.SetDefault("vectordb.port", 6333)
	v.SetDefault("vectordb.url", "")
	v.SetDefault("vectordb.collection", "messages")
	v.SetDefault("vectordb.top_k", 10)
	v.SetDefault("vectordb.threshold", 0.0)
	v.SetDefault("vectordb.timeout", 5*time.Second)

	v.SetDefault("embeddings.base_url", "http://localhost:8000")
	v.SetDefault("embeddings.model", "text-embedding-3-small")
	v.SetDefault("embeddings.timeout", 5*time.Second)
	v.SetDefault("embeddings.enable_redis", false)
	v.SetDefault("embeddings.redis_addr", "localhost:6379")
	v.SetDefault("embeddings.cache_ttl", time.Hour)
	v.SetDefault("embeddings.max_lru", 2048)

	v.SetDefault("graph.backend", GraphBackendFile)
	v.SetDefault("graph.path", "graph.json")
	v.SetDefault("graph.neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("graph.neo4j.username", "neo4j")
	v.SetDefault("graph.neo4j.password", "")
	v.SetDefault("graph.neo4j.database", "neo4j")

	v.SetDefault("planner.enabled", false)
	v.SetDefault("planner.provider", planner.ProviderGemini)
	v.SetDefault("planner.model", "")
	v.SetDefault("planner.api_key", "")
	v.SetDefault("planner.api_key_env", "")
	v.SetDefault("planner.base_url", "")
	v.SetDefault("planner.timeout", 8*time.Second)
	v.SetDefault("planner.rate_per_second", 2.0)
	v.SetDefault("planner.burst", 4)

	v.SetDefault("lexicon.path", "")
	v.SetDefault("lexicon.watch", false)

	v.SetDefault("engine.local_timezone", "Asia/Kolkata")
	v.SetDefault("engine.reporting_timezone", "Asia/Kolkata")
	v.SetDefault("engine.default_limit", 5)

	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.port", 2112)
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.service_name", "ufdr-orchestrator")
	v.SetDefault("observability.tracing.otlp_endpoint", "localhost:4317")
}

// Load reads path (or UFDR_CONFIG, or ./config.yaml when present) and applies
// environment overrides. A missing default file is not an error; a missing
// explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/ufdr")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that cannot work at all
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		return fmt.Errorf("store.driver %q: want %s or %s", c.Store.Driver, db.DriverSQLite, db.DriverPostgres)
	}
	switch c.Graph.Backend {
	case GraphBackendFile, GraphBackendNeo4j, GraphBackendNone:
	default:
		return fmt.Errorf("graph.backend %q: want file, neo4j or none", c.Graph.Backend)
	}
	switch c.Planner.Provider {
	case planner.ProviderGemini, planner.ProviderOpenAI:
	default:
		return fmt.Errorf("planner.provider %q: want %s or %s", c.Planner.Provider, planner.ProviderGemini, planner.ProviderOpenAI)
	}
	if c.Engine.DefaultLimit < 1 {
		return fmt.Errorf("engine.default_limit must be positive")
	}
	return nil
}

// MetricsPort returns the configured port or an env override METRICS_PORT
func (c *Config) MetricsPort() int {
	if p := os.Getenv("METRICS_PORT"); p != "" {
		var v int
		_, _ = fmt.Sscanf(p, "%d", &v)
		if v > 0 {
			return v
		}
	}
	return c.Observability.Metrics.Port
}
