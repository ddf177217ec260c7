package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ufdr-assistant/go/orchestrator/internal/config"
	"github.com/ufdr-assistant/go/orchestrator/internal/db"
	"github.com/ufdr-assistant/go/orchestrator/internal/embeddings"
	"github.com/ufdr-assistant/go/orchestrator/internal/engine"
	"github.com/ufdr-assistant/go/orchestrator/internal/graph"
	"github.com/ufdr-assistant/go/orchestrator/internal/health"
	"github.com/ufdr-assistant/go/orchestrator/internal/lexicon"
	"github.com/ufdr-assistant/go/orchestrator/internal/planner"
	"github.com/ufdr-assistant/go/orchestrator/internal/retrieval"
	"github.com/ufdr-assistant/go/orchestrator/internal/tracing"
	"github.com/ufdr-assistant/go/orchestrator/internal/vectordb"
)

// app holds the wired collaborators for one process
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *db.Client
	engine  *engine.Engine
	health  *health.Manager
	closers []func(context.Context) error
}

// newLogger builds the process logger from the logging section
func newLogger(level, format string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if strings.EqualFold(format, "console") {
		zc = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("logging level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	// stdout carries query results
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

// bootstrap loads configuration and the logger shared by every command
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// buildApp wires the engine and the health checkers. Only the evidence store
// is mandatory; every optional backend that fails to come up is logged and
// left out.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, health: health.NewManager(10*time.Second, logger)}

	shutdownTracing, err := tracing.Initialize(cfg.Observability.Tracing, logger)
	if err != nil {
		logger.Warn("Tracing initialization failed", zap.Error(err))
	}
	a.closers = append(a.closers, shutdownTracing)

	store, err := db.NewClient(&cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("evidence store: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, func(context.Context) error { return store.Close() })
	_ = a.health.RegisterChecker(health.NewDatabaseHealthChecker(store.Wrapper(), logger))

	lex, err := lexicon.NewStore(cfg.Lexicon.Path, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("lexicon: %w", err)
	}
	if cfg.Lexicon.Watch {
		if err := lex.Watch(ctx); err != nil {
			logger.Warn("Lexicon watch disabled", zap.Error(err))
		}
	}

	plan, err := planner.New(ctx, cfg.Planner, logger)
	if err != nil {
		logger.Warn("Advisory planner unavailable", zap.Error(err))
		plan = planner.Noop{}
	}

	deps := engine.Deps{
		Contacts: store,
		Store:    store,
		Index:    a.similarityIndex(ctx),
		Graph:    a.graph(),
		Lexicon:  lex,
		Planner:  plan,
	}

	eng, err := engine.New(cfg.Engine, deps, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engine = eng
	return a, nil
}

// similarityIndex returns nil when similarity search cannot serve queries
func (a *app) similarityIndex(ctx context.Context) retrieval.SimilarityIndex {
	if !a.cfg.VectorDB.Enabled {
		a.logger.Info("Similarity index disabled")
		return nil
	}
	client := vectordb.NewClient(a.cfg.VectorDB, a.logger)
	_ = a.health.RegisterChecker(health.NewVectorIndexHealthChecker(client, a.logger))

	var cache embeddings.EmbeddingCache
	if a.cfg.Embeddings.EnableRedis {
		rc, err := embeddings.NewRedisCache(a.cfg.Embeddings.RedisAddr, a.logger)
		if err != nil {
			a.logger.Warn("Embedding cache unavailable, using in-process LRU only", zap.Error(err))
		} else {
			cache = rc
			a.closers = append(a.closers, func(context.Context) error { return rc.Close() })
			_ = a.health.RegisterChecker(health.NewRedisHealthChecker(rc, a.logger))
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := client.CollectionExists(probeCtx)
	if err != nil || !exists {
		a.logger.Warn("Message collection unavailable, recency retrieval only",
			zap.String("collection", client.GetConfig().Collection),
			zap.Error(err),
		)
		return nil
	}
	svc := embeddings.NewService(a.cfg.Embeddings, cache, a.logger)
	return vectordb.NewMessageIndex(svc, client, svc.GetConfig().DefaultModel)
}

// graph returns nil when no graph backend is usable
func (a *app) graph() graph.Graph {
	switch a.cfg.Graph.Backend {
	case config.GraphBackendNone:
		return nil
	case config.GraphBackendNeo4j:
		g, err := graph.NewNeo4jGraph(a.cfg.Graph.Neo4j)
		if err != nil {
			a.logger.Warn("Neo4j graph unavailable", zap.Error(err))
			return nil
		}
		a.closers = append(a.closers, g.Close)
		_ = a.health.RegisterChecker(health.NewGraphHealthChecker(g, a.logger))
		return g
	default:
		g, err := graph.LoadFile(a.cfg.Graph.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				a.logger.Info("No graph file, graph insights disabled", zap.String("path", a.cfg.Graph.Path))
			} else {
				a.logger.Warn("Graph file unreadable", zap.String("path", a.cfg.Graph.Path), zap.Error(err))
			}
			return nil
		}
		_ = a.health.RegisterChecker(health.NewGraphHealthChecker(g, a.logger))
		return g
	}
}

// Close releases collaborators in reverse order of creation
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("Shutdown step failed", zap.Error(err))
		}
	}
	a.closers = nil
}
