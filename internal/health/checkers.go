package health

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ufdr-assistant/go/orchestrator/internal/circuitbreaker"
	"github.com/ufdr-assistant/go/orchestrator/internal/graph"
)

const slowCheck = 100 * time.Millisecond

// latencyStatus downgrades a successful check that took too long
func latencyStatus(d time.Duration, component string) (CheckStatus, string) {
	if d > slowCheck {
		return StatusDegraded, component + " responding but with high latency"
	}
	return StatusHealthy, component + " healthy"
}

// DatabaseHealthChecker checks the evidence store
type DatabaseHealthChecker struct {
	wrapper *circuitbreaker.DatabaseWrapper
	logger  *zap.Logger
	timeout time.Duration
}

// NewDatabaseHealthChecker creates a database health checker
func NewDatabaseHealthChecker(wrapper *circuitbreaker.DatabaseWrapper, logger *zap.Logger) *DatabaseHealthChecker {
	return &DatabaseHealthChecker{wrapper: wrapper, logger: logger, timeout: 5 * time.Second}
}

func (d *DatabaseHealthChecker) Name() string           { return "evidence_store" }
func (d *DatabaseHealthChecker) IsCritical() bool       { return true }
func (d *DatabaseHealthChecker) Timeout() time.Duration { return d.timeout }

func (d *DatabaseHealthChecker) Check(ctx context.Context) CheckResult {
	startTime := time.Now()
	result := CheckResult{Component: d.Name(), Critical: true, Timestamp: startTime}

	if d.wrapper.IsCircuitBreakerOpen() {
		result.Status = StatusUnhealthy
		result.Error = "circuit breaker open"
		result.Message = "Evidence store circuit breaker is open"
		return result
	}

	err := d.wrapper.PingContext(ctx)
	result.Duration = time.Since(startTime)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Message = "Evidence store ping failed"
		return result
	}

	stats := d.wrapper.GetDB().Stats()
	result.Status, result.Message = latencyStatus(result.Duration, "Evidence store")
	result.Details = map[string]interface{}{
		"latency_ms":       result.Duration.Milliseconds(),
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
	}
	return result
}

// RedisPinger is the embedding cache surface the checker needs
type RedisPinger interface {
	Ping(ctx context.Context) error
	IsCircuitBreakerOpen() bool
}

// RedisHealthChecker checks the shared embedding cache. The cache is an
// optimization, so its failure is not critical.
type RedisHealthChecker struct {
	cache   RedisPinger
	logger  *zap.Logger
	timeout time.Duration
}

// NewRedisHealthChecker creates a Redis health checker
func NewRedisHealthChecker(cache RedisPinger, logger *zap.Logger) *RedisHealthChecker {
	return &RedisHealthChecker{cache: cache, logger: logger, timeout: 3 * time.Second}
}

func (r *RedisHealthChecker) Name() string           { return "embedding_cache" }
func (r *RedisHealthChecker) IsCritical() bool       { return false }
func (r *RedisHealthChecker) Timeout() time.Duration { return r.timeout }

func (r *RedisHealthChecker) Check(ctx context.Context) CheckResult {
	startTime := time.Now()
	result := CheckResult{Component: r.Name(), Timestamp: startTime}

	if r.cache.IsCircuitBreakerOpen() {
		result.Status = StatusDegraded
		result.Error = "circuit breaker open"
		result.Message = "Redis circuit breaker is open"
		return result
	}
	err := r.cache.Ping(ctx)
	result.Duration = time.Since(startTime)
	if err != nil {
		result.Status = StatusDegraded
		result.Error = err.Error()
		result.Message = "Redis ping failed"
		return result
	}
	result.Status, result.Message = latencyStatus(result.Duration, "Redis")
	return result
}

// CollectionProber is the similarity index surface the checker needs
type CollectionProber interface {
	CollectionExists(ctx context.Context) (bool, error)
	IsCircuitBreakerOpen() bool
}

// VectorIndexHealthChecker checks that the message collection exists.
// Similarity search degrades to recency retrieval, so it is not critical.
type VectorIndexHealthChecker struct {
	index   CollectionProber
	logger  *zap.Logger
	timeout time.Duration
}

// NewVectorIndexHealthChecker creates a similarity index health checker
func NewVectorIndexHealthChecker(index CollectionProber, logger *zap.Logger) *VectorIndexHealthChecker {
	return &VectorIndexHealthChecker{index: index, logger: logger, timeout: 5 * time.Second}
}

func (v *VectorIndexHealthChecker) Name() string           { return "similarity_index" }
func (v *VectorIndexHealthChecker) IsCritical() bool       { return false }
func (v *VectorIndexHealthChecker) Timeout() time.Duration { return v.timeout }

func (v *VectorIndexHealthChecker) Check(ctx context.Context) CheckResult {
	startTime := time.Now()
	result := CheckResult{Component: v.Name(), Timestamp: startTime}

	if v.index.IsCircuitBreakerOpen() {
		result.Status = StatusDegraded
		result.Error = "circuit breaker open"
		result.Message = "Qdrant circuit breaker is open"
		return result
	}
	exists, err := v.index.CollectionExists(ctx)
	result.Duration = time.Since(startTime)
	switch {
	case err != nil:
		result.Status = StatusDegraded
		result.Error = err.Error()
		result.Message = "Qdrant unreachable"
	case !exists:
		result.Status = StatusDegraded
		result.Message = "Message collection not built; recency retrieval only"
	default:
		result.Status, result.Message = latencyStatus(result.Duration, "Qdrant")
	}
	return result
}

// GraphHealthChecker reads one node to confirm the graph is loadable
type GraphHealthChecker struct {
	graph   graph.Graph
	logger  *zap.Logger
	timeout time.Duration
}

// NewGraphHealthChecker creates a graph health checker
func NewGraphHealthChecker(g graph.Graph, logger *zap.Logger) *GraphHealthChecker {
	return &GraphHealthChecker{graph: g, logger: logger, timeout: 5 * time.Second}
}

func (g *GraphHealthChecker) Name() string           { return "graph" }
func (g *GraphHealthChecker) IsCritical() bool       { return false }
func (g *GraphHealthChecker) Timeout() time.Duration { return g.timeout }

func (g *GraphHealthChecker) Check(ctx context.Context) CheckResult {
	startTime := time.Now()
	result := CheckResult{Component: g.Name(), Timestamp: startTime}

	nodes, err := g.graph.Nodes(ctx, 1)
	result.Duration = time.Since(startTime)
	if err != nil {
		result.Status = StatusDegraded
		result.Error = err.Error()
		result.Message = "Graph read failed"
		return result
	}
	if len(nodes) == 0 {
		result.Status = StatusDegraded
		result.Message = "Graph is empty"
		return result
	}
	result.Status, result.Message = latencyStatus(result.Duration, "Graph")
	return result
}
