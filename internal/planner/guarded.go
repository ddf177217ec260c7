package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ufdr-assistant/go/orchestrator/internal/metrics"
	"github.com/ufdr-assistant/go/orchestrator/internal/tracing"
)

// Guarded bounds an inner planner: a rate limit, a per-call timeout and
// panic recovery. Any failure is logged and reported as "no plan", so the
// heuristic criteria are used unchanged.
type Guarded struct {
	inner   Planner
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewGuarded wraps inner. ratePerSecond <= 0 disables rate limiting.
func NewGuarded(inner Planner, timeout time.Duration, ratePerSecond float64, burst int, logger *zap.Logger) *Guarded {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Guarded{
		inner:   inner,
		timeout: timeout,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

func (g *Guarded) Name() string { return g.inner.Name() }

// Plan never returns an error; failures become a nil plan
func (g *Guarded) Plan(ctx context.Context, query string) (plan *Plan, _ error) {
	provider := g.inner.Name()
	if !g.limiter.Allow() {
		metrics.RecordPlanner(provider, "rate_limited", 0)
		g.logger.Debug("Advisory planner skipped by rate limit")
		return nil, nil
	}

	ctx, span := tracing.StartSpan(ctx, "planner.plan")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordPlanner(provider, "panic", time.Since(start).Seconds())
			g.logger.Error("Advisory planner panicked", zap.Any("panic", r))
			plan = nil
		}
	}()

	p, err := g.inner.Plan(ctx, query)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		metrics.RecordPlanner(provider, outcome, elapsed)
		span.RecordError(err)
		g.logger.Warn("Advisory planning failed, using heuristic criteria",
			zap.String("provider", provider),
			zap.Error(err),
		)
		return nil, nil
	}
	if p == nil {
		metrics.RecordPlanner(provider, "empty", elapsed)
		return nil, nil
	}
	if len(p.Malformed) > 0 {
		g.logger.Debug("Dropped malformed plan fields", zap.Strings("fields", p.Malformed))
	}
	metrics.RecordPlanner(provider, "ok", elapsed)
	g.logger.Debug("Advisory plan received", zap.String("plan", fmt.Sprintf("%+v", *p)))
	return p, nil
}
