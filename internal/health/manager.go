package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager runs registered checkers and aggregates their results
type Manager struct {
	checkers    map[string]Checker
	lastResults map[string]CheckResult
	timeout     time.Duration
	logger      *zap.Logger
	mu          sync.RWMutex
}

// NewManager creates a new health manager. timeout caps each check; zero
// means the checker's own timeout.
func NewManager(timeout time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		checkers:    make(map[string]Checker),
		lastResults: make(map[string]CheckResult),
		timeout:     timeout,
		logger:      logger,
	}
}

// RegisterChecker registers a health check
func (m *Manager) RegisterChecker(checker Checker) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := checker.Name()
	if name == "" {
		return fmt.Errorf("checker name cannot be empty")
	}
	if _, exists := m.checkers[name]; exists {
		return fmt.Errorf("checker %s already registered", name)
	}
	m.checkers[name] = checker
	m.logger.Debug("Registered health checker",
		zap.String("name", name),
		zap.Bool("critical", checker.IsCritical()),
	)
	return nil
}

// Names returns the registered checker names in sorted order
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.checkers))
	for name := range m.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckAll runs every checker concurrently and stores the results
func (m *Manager) CheckAll(ctx context.Context) map[string]CheckResult {
	m.mu.RLock()
	checkers := make([]Checker, 0, len(m.checkers))
	for _, c := range m.checkers {
		checkers = append(checkers, c)
	}
	m.mu.RUnlock()

	results := make(map[string]CheckResult, len(checkers))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, c := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			r := m.runChecker(ctx, c)
			mu.Lock()
			results[c.Name()] = r
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	m.mu.Lock()
	for name, r := range results {
		m.lastResults[name] = r
	}
	m.mu.Unlock()
	return results
}

func (m *Manager) runChecker(ctx context.Context, c Checker) CheckResult {
	timeout := c.Timeout()
	if m.timeout > 0 && (timeout <= 0 || m.timeout < timeout) {
		timeout = m.timeout
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan CheckResult, 1)
	go func() { done <- c.Check(checkCtx) }()

	var result CheckResult
	select {
	case result = <-done:
	case <-checkCtx.Done():
		result = CheckResult{
			Status:  StatusUnhealthy,
			Error:   checkCtx.Err().Error(),
			Message: fmt.Sprintf("Health check timed out after %s", timeout),
		}
	}
	result.Component = c.Name()
	result.Critical = c.IsCritical()
	if result.Timestamp.IsZero() {
		result.Timestamp = start
	}
	if result.Duration == 0 {
		result.Duration = time.Since(start)
	}
	if result.Status != StatusHealthy {
		m.logger.Warn("Health check not healthy",
			zap.String("component", result.Component),
			zap.String("status", result.Status.String()),
			zap.String("error", result.Error),
		)
	}
	return result
}

// GetOverallHealth runs all checks and folds them into one status. A failed
// critical check makes the service unhealthy; any other problem degrades it.
func (m *Manager) GetOverallHealth(ctx context.Context) OverallHealth {
	return m.GetDetailedHealth(ctx).Overall
}

// GetDetailedHealth runs all checks and returns per-component results
func (m *Manager) GetDetailedHealth(ctx context.Context) DetailedHealth {
	start := time.Now()
	results := m.CheckAll(ctx)

	var summary HealthSummary
	for _, r := range results {
		summary.Total++
		switch r.Status {
		case StatusHealthy:
			summary.Healthy++
		case StatusDegraded:
			summary.Degraded++
		default:
			summary.Unhealthy++
			if r.Critical {
				summary.Critical++
			}
		}
	}

	overall := OverallHealth{
		Status:    StatusHealthy,
		Timestamp: start,
		Duration:  time.Since(start),
		Ready:     summary.Critical == 0,
		Message:   "All components healthy",
	}
	switch {
	case summary.Critical > 0:
		overall.Status = StatusUnhealthy
		overall.Message = fmt.Sprintf("%d critical component(s) unhealthy", summary.Critical)
	case summary.Degraded > 0 || summary.Unhealthy > 0:
		overall.Status = StatusDegraded
		overall.Degraded = true
		overall.Message = fmt.Sprintf("%d component(s) degraded", summary.Degraded+summary.Unhealthy)
	}

	return DetailedHealth{Overall: overall, Components: results, Summary: summary}
}

// IsReady reports whether every critical component is usable
func (m *Manager) IsReady(ctx context.Context) bool {
	return m.GetOverallHealth(ctx).Ready
}

// LastResults returns a copy of the most recent results
func (m *Manager) LastResults() map[string]CheckResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]CheckResult, len(m.lastResults))
	for k, v := range m.lastResults {
		out[k] = v
	}
	return out
}
