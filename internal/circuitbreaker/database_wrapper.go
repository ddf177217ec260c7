package circuitbreaker

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
)

const databaseService = "evidence-store"

// DatabaseWrapper guards evidence store queries with a breaker
type DatabaseWrapper struct {
	db     *sql.DB
	cb     *CircuitBreaker
	name   string
	logger *zap.Logger
}

// NewDatabaseWrapper wraps db; name identifies the driver in metrics
func NewDatabaseWrapper(db *sql.DB, name string, logger *zap.Logger) *DatabaseWrapper {
	if name == "" {
		name = "database"
	}
	cb := NewCircuitBreaker(name, DatabaseSettings().ToConfig(), logger)
	GlobalMetricsCollector.Register(name, databaseService, cb)
	return &DatabaseWrapper{db: db, cb: cb, name: name, logger: logger}
}

func (dw *DatabaseWrapper) record(err error) {
	GlobalMetricsCollector.RecordRequest(dw.name, databaseService, dw.cb.State(), err == nil)
}

// PingContext pings through the breaker
func (dw *DatabaseWrapper) PingContext(ctx context.Context) error {
	err := dw.cb.Execute(ctx, func() error {
		return dw.db.PingContext(ctx)
	})
	dw.record(err)
	return err
}

// QueryContext runs a read query through the breaker
func (dw *DatabaseWrapper) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	var rows *sql.Rows
	err := dw.cb.Execute(ctx, func() error {
		var qerr error
		rows, qerr = dw.db.QueryContext(ctx, query, args...)
		return qerr
	})
	dw.record(err)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ExecContext runs a statement through the breaker
func (dw *DatabaseWrapper) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	var result sql.Result
	err := dw.cb.Execute(ctx, func() error {
		var eerr error
		result, eerr = dw.db.ExecContext(ctx, query, args...)
		return eerr
	})
	dw.record(err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IsCircuitBreakerOpen reports whether the store is currently short-circuited
func (dw *DatabaseWrapper) IsCircuitBreakerOpen() bool { return dw.cb.IsOpen() }

// GetDB returns the raw pool
func (dw *DatabaseWrapper) GetDB() *sql.DB { return dw.db }

// Close closes the pool
func (dw *DatabaseWrapper) Close() error { return dw.db.Close() }
