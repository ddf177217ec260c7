package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ufdr-assistant/go/orchestrator/internal/circuitbreaker"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	// DefaultCandidateCap bounds every recency window read
	DefaultCandidateCap = 200
)

// Config holds evidence store configuration
type Config struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxConnections  int           `mapstructure:"max_connections"`
	IdleConnections int           `mapstructure:"idle_connections"`
	MaxLifetime     time.Duration `mapstructure:"max_lifetime"`
	CandidateCap    int           `mapstructure:"candidate_cap"`
}

// Client is the read side of the evidence store plus the contact directory.
// All queries pass through a circuit breaker.
type Client struct {
	db     *circuitbreaker.DatabaseWrapper
	driver string
	bind   int
	cap    int
	logger *zap.Logger
	stopCh chan struct{}
}

// NewClient opens the configured database and verifies connectivity
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if config.Driver == "" {
		config.Driver = DriverSQLite
	}
	if config.DSN == "" {
		return nil, fmt.Errorf("store dsn is required")
	}
	if config.MaxConnections == 0 {
		config.MaxConnections = 10
	}
	if config.IdleConnections == 0 {
		config.IdleConnections = 2
	}
	if config.MaxLifetime == 0 {
		config.MaxLifetime = 5 * time.Minute
	}

	rawDB, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if config.Driver == DriverSQLite {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY
		rawDB.SetMaxOpenConns(1)
	} else {
		rawDB.SetMaxOpenConns(config.MaxConnections)
		rawDB.SetMaxIdleConns(config.IdleConnections)
	}
	rawDB.SetConnMaxLifetime(config.MaxLifetime)

	client := New(rawDB, config.Driver, config.CandidateCap, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.db.PingContext(ctx); err != nil {
		rawDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	go client.healthCheck()

	logger.Info("Evidence store initialized",
		zap.String("driver", config.Driver),
		zap.Int("candidate_cap", client.cap),
	)
	return client, nil
}

// New wraps an already opened pool. Used by NewClient and by tests.
func New(rawDB *sql.DB, driver string, candidateCap int, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if candidateCap <= 0 {
		candidateCap = DefaultCandidateCap
	}
	return &Client{
		db:     circuitbreaker.NewDatabaseWrapper(rawDB, driver, logger),
		driver: driver,
		bind:   sqlx.BindType(driver),
		cap:    candidateCap,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// healthCheck periodically pings the store so the breaker state stays fresh
func (c *Client) healthCheck() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.db.PingContext(ctx); err != nil {
				c.logger.Error("Evidence store health check failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// Close stops the health loop and closes the pool
func (c *Client) Close() error {
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Driver returns the driver name
func (c *Client) Driver() string { return c.driver }

// CandidateCap returns the recency window cap
func (c *Client) CandidateCap() int { return c.cap }

// Wrapper returns the underlying DatabaseWrapper for health checks and monitoring
func (c *Client) Wrapper() *circuitbreaker.DatabaseWrapper {
	return c.db
}

func (c *Client) rebind(query string) string {
	return sqlx.Rebind(c.bind, query)
}
