package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("UFDR_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Store.Driver)
	assert.Equal(t, 200, cfg.Store.CandidateCap)
	assert.Equal(t, "messages", cfg.VectorDB.Collection)
	assert.Equal(t, GraphBackendFile, cfg.Graph.Backend)
	assert.False(t, cfg.Planner.Enabled)
	assert.Equal(t, 8*time.Second, cfg.Planner.Timeout)
	assert.Equal(t, "Asia/Kolkata", cfg.Engine.LocalTimezone)
	assert.Equal(t, 5, cfg.Engine.DefaultLimit)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: postgres
  dsn: postgres://ufdr@localhost/evidence?sslmode=disable
  candidate_cap: 150
vectordb:
  enabled: true
  url: http://qdrant:6333
planner:
  enabled: true
  provider: openai
  timeout: 3s
engine:
  reporting_timezone: UTC
`)
	t.Setenv("UFDR_VECTORDB_COLLECTION", "ufdr_messages")
	t.Setenv("UFDR_ENGINE_DEFAULT_LIMIT", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 150, cfg.Store.CandidateCap)
	assert.True(t, cfg.VectorDB.Enabled)
	assert.Equal(t, "http://qdrant:6333", cfg.VectorDB.URL)
	assert.Equal(t, "ufdr_messages", cfg.VectorDB.Collection)
	assert.Equal(t, "openai", cfg.Planner.Provider)
	assert.Equal(t, 3*time.Second, cfg.Planner.Timeout)
	assert.Equal(t, "UTC", cfg.Engine.ReportingTimezone)
	assert.Equal(t, "Asia/Kolkata", cfg.Engine.LocalTimezone)
	assert.Equal(t, 7, cfg.Engine.DefaultLimit)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	for _, body := range []string{
		"store:\n  driver: mysql\n",
		"graph:\n  backend: arango\n",
		"planner:\n  provider: llama\n",
		"engine:\n  default_limit: 0\n",
	} {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, body)
	}
}

func TestMetricsPortEnvOverride(t *testing.T) {
	cfg := &Config{}
	cfg.Observability.Metrics.Port = 2112
	assert.Equal(t, 2112, cfg.MetricsPort())

	t.Setenv("METRICS_PORT", "9191")
	assert.Equal(t, 9191, cfg.MetricsPort())
}
