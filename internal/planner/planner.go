package planner

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	defaultTimeout = 8 * time.Second
)

// Planner produces an advisory plan for a query. Implementations may return
// a nil plan with a nil error when they have nothing to offer.
type Planner interface {
	Plan(ctx context.Context, query string) (*Plan, error)
	Name() string
}

// Config holds advisory planner configuration
type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	Provider      string        `mapstructure:"provider"`
	Model         string        `mapstructure:"model"`
	APIKey        string        `mapstructure:"api_key"`
	APIKeyEnv     string        `mapstructure:"api_key_env"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

// apiKey resolves the key from config, the configured env var or the
// provider's conventional env var.
func (c Config) apiKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if c.APIKeyEnv != "" {
		return os.Getenv(c.APIKeyEnv)
	}
	switch c.Provider {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	default:
		return os.Getenv("GEMINI_API_KEY")
	}
}

// New builds the planner once per process. A disabled feature flag or a
// missing credential yields Noop; there is no per-request retry of that
// decision.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Planner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("Advisory planner disabled")
		return Noop{}, nil
	}
	key := cfg.apiKey()
	if key == "" && cfg.BaseURL == "" {
		logger.Info("Advisory planner disabled: no API key", zap.String("provider", cfg.Provider))
		return Noop{}, nil
	}

	var (
		inner Planner
		err   error
	)
	switch cfg.Provider {
	case ProviderGemini, "":
		inner, err = NewGeminiPlanner(ctx, key, cfg.Model)
	case ProviderOpenAI:
		inner, err = NewOpenAIPlanner(key, cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown planner provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Advisory planner enabled",
		zap.String("provider", inner.Name()),
		zap.Duration("timeout", cfg.Timeout),
	)
	return NewGuarded(inner, cfg.Timeout, cfg.RatePerSecond, cfg.Burst, logger), nil
}

// Noop never plans
type Noop struct{}

func (Noop) Plan(context.Context, string) (*Plan, error) { return nil, nil }
func (Noop) Name() string                                { return "none" }
