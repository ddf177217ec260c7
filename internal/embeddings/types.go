package embeddings

import "time"

// Config controls the embedding service behavior
type Config struct {
	// BaseURL points to the service providing POST /embeddings/
	BaseURL string `mapstructure:"base_url"`
	// DefaultModel must match the model used to build the message index
	DefaultModel string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	// EnableRedis enables the shared Redis cache
	EnableRedis bool          `mapstructure:"enable_redis"`
	RedisAddr   string        `mapstructure:"redis_addr"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	// MaxLRU controls in-process LRU size
	MaxLRU int `mapstructure:"max_lru"`
}

type embedRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Dimensions int         `json:"dimensions"`
	ModelUsed  string      `json:"model_used"`
}
