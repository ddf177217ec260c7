package circuitbreaker

import (
	"os"
	"strconv"
	"time"
)

// Settings are the env-tunable thresholds for one class of collaborator
type Settings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	SuccessThreshold uint32
}

// DatabaseSettings reads CB_DB_* for the evidence store
func DatabaseSettings() Settings {
	return settingsFromEnv("CB_DB", Settings{
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
	})
}

// HTTPSettings reads CB_HTTP_* for the similarity index and embedding endpoint
func HTTPSettings() Settings {
	return settingsFromEnv("CB_HTTP", Settings{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 3,
		SuccessThreshold: 2,
	})
}

// RedisSettings reads CB_REDIS_* for the embedding cache
func RedisSettings() Settings {
	return settingsFromEnv("CB_REDIS", Settings{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 3,
		SuccessThreshold: 2,
	})
}

// ToConfig converts settings into a breaker Config
func (s Settings) ToConfig() Config {
	return Config{
		MaxRequests:      s.MaxRequests,
		Interval:         s.Interval,
		Timeout:          s.Timeout,
		FailureThreshold: s.FailureThreshold,
		SuccessThreshold: s.SuccessThreshold,
	}
}

func settingsFromEnv(prefix string, def Settings) Settings {
	return Settings{
		MaxRequests:      envUint32(prefix+"_MAX_REQUESTS", def.MaxRequests),
		Interval:         envDuration(prefix+"_INTERVAL", def.Interval),
		Timeout:          envDuration(prefix+"_TIMEOUT", def.Timeout),
		FailureThreshold: envUint32(prefix+"_FAILURE_THRESHOLD", def.FailureThreshold),
		SuccessThreshold: envUint32(prefix+"_SUCCESS_THRESHOLD", def.SuccessThreshold),
	}
}

func envUint32(key string, def uint32) uint32 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 32); err == nil {
			return uint32(parsed)
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return def
}
