package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const redisService = "embedding-cache"

// RedisWrapper guards the embedding cache client
type RedisWrapper struct {
	client *redis.Client
	cb     *CircuitBreaker
}

// NewRedisWrapper wraps client with a breaker
func NewRedisWrapper(client *redis.Client, logger *zap.Logger) *RedisWrapper {
	cb := NewCircuitBreaker("redis", RedisSettings().ToConfig(), logger)
	GlobalMetricsCollector.Register("redis", redisService, cb)
	return &RedisWrapper{client: client, cb: cb}
}

func (rw *RedisWrapper) record(err error) {
	GlobalMetricsCollector.RecordRequest("redis", redisService, rw.cb.State(), err == nil)
}

// Ping checks connectivity
func (rw *RedisWrapper) Ping(ctx context.Context) error {
	err := rw.cb.Execute(ctx, func() error {
		return rw.client.Ping(ctx).Err()
	})
	rw.record(err)
	return err
}

// GetBytes returns the value for key; a miss is redis.Nil and does not trip the breaker
func (rw *RedisWrapper) GetBytes(ctx context.Context, key string) ([]byte, error) {
	var (
		val  []byte
		miss bool
	)
	err := rw.cb.Execute(ctx, func() error {
		b, gerr := rw.client.Get(ctx, key).Bytes()
		if errors.Is(gerr, redis.Nil) {
			miss = true
			return nil
		}
		val = b
		return gerr
	})
	rw.record(err)
	if err != nil {
		return nil, err
	}
	if miss {
		return nil, redis.Nil
	}
	return val, nil
}

// Set stores value with expiration
func (rw *RedisWrapper) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	err := rw.cb.Execute(ctx, func() error {
		return rw.client.Set(ctx, key, value, expiration).Err()
	})
	rw.record(err)
	return err
}

// IsCircuitBreakerOpen reports whether the cache is currently short-circuited
func (rw *RedisWrapper) IsCircuitBreakerOpen() bool { return rw.cb.IsOpen() }

// Close closes the client
func (rw *RedisWrapper) Close() error { return rw.client.Close() }
