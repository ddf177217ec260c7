package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ufdr-assistant/go/orchestrator/internal/circuitbreaker"
	ometrics "github.com/ufdr-assistant/go/orchestrator/internal/metrics"
	"github.com/ufdr-assistant/go/orchestrator/internal/tracing"
)

const lruTTL = 30 * time.Minute

// Service turns query text into vectors, with an in-process LRU in front of
// an optional shared cache.
type Service struct {
	cfg    Config
	httpw  *circuitbreaker.HTTPWrapper
	cache  EmbeddingCache
	lru    *LocalLRU
	logger *zap.Logger
}

// NewService creates the service. cache may be nil.
func NewService(cfg Config, cache EmbeddingCache, logger *zap.Logger) *Service {
	c := cfg
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.DefaultModel == "" {
		c.DefaultModel = "text-embedding-3-small"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Hour
	}
	if c.MaxLRU == 0 {
		c.MaxLRU = 2048
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if logger == nil {
		logger = zap.NewNop()
	}
	httpw := circuitbreaker.NewHTTPWrapper(&http.Client{Timeout: c.Timeout}, "embeddings", "similarity-index", logger)
	return &Service{cfg: c, httpw: httpw, cache: cache, lru: NewLocalLRU(c.MaxLRU), logger: logger}
}

// GetConfig returns the effective configuration
func (s *Service) GetConfig() Config { return s.cfg }

// GenerateEmbedding returns the vector for a single text
func (s *Service) GenerateEmbedding(ctx context.Context, text string, model string) ([]float32, error) {
	if s == nil {
		return nil, fmt.Errorf("embedding service not initialized")
	}
	m := model
	if m == "" {
		m = s.cfg.DefaultModel
	}
	key := MakeKey(m, text)

	if v, ok := s.lru.Get(ctx, key); ok {
		ometrics.RecordEmbeddingMetrics(m, "lru_hit", 0)
		return v, nil
	}
	if s.cache != nil {
		if v, ok := s.cache.Get(ctx, key); ok {
			s.lru.Set(ctx, key, v, lruTTL)
			ometrics.RecordEmbeddingMetrics(m, "cache_hit", 0)
			return v, nil
		}
	}

	start := time.Now()
	url := s.cfg.BaseURL + "/embeddings/"
	ctx, span := tracing.StartHTTPSpan(ctx, http.MethodPost, url)
	defer span.End()

	buf, _ := json.Marshal(embedRequest{Texts: []string{text}, Model: m})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)

	resp, err := s.httpw.Do(req)
	if err != nil {
		ometrics.RecordEmbeddingMetrics(m, "error", time.Since(start).Seconds())
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		ometrics.RecordEmbeddingMetrics(m, "error", time.Since(start).Seconds())
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		ometrics.RecordEmbeddingMetrics(m, "error", time.Since(start).Seconds())
		return nil, err
	}
	if len(er.Embeddings) == 0 {
		ometrics.RecordEmbeddingMetrics(m, "empty", time.Since(start).Seconds())
		return nil, fmt.Errorf("no embeddings returned")
	}
	out := make([]float32, len(er.Embeddings[0]))
	for i, f := range er.Embeddings[0] {
		out[i] = float32(f)
	}
	ometrics.RecordEmbeddingMetrics(m, "ok", time.Since(start).Seconds())

	s.lru.Set(ctx, key, out, lruTTL)
	if s.cache != nil {
		s.cache.Set(ctx, key, out, s.cfg.CacheTTL)
	}
	return out, nil
}
