package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ufdr-assistant/go/orchestrator/internal/circuitbreaker"
	ometrics "github.com/ufdr-assistant/go/orchestrator/internal/metrics"
	"github.com/ufdr-assistant/go/orchestrator/internal/tracing"
)

// ErrDisabled is returned by searches on a disabled client
var ErrDisabled = errors.New("vectordb: disabled")

// Client is a minimal Qdrant HTTP client
type Client struct {
	cfg   Config
	base  string
	httpw *circuitbreaker.HTTPWrapper
	log   *zap.Logger
}

// NewClient builds a client; it does not contact Qdrant
func NewClient(cfg Config, logger *zap.Logger) *Client {
	c := cfg
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6333
	}
	if c.TopK == 0 {
		c.TopK = 10
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Collection == "" {
		c.Collection = "messages"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	base := strings.TrimRight(c.URL, "/")
	if base == "" {
		base = fmt.Sprintf("http://%s:%d", c.Host, c.Port)
	}
	httpw := circuitbreaker.NewHTTPWrapper(&http.Client{Timeout: c.Timeout}, "qdrant", "vectordb", logger)
	return &Client{cfg: c, base: base, httpw: httpw, log: logger}
}

// GetConfig returns the effective configuration
func (c *Client) GetConfig() Config { return c.cfg }

// IsCircuitBreakerOpen reports whether Qdrant calls are short-circuited
func (c *Client) IsCircuitBreakerOpen() bool { return c.httpw.IsCircuitBreakerOpen() }

// qdrant search request/response (simplified)
type qdrantQueryRequest struct {
	Query          []float32 `json:"query"`
	Limit          int       `json:"limit"`
	ScoreThreshold *float64  `json:"score_threshold,omitempty"`
	WithPayload    bool      `json:"with_payload"`
}

type qdrantPoint struct {
	ID      interface{}            `json:"id"`
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload"`
}

type qdrantSearchResponse struct {
	Result []qdrantPoint `json:"result"`
	Status string        `json:"status"`
}

// qdrantQueryResponse for the /points/query endpoint which has nested structure
type qdrantQueryResponse struct {
	Result struct {
		Points []qdrantPoint `json:"points"`
	} `json:"result"`
	Status string `json:"status"`
}

func (c *Client) post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	buf, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)
	return c.httpw.Do(req)
}

func (c *Client) search(ctx context.Context, collection string, vec []float32, limit int, threshold float64) ([]qdrantPoint, error) {
	if c == nil || !c.cfg.Enabled {
		return nil, ErrDisabled
	}
	start := time.Now()

	urlQuery := fmt.Sprintf("%s/collections/%s/points/query", c.base, collection)
	ctx, span := tracing.StartHTTPSpan(ctx, http.MethodPost, urlQuery)
	defer span.End()

	// Prefer /points/query; older servers only know /points/search
	var thr *float64
	if threshold > 0 {
		thr = &threshold
	}
	resp, err := c.post(ctx, urlQuery, qdrantQueryRequest{Query: vec, Limit: limit, ScoreThreshold: thr, WithPayload: true})
	if err != nil {
		ometrics.RecordVectorSearchMetrics(collection, "error", time.Since(start).Seconds())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var qr qdrantQueryResponse
		if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
			ometrics.RecordVectorSearchMetrics(collection, "error", time.Since(start).Seconds())
			return nil, err
		}
		ometrics.RecordVectorSearchMetrics(collection, "ok", time.Since(start).Seconds())
		return qr.Result.Points, nil
	}

	c.log.Debug("Qdrant /points/query rejected, trying /points/search",
		zap.String("collection", collection), zap.Int("status", resp.StatusCode))
	legacy := map[string]interface{}{"vector": vec, "limit": limit, "with_payload": true}
	if threshold > 0 {
		legacy["score_threshold"] = threshold
	}
	resp2, err := c.post(ctx, fmt.Sprintf("%s/collections/%s/points/search", c.base, collection), legacy)
	if err != nil {
		ometrics.RecordVectorSearchMetrics(collection, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("qdrant query/search failed: %w", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		ometrics.RecordVectorSearchMetrics(collection, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("qdrant status %d", resp2.StatusCode)
	}
	var sr qdrantSearchResponse
	if err := json.NewDecoder(resp2.Body).Decode(&sr); err != nil {
		ometrics.RecordVectorSearchMetrics(collection, "error", time.Since(start).Seconds())
		return nil, err
	}
	ometrics.RecordVectorSearchMetrics(collection, "ok", time.Since(start).Seconds())
	return sr.Result, nil
}

// SearchMessages returns up to k message candidates nearest to vec. The
// message id is read from the message_id payload field, falling back to a
// numeric point id. Points with neither are skipped.
func (c *Client) SearchMessages(ctx context.Context, vec []float32, k int) ([]Candidate, error) {
	if k <= 0 {
		k = c.cfg.TopK
	}
	points, err := c.search(ctx, c.cfg.Collection, vec, k, c.cfg.Threshold)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(points))
	for _, p := range points {
		id, ok := asInt64(p.Payload["message_id"])
		if !ok {
			id, ok = asInt64(p.ID)
		}
		if !ok {
			c.log.Debug("Skipping point without message id", zap.Any("point_id", p.ID))
			continue
		}
		out = append(out, Candidate{MessageID: id, Score: p.Score})
	}
	return out, nil
}

// CollectionExists probes the configured collection. A missing collection is
// (false, nil); transport failures are returned as errors.
func (c *Client) CollectionExists(ctx context.Context) (bool, error) {
	if !c.cfg.Enabled {
		return false, nil
	}
	url := fmt.Sprintf("%s/collections/%s", c.base, c.cfg.Collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpw.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("qdrant status %d", resp.StatusCode)
	}
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}
