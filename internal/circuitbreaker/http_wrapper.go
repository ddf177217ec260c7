package circuitbreaker

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPWrapper guards an http.Client; 5xx responses count as breaker failures
// but are still handed back to the caller.
type HTTPWrapper struct {
	client  *http.Client
	cb      *CircuitBreaker
	name    string
	service string
}

// NewHTTPWrapper creates a wrapper registered under service:name
func NewHTTPWrapper(client *http.Client, name, service string, logger *zap.Logger) *HTTPWrapper {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	cb := NewCircuitBreaker(name, HTTPSettings().ToConfig(), logger)
	GlobalMetricsCollector.Register(name, service, cb)
	return &HTTPWrapper{client: client, cb: cb, name: name, service: service}
}

// Do executes req through the breaker
func (hw *HTTPWrapper) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := hw.cb.Execute(req.Context(), func() error {
		var derr error
		resp, derr = hw.client.Do(req)
		if derr != nil {
			return derr
		}
		if resp.StatusCode >= 500 {
			return &httpStatusError{code: resp.StatusCode}
		}
		return nil
	})

	GlobalMetricsCollector.RecordRequest(hw.name, hw.service, hw.cb.State(), err == nil)

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return resp, nil
	}
	return resp, err
}

// IsCircuitBreakerOpen reports whether the remote is currently short-circuited
func (hw *HTTPWrapper) IsCircuitBreakerOpen() bool { return hw.cb.IsOpen() }

type httpStatusError struct{ code int }

func (e *httpStatusError) Error() string { return http.StatusText(e.code) }
