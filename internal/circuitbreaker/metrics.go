package circuitbreaker

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ufdr_circuit_breaker_state",
			Help: "Current state of circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name", "service"},
	)

	breakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ufdr_circuit_breaker_requests_total",
			Help: "Requests that went through a circuit breaker",
		},
		[]string{"name", "service", "state", "result"},
	)

	breakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ufdr_circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "service", "from_state", "to_state"},
	)
)

// MetricsCollector exports breaker state for every registered breaker
type MetricsCollector struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
}

// NewMetricsCollector creates an empty collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{breakers: make(map[string]*CircuitBreaker)}
}

// Register hooks the breaker's state changes into the gauges
func (mc *MetricsCollector) Register(name, service string, cb *CircuitBreaker) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.breakers[service+":"+name] = cb

	cb.mutex.Lock()
	previous := cb.config.OnStateChange
	cb.config.OnStateChange = func(cbName string, from State, to State) {
		if previous != nil {
			previous(cbName, from, to)
		}
		breakerStateChanges.WithLabelValues(name, service, from.String(), to.String()).Inc()
		breakerState.WithLabelValues(name, service).Set(float64(to))
	}
	cb.mutex.Unlock()

	breakerState.WithLabelValues(name, service).Set(float64(StateClosed))
}

// RecordRequest counts one guarded call
func (mc *MetricsCollector) RecordRequest(name, service string, state State, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	breakerRequests.WithLabelValues(name, service, state.String(), result).Inc()
}

// Breakers returns a copy of the registered breakers keyed by service:name
func (mc *MetricsCollector) Breakers() map[string]*CircuitBreaker {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	out := make(map[string]*CircuitBreaker, len(mc.breakers))
	for k, v := range mc.breakers {
		out[k] = v
	}
	return out
}

// GlobalMetricsCollector is shared by all wrappers in the process
var GlobalMetricsCollector = NewMetricsCollector()
