package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions        *prometheus.CounterVec
	StoreErrors      prometheus.Counter
	FallbackRequests prometheus.Counter
	CircuitOpen      prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "condo_ratelimit_decisions_total",
			Help: "Write rate limit decisions by outcome",
		}, []string{"result"}),
		StoreErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "condo_ratelimit_store_errors_total",
			Help: "Primary bucket store errors",
		}),
		FallbackRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "condo_ratelimit_fallback_requests_total",
			Help: "Requests checked against the in-memory fallback",
		}),
		CircuitOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "condo_ratelimit_circuit_open",
			Help: "1 while the primary bucket store is bypassed",
		}),
	}
}

func (m *Metrics) IncrementDecision(allowed bool) {
	if m == nil {
		return
	}
	result := "allowed"
	if !allowed {
		result = "denied"
	}
	m.Decisions.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementStoreError() {
	if m == nil {
		return
	}
	m.StoreErrors.Inc()
}

func (m *Metrics) IncrementFallback() {
	if m == nil {
		return
	}
	m.FallbackRequests.Inc()
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}
