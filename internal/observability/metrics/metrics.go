package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the chat gateway flow.
type ChatMetrics struct {
	requestsTotal  *prometheus.CounterVec
	backendLatency *prometheus.HistogramVec
}

// NewChatMetrics registers and returns the gateway metrics. A nil registerer
// falls back to the default one.
func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "llamagate",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total chat requests by outcome",
		}, []string{"outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "llamagate",
			Subsystem: "chat",
			Name:      "backend_latency_seconds",
			Help:      "Latency of outbound Ollama calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.backendLatency)
	return m
}

// ObserveRequest counts one finished chat request. Outcomes: success,
// model_not_installed, empty_generation, backend_unavailable,
// backend_failure.
func (m *ChatMetrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveBackendLatency records the duration of one outbound call ("tags"
// or "chat").
func (m *ChatMetrics) ObserveBackendLatency(op string, seconds float64) {
	if m == nil {
		return
	}
	m.backendLatency.WithLabelValues(op).Observe(seconds)
}
