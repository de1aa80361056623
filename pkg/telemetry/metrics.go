package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the reasoning loop, trimmed from
// the teacher's pkg/observability.Metrics (same NewMetrics/initX pattern
// and CounterVec/HistogramVec shape) down to this module's own domain.
type Metrics struct {
	registry *prometheus.Registry

	llmCalls     *prometheus.CounterVec
	llmErrors    *prometheus.CounterVec
	llmLatency   *prometheus.HistogramVec
	llmCostUSD   *prometheus.CounterVec
	llmTokensIn  *prometheus.CounterVec
	llmTokensOut *prometheus.CounterVec

	actionCalls  *prometheus.CounterVec
	actionErrors *prometheus.CounterVec
	actionLatency *prometheus.HistogramVec

	reasoningIterations   *prometheus.CounterVec
	reasoningLoopExhausted *prometheus.CounterVec

	memorySearches    *prometheus.CounterVec
	memorySearchLatency *prometheus.HistogramVec
}

// NewMetrics builds a Metrics instance, or nil when cfg disables metrics.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}

	m := &Metrics{registry: prometheus.NewRegistry()}
	labels := prometheus.Labels(cfg.ConstLabels)

	m.llmCalls = register(m.registry, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "llm", Name: "calls_total",
		Help: "Total number of LLM calls attempted, per provider/model/purpose.", ConstLabels: labels,
	}, []string{"provider", "model", "purpose"}))

	m.llmErrors = register(m.registry, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "llm", Name: "errors_total",
		Help: "Total number of failed LLM calls, per provider/model/purpose.", ConstLabels: labels,
	}, []string{"provider", "model", "purpose"}))

	m.llmLatency = register(m.registry, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Subsystem: "llm", Name: "latency_ms",
		Help: "LLM call latency in milliseconds.", ConstLabels: labels,
		Buckets: prometheus.ExponentialBuckets(50, 2, 12), // 50ms .. ~102s
	}, []string{"provider", "model", "purpose"}))

	m.llmCostUSD = register(m.registry, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "llm", Name: "cost_usd_total",
		Help: "Total estimated USD cost of LLM calls, per provider/model/purpose.", ConstLabels: labels,
	}, []string{"provider", "model", "purpose"}))

	m.llmTokensIn = register(m.registry, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "llm", Name: "tokens_input_total",
		Help: "Total input tokens consumed, per provider/model/purpose.", ConstLabels: labels,
	}, []string{"provider", "model", "purpose"}))

	m.llmTokensOut = register(m.registry, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "llm", Name: "tokens_output_total",
		Help: "Total output tokens produced, per provider/model/purpose.", ConstLabels: labels,
	}, []string{"provider", "model", "purpose"}))

	m.actionCalls = register(m.registry, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "action", Name: "calls_total",
		Help: "Total number of dispatched actions, per action name.", ConstLabels: labels,
	}, []string{"action"}))

	m.actionErrors = register(m.registry, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "action", Name: "errors_total",
		Help: "Total number of action calls that returned failure, per action name.", ConstLabels: labels,
	}, []string{"action"}))

	m.actionLatency = register(m.registry, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Subsystem: "action", Name: "latency_ms",
		Help: "Action dispatch latency in milliseconds.", ConstLabels: labels,
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	}, []string{"action"}))

	m.reasoningIterations = register(m.registry, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "reasoning", Name: "iterations_total",
		Help: "Total reasoning-loop iterations executed, per agent.", ConstLabels: labels,
	}, []string{"agent_id"}))

	m.reasoningLoopExhausted = register(m.registry, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "reasoning", Name: "loop_exhausted_total",
		Help: "Total reasoning loops that hit the iteration bound without a terminal action.", ConstLabels: labels,
	}, []string{"agent_id"}))

	m.memorySearches = register(m.registry, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Subsystem: "memory", Name: "searches_total",
		Help: "Total BM25 session-history searches executed.", ConstLabels: labels,
	}, []string{"agent_id"}))

	m.memorySearchLatency = register(m.registry, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Subsystem: "memory", Name: "search_latency_ms",
		Help: "BM25 session-history search latency in milliseconds.", ConstLabels: labels,
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"agent_id"}))

	return m
}

func register[T prometheus.Collector](reg *prometheus.Registry, c T) T {
	reg.MustRegister(c)
	return c
}

// RecordLLMCall records one LLM router attempt's outcome.
func (m *Metrics) RecordLLMCall(provider, model, purpose string, latencyMS int64, inputTokens, outputTokens int, costUSD float64, callErr error) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(provider, model, purpose).Inc()
	m.llmLatency.WithLabelValues(provider, model, purpose).Observe(float64(latencyMS))
	m.llmTokensIn.WithLabelValues(provider, model, purpose).Add(float64(inputTokens))
	m.llmTokensOut.WithLabelValues(provider, model, purpose).Add(float64(outputTokens))
	m.llmCostUSD.WithLabelValues(provider, model, purpose).Add(costUSD)
	if callErr != nil {
		m.llmErrors.WithLabelValues(provider, model, purpose).Inc()
	}
}

// RecordAction records one dispatched action call's outcome.
func (m *Metrics) RecordAction(name string, latencyMS int64, failed bool) {
	if m == nil {
		return
	}
	m.actionCalls.WithLabelValues(name).Inc()
	m.actionLatency.WithLabelValues(name).Observe(float64(latencyMS))
	if failed {
		m.actionErrors.WithLabelValues(name).Inc()
	}
}

// RecordReasoningIteration records one loop iteration, and optionally that
// the loop was exhausted without reaching a terminal action.
func (m *Metrics) RecordReasoningIteration(agentID string, exhausted bool) {
	if m == nil {
		return
	}
	m.reasoningIterations.WithLabelValues(agentID).Inc()
	if exhausted {
		m.reasoningLoopExhausted.WithLabelValues(agentID).Inc()
	}
}

// RecordMemorySearch records one BM25 session-history search.
func (m *Metrics) RecordMemorySearch(agentID string, latencyMS int64) {
	if m == nil {
		return
	}
	m.memorySearches.WithLabelValues(agentID).Inc()
	m.memorySearchLatency.WithLabelValues(agentID).Observe(float64(latencyMS))
}

// Handler returns an HTTP handler serving the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics not enabled"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
