package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for Palisade's request-registration
// and split-planning pipeline.
type Metrics struct {
	config MetricsConfig

	// Registration metrics
	requestsRegistered *prometheus.CounterVec
	requestsCompleted  *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec

	// Policy metrics
	policyMerges    *prometheus.CounterVec
	policyMergeSize *prometheus.HistogramVec
	resourcesDenied *prometheus.CounterVec

	// Split planning metrics
	splitsPlanned  *prometheus.CounterVec
	splitPlanDuration *prometheus.HistogramVec

	// Cache metrics
	cacheOps      *prometheus.CounterVec
	cacheDuration *prometheus.HistogramVec

	// Error metrics
	errorsByKind *prometheus.CounterVec
	errorsByCode *prometheus.CounterVec

	// System metrics
	activeTokens prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		requestsRegistered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_registered_total",
				Help:      "Total number of RegisterDataRequest calls received",
			},
			[]string{"user"},
		),
		requestsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_completed_total",
				Help:      "Total number of RegisterDataRequest calls completed",
			},
			[]string{"status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of RegisterDataRequest calls in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),

		policyMerges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_merges_total",
				Help:      "Total number of resource-rule/record-rule chain merges performed",
			},
			[]string{"rule_kind"},
		),
		policyMergeSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "policy_merge_chain_length",
				Help:      "Number of rules surviving a merged chain",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
			[]string{"rule_kind"},
		),
		resourcesDenied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resources_denied_total",
				Help:      "Total number of resources filtered out by CanAccess",
			},
			[]string{"reason"},
		),

		splitsPlanned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "splits_planned_total",
				Help:      "Total number of GetSplits calls completed by the Split Planner",
			},
			[]string{"status"},
		),
		splitPlanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "split_plan_duration_seconds",
				Help:      "Duration of GetSplits calls in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),

		cacheOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_ops_total",
				Help:      "Total number of Cache Gateway operations",
			},
			[]string{"service", "op", "status"},
		),
		cacheDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cache_op_duration_seconds",
				Help:      "Duration of Cache Gateway operations in seconds",
				Buckets:   buckets,
			},
			[]string{"service", "op"},
		),

		errorsByKind: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_kind_total",
				Help:      "Total number of errors by perrors.Kind",
			},
			[]string{"kind"},
		),
		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_code_total",
				Help:      "Total number of errors by error code",
			},
			[]string{"code"},
		),

		activeTokens: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_tokens",
				Help:      "Approximate number of unexpired redemption tokens",
			},
		),
	}

	registry.MustRegister(
		m.requestsRegistered,
		m.requestsCompleted,
		m.requestDuration,
		m.policyMerges,
		m.policyMergeSize,
		m.resourcesDenied,
		m.splitsPlanned,
		m.splitPlanDuration,
		m.cacheOps,
		m.cacheDuration,
		m.errorsByKind,
		m.errorsByCode,
		m.activeTokens,
	)

	return m, nil
}

// RecordRequestRegistered increments the counter for received requests.
func (m *Metrics) RecordRequestRegistered(user string) {
	if m.requestsRegistered == nil {
		return
	}
	m.requestsRegistered.WithLabelValues(user).Inc()
}

// RecordRequestCompleted records a completed RegisterDataRequest call.
func (m *Metrics) RecordRequestCompleted(status string, duration time.Duration) {
	if m.requestsCompleted == nil {
		return
	}
	m.requestsCompleted.WithLabelValues(status).Inc()
	m.requestDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordPolicyMerge records one merge of a resource-rule or record-rule
// chain and the number of rules that survived it.
func (m *Metrics) RecordPolicyMerge(ruleKind string, chainLength int) {
	if m.policyMerges == nil {
		return
	}
	m.policyMerges.WithLabelValues(ruleKind).Inc()
	m.policyMergeSize.WithLabelValues(ruleKind).Observe(float64(chainLength))
}

// RecordResourceDenied records one resource filtered out of a CanAccess
// result.
func (m *Metrics) RecordResourceDenied(reason string) {
	if m.resourcesDenied == nil {
		return
	}
	m.resourcesDenied.WithLabelValues(reason).Inc()
}

// RecordSplitsPlanned records the outcome of one GetSplits call.
func (m *Metrics) RecordSplitsPlanned(status string, duration time.Duration) {
	if m.splitsPlanned == nil {
		return
	}
	m.splitsPlanned.WithLabelValues(status).Inc()
	m.splitPlanDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordCacheOp records one Cache Gateway operation.
func (m *Metrics) RecordCacheOp(service, op, status string, duration time.Duration) {
	if m.cacheOps == nil {
		return
	}
	m.cacheOps.WithLabelValues(service, op, status).Inc()
	m.cacheDuration.WithLabelValues(service, op).Observe(duration.Seconds())
}

// RecordError records an error by kind and optionally by code.
func (m *Metrics) RecordError(kind, code string) {
	if m.errorsByKind == nil {
		return
	}
	m.errorsByKind.WithLabelValues(kind).Inc()
	if code != "" && m.errorsByCode != nil {
		m.errorsByCode.WithLabelValues(code).Inc()
	}
}

// SetActiveTokens sets the approximate number of unexpired tokens.
func (m *Metrics) SetActiveTokens(count float64) {
	if m.activeTokens == nil {
		return
	}
	m.activeTokens.Set(count)
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration is a helper to time an operation and record it.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
