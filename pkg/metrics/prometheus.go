// Package metrics provides Prometheus metrics for the rcscore scoring service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the scoring service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Scoring operations, one per facade call
	operationsTotal  *prometheus.CounterVec
	operationErrors  *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec

	// Round pipeline
	roundsScored       prometheus.Counter
	roundDuration      prometheus.Histogram
	roundParticipants  prometheus.Gauge
	roundPredictors    prometheus.Gauge
	roundStakers       prometheus.Gauge
	invalidSubmissions prometheus.Counter

	// Money, as float approximations of exact amounts
	distributedAmount   *prometheus.GaugeVec
	undistributedAmount *prometheus.GaugeVec
	poolSurplus         prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rcscore",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// name applies the configured prefix to a metric name.
func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.operationsTotal = auto.NewCounterVec(
		m.counterOpts("operations_total", "Total number of scoring operations by operation and rule version"),
		[]string{"operation", "version"},
	)
	m.operationErrors = auto.NewCounterVec(
		m.counterOpts("operation_errors_total", "Total number of failed scoring operations by operation and reason"),
		[]string{"operation", "reason"},
	)
	m.operationLatency = auto.NewHistogramVec(
		m.histogramOpts("operation_latency_milliseconds", "Histogram of scoring operation latency in milliseconds", m.histogramBuckets),
		[]string{"operation"},
	)

	m.roundsScored = auto.NewCounter(m.counterOpts("rounds_scored_total", "Total number of challenge rounds scored end to end"))
	m.roundDuration = auto.NewHistogram(m.histogramOpts("round_duration_milliseconds", "Histogram of round scoring duration in milliseconds", m.histogramBuckets))
	m.roundParticipants = auto.NewGauge(m.gaugeOpts("round_participants", "Participants in the last scored round"))
	m.roundPredictors = auto.NewGauge(m.gaugeOpts("round_predictors", "Participants with a valid submission in the last scored round"))
	m.roundStakers = auto.NewGauge(m.gaugeOpts("round_stakers", "Participants with a positive stake in the last scored round"))
	m.invalidSubmissions = auto.NewCounter(m.counterOpts("invalid_submissions_total", "Total number of rejected or absent prediction submissions"))

	m.distributedAmount = auto.NewGaugeVec(
		m.gaugeOpts("distributed_amount", "Amount distributed in the last scored round by reward category"),
		[]string{"category"},
	)
	m.undistributedAmount = auto.NewGaugeVec(
		m.gaugeOpts("undistributed_amount", "Pool amount left unspent in the last scored round by reward category"),
		[]string{"category"},
	)
	m.poolSurplus = auto.NewGauge(m.gaugeOpts("pool_surplus", "Weekly budget surplus of the last scored round"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of failed requests in milliseconds", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// Enabled reports whether recording is on.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often background updaters should refresh gauges.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RecordOperation counts a successful scoring operation.
func (m *Manager) RecordOperation(operation string, version int, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.operationsTotal.WithLabelValues(operation, strconv.Itoa(version)).Inc()
	m.operationLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordOperationError counts a failed scoring operation.
func (m *Manager) RecordOperationError(operation, reason string) {
	if !m.enabled {
		return
	}
	m.operationErrors.WithLabelValues(operation, reason).Inc()
}

// RecordRound records a scored round.
func (m *Manager) RecordRound(durationMs float64, participants, predictors, stakers int) {
	if !m.enabled {
		return
	}
	m.roundsScored.Inc()
	m.roundDuration.Observe(durationMs)
	m.roundParticipants.Set(float64(participants))
	m.roundPredictors.Set(float64(predictors))
	m.roundStakers.Set(float64(stakers))
}

// RecordInvalidSubmissions adds n rejected or absent submissions.
func (m *Manager) RecordInvalidSubmissions(n int) {
	if !m.enabled || n <= 0 {
		return
	}
	m.invalidSubmissions.Add(float64(n))
}

// UpdateDistribution sets the distributed and unspent amounts of a reward category.
func (m *Manager) UpdateDistribution(category string, distributed, undistributed decimal.Decimal) {
	if !m.enabled {
		return
	}
	m.distributedAmount.WithLabelValues(category).Set(distributed.InexactFloat64())
	m.undistributedAmount.WithLabelValues(category).Set(undistributed.InexactFloat64())
}

// UpdatePoolSurplus sets the weekly budget surplus.
func (m *Manager) UpdatePoolSurplus(surplus decimal.Decimal) {
	if !m.enabled {
		return
	}
	m.poolSurplus.Set(surplus.InexactFloat64())
}

// RecordHTTPRequest counts an HTTP request and observes its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError counts a failed HTTP request.
func (m *Manager) RecordHTTPError(endpoint, method, errorType, severity string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	m.errorLatency.WithLabelValues("http", errorType).Observe(latencyMs)
}

// UpdateSystem sets memory and goroutine gauges and observes the average GC pause.
func (m *Manager) UpdateSystem(memoryBytes uint64, goroutines int, gcPauseMs float64) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memoryBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
	if gcPauseMs > 0 {
		m.systemGCPauseTime.Observe(gcPauseMs)
	}
}

// Default returns the process-wide manager registered on GetRegistry.
func Default() *Manager { return globalManager }

// RecordOperation counts a successful scoring operation on the global manager.
func RecordOperation(operation string, version int, latencyMs float64) {
	globalManager.RecordOperation(operation, version, latencyMs)
}

// RecordOperationError counts a failed scoring operation on the global manager.
func RecordOperationError(operation, reason string) {
	globalManager.RecordOperationError(operation, reason)
}

// RecordRound records a scored round on the global manager.
func RecordRound(durationMs float64, participants, predictors, stakers int) {
	globalManager.RecordRound(durationMs, participants, predictors, stakers)
}

// RecordInvalidSubmissions adds rejected submissions on the global manager.
func RecordInvalidSubmissions(n int) {
	globalManager.RecordInvalidSubmissions(n)
}

// UpdateDistribution sets reward category amounts on the global manager.
func UpdateDistribution(category string, distributed, undistributed decimal.Decimal) {
	globalManager.UpdateDistribution(category, distributed, undistributed)
}

// UpdatePoolSurplus sets the surplus on the global manager.
func UpdatePoolSurplus(surplus decimal.Decimal) {
	globalManager.UpdatePoolSurplus(surplus)
}

// RecordHTTPRequest records an HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError records a failed HTTP request on the global manager.
func RecordHTTPError(endpoint, method, errorType, severity string, latencyMs float64) {
	globalManager.RecordHTTPError(endpoint, method, errorType, severity, latencyMs)
}

// UpdateSystem records system metrics on the global manager.
func UpdateSystem(memoryBytes uint64, goroutines int, gcPauseMs float64) {
	globalManager.UpdateSystem(memoryBytes, goroutines, gcPauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
