// Package metrics provides Prometheus metrics for the placement matching service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Scoring
	pairsScored    prometheus.Counter
	pairLatency    prometheus.Histogram
	factorErrors   *prometheus.CounterVec
	matchesEmitted prometheus.Counter
	rankLatency    prometheus.Histogram

	// Allocation
	allocationRuns       *prometheus.CounterVec
	allocationLatency    prometheus.Histogram
	allocatedCandidates  prometheus.Counter
	unallocatedCandidate prometheus.Counter

	// Embedding
	embedCacheHits   prometheus.Counter
	embedCacheMisses prometheus.Counter
	embedLatency     prometheus.Histogram

	// Jobs
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueRejected prometheus.Counter
	jobsByStatus  *prometheus.CounterVec
	workerCount   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "placement",
		subsystem:        "matching",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		})
	}
	histogram := func(name, help string) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
			Buckets: m.histogramBuckets,
		})
	}
	counterVec := func(name, help string, l ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: labels,
		}, l)
	}

	m.pairsScored = counter("pairs_scored_total", "Total number of candidate/opportunity pairs scored")
	m.pairLatency = histogram("pair_scoring_latency_milliseconds", "Latency of scoring one candidate/opportunity pair")
	m.factorErrors = counterVec("factor_errors_total", "Factor scorer failures degraded to a zero score", "factor")
	m.matchesEmitted = counter("matches_emitted_total", "Ranked matches returned to callers")
	m.rankLatency = histogram("rank_latency_milliseconds", "Latency of ranking one candidate")

	m.allocationRuns = counterVec("allocation_runs_total", "Allocation runs by outcome", "outcome")
	m.allocationLatency = histogram("allocation_latency_milliseconds", "Latency of one allocation run")
	m.allocatedCandidates = counter("allocated_candidates_total", "Candidates assigned an opportunity")
	m.unallocatedCandidate = counter("unallocated_candidates_total", "Candidates left without an opportunity")

	m.embedCacheHits = counter("embedding_cache_hits_total", "Embedding cache hits")
	m.embedCacheMisses = counter("embedding_cache_misses_total", "Embedding cache misses")
	m.embedLatency = histogram("embedding_latency_milliseconds", "Latency of backend embedding calls")

	m.queueSize = gauge("job_queue_size", "Allocation jobs waiting in the queue")
	m.queueCapacity = gauge("job_queue_capacity", "Allocation job queue capacity")
	m.queueRejected = counter("job_queue_rejected_total", "Allocation jobs rejected due to backpressure")
	m.jobsByStatus = counterVec("jobs_total", "Allocation jobs by terminal status", "status")
	m.workerCount = gauge("worker_count", "Allocation job workers running")

	m.httpRequests = counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("http_request_duration_milliseconds"),
		Help: "HTTP request duration in milliseconds", ConstLabels: labels, Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorsByComponent = counterVec("errors_by_component_total", "Errors by component", "component", "error_type")

	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "Heap memory in use")
	m.systemGoroutineCount = gauge("system_goroutine_count", "Number of goroutines")
}

// RecordPairScored records one scored pair and its latency.
func RecordPairScored(latencyMs float64) {
	globalManager.pairsScored.Inc()
	globalManager.pairLatency.Observe(latencyMs)
}

// RecordFactorError counts a factor scorer failure.
func RecordFactorError(factor string) {
	globalManager.factorErrors.WithLabelValues(factor).Inc()
}

// RecordRank records a finished per-candidate ranking.
func RecordRank(matches int, latencyMs float64) {
	globalManager.matchesEmitted.Add(float64(matches))
	globalManager.rankLatency.Observe(latencyMs)
}

// RecordAllocation records the outcome of one allocation run.
func RecordAllocation(outcome string, allocated, unallocated int, latencyMs float64) {
	globalManager.allocationRuns.WithLabelValues(outcome).Inc()
	globalManager.allocationLatency.Observe(latencyMs)
	globalManager.allocatedCandidates.Add(float64(allocated))
	globalManager.unallocatedCandidate.Add(float64(unallocated))
}

// RecordEmbedCacheHit increments the embedding cache hit counter.
func RecordEmbedCacheHit() { globalManager.embedCacheHits.Inc() }

// RecordEmbedCacheMiss increments the embedding cache miss counter.
func RecordEmbedCacheMiss() { globalManager.embedCacheMisses.Inc() }

// RecordEmbedLatency observes one backend embedding call.
func RecordEmbedLatency(latencyMs float64) { globalManager.embedLatency.Observe(latencyMs) }

// UpdateQueueSize sets the current job queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the job queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueRejected counts a job refused by the full queue.
func RecordQueueRejected() { globalManager.queueRejected.Inc() }

// RecordJob counts a job reaching status.
func RecordJob(status string) { globalManager.jobsByStatus.WithLabelValues(status).Inc() }

// UpdateWorkerCount sets the number of job workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an HTTP error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent records an error by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the registry backing the package-level collectors.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
