// Package metrics provides Prometheus metrics for the bullseye game controller.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the game controller.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	pressureBuckets  []float64
	registry         prometheus.Registerer

	// Game Metrics
	hitsTotal          *prometheus.CounterVec
	missesTotal        *prometheus.CounterVec
	hitPressure        *prometheus.HistogramVec
	currentScore       prometheus.Gauge
	sessionState       prometheus.Gauge
	sessionsFinalized  *prometheus.CounterVec
	eventsDiscarded    prometheus.Counter
	unknownSensors     prometheus.Counter
	decodeErrors       *prometheus.CounterVec
	feedbackErrors     prometheus.Counter
	calibrationSamples *prometheus.CounterVec

	// Device Link Metrics
	linesReceived     prometheus.Counter
	linesDropped      prometheus.Counter
	lineQueueSize     prometheus.Gauge
	lineQueueCapacity prometheus.Gauge
	lineQueueWait     prometheus.Histogram

	// HTTP Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorRateByComponent *prometheus.CounterVec

	// System Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bullseye",
		subsystem:        "game",
		histogramBuckets: prometheus.DefBuckets,
		pressureBuckets:  []float64{50, 100, 150, 200, 250, 300, 400, 500, 750, 1023},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.hitsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hits_total",
		Help:      "Confirmed hits by zone",
	}, []string{"zone"})

	m.missesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "below_threshold_total",
		Help:      "Readings at or below the zone threshold",
	}, []string{"zone"})

	m.hitPressure = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hit_pressure",
		Help:      "Raw pressure of confirmed hits",
		Buckets:   m.pressureBuckets,
	}, []string{"zone"})

	m.currentScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "current_score",
		Help:      "Score of the running session",
	})

	m.sessionState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_state",
		Help:      "Controller state: 0 idle, 1 running, 2 finalizing, 3 done",
	})

	m.sessionsFinalized = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_finalized_total",
		Help:      "Finalized sessions by termination reason",
	}, []string{"reason"})

	m.eventsDiscarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_discarded_total",
		Help:      "Events that arrived after the session closed",
	})

	m.unknownSensors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "unknown_sensor_total",
		Help:      "Events carrying a sensor id outside the sensor map",
	})

	m.decodeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "decode_errors_total",
		Help:      "Malformed sensor lines by kind",
	}, []string{"kind"})

	m.feedbackErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feedback_write_errors_total",
		Help:      "Failed LED feedback writes",
	})

	m.calibrationSamples = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calibration_samples_total",
		Help:      "Readings collected during calibration by zone",
	}, []string{"zone"})

	m.linesReceived = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "device",
		Name:      "lines_received_total",
		Help:      "Lines read from the device link",
	})

	m.linesDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "device",
		Name:      "lines_dropped_total",
		Help:      "Lines dropped because the line queue was full",
	})

	m.lineQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "device",
		Name:      "line_queue_size",
		Help:      "Lines waiting to be polled",
	})

	m.lineQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "device",
		Name:      "line_queue_capacity",
		Help:      "Maximum number of buffered lines",
	})

	m.lineQueueWait = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "device",
		Name:      "line_queue_wait_milliseconds",
		Help:      "Time a line spent buffered before the poll loop read it",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "errors",
		Name:      "by_component_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordHit records a confirmed hit for zone.
func RecordHit(zone string, pressure int) {
	globalManager.hitsTotal.WithLabelValues(zone).Inc()
	globalManager.hitPressure.WithLabelValues(zone).Observe(float64(pressure))
}

// RecordBelowThreshold records a reading that did not exceed the zone threshold.
func RecordBelowThreshold(zone string) {
	globalManager.missesTotal.WithLabelValues(zone).Inc()
}

// UpdateCurrentScore sets the running session score.
func UpdateCurrentScore(score int) {
	globalManager.currentScore.Set(float64(score))
}

// UpdateSessionState sets the controller state gauge.
func UpdateSessionState(state int) {
	globalManager.sessionState.Set(float64(state))
}

// RecordSessionFinalized counts a finalize by reason.
func RecordSessionFinalized(reason string) {
	globalManager.sessionsFinalized.WithLabelValues(reason).Inc()
}

// RecordEventDiscarded counts an event that arrived after the session closed.
func RecordEventDiscarded() {
	globalManager.eventsDiscarded.Inc()
}

// RecordUnknownSensor counts an event from an unmapped sensor.
func RecordUnknownSensor() {
	globalManager.unknownSensors.Inc()
}

// RecordDecodeError counts a malformed line by kind.
func RecordDecodeError(kind string) {
	globalManager.decodeErrors.WithLabelValues(kind).Inc()
}

// RecordFeedbackError counts a failed feedback write.
func RecordFeedbackError() {
	globalManager.feedbackErrors.Inc()
}

// RecordCalibrationSample counts a calibration reading for zone.
func RecordCalibrationSample(zone string) {
	globalManager.calibrationSamples.WithLabelValues(zone).Inc()
}

// Device Link Metrics Functions.

// RecordLineReceived counts a line read from the device.
func RecordLineReceived() {
	globalManager.linesReceived.Inc()
}

// RecordLineDropped counts a line dropped on a full queue.
func RecordLineDropped() {
	globalManager.linesDropped.Inc()
}

// UpdateLineQueueSize sets the number of buffered lines.
func UpdateLineQueueSize(size int) {
	globalManager.lineQueueSize.Set(float64(size))
}

// RecordLineQueueWait observes how long a line waited in the queue.
func RecordLineQueueWait(waitMs float64) {
	globalManager.lineQueueWait.Observe(waitMs)
}

// UpdateLineQueueCapacity sets the line queue capacity.
func UpdateLineQueueCapacity(capacity int) {
	globalManager.lineQueueCapacity.Set(float64(capacity))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
