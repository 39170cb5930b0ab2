package metrics

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sctg-development/photoacoustic-go/internal/logging"
)

// Collector is the concrete Prometheus-backed Recorder for the processing
// pipeline, grounded on internal/audiocore/metrics.go's MetricsCollector
// (enabled flag, RWMutex-guarded nil-safe Record* methods, logger fallback
// idiom) with the bird-domain metric names replaced by this pipeline's own:
// acquisition throughput, graph execution, peak detection, and action
// dispatch.
type Collector struct {
	mu      sync.RWMutex
	enabled bool

	framesPublished   *prometheus.CounterVec
	framesDropped     *prometheus.CounterVec
	graphExecutions   *prometheus.CounterVec
	graphDuration     *prometheus.HistogramVec
	peakDetections    *prometheus.CounterVec
	peakFrequency     *prometheus.GaugeVec
	peakAmplitude     *prometheus.GaugeVec
	concentrationPpm  *prometheus.GaugeVec
	actionDispatches  *prometheus.CounterVec
	actionAlerts      *prometheus.CounterVec
	actionErrors      *prometheus.CounterVec
	operationStatuses *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationErrors   *prometheus.CounterVec
}

// NewCollector builds a Collector and registers its vectors with
// registerer. Passing nil for registerer disables metrics entirely, which
// every Record* method treats as a no-op, matching the teacher's disabled
// flag semantics.
func NewCollector(registerer prometheus.Registerer) *Collector {
	c := &Collector{
		enabled: registerer != nil,

		framesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photoacoustic",
			Subsystem: "acquisition",
			Name:      "frames_published_total",
			Help:      "Audio frames published onto a shared stream.",
		}, []string{"source_id"}),

		framesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photoacoustic",
			Subsystem: "acquisition",
			Name:      "frames_dropped_total",
			Help:      "Audio frames dropped because a subscriber fell behind.",
		}, []string{"source_id"}),

		graphExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photoacoustic",
			Subsystem: "processing",
			Name:      "graph_executions_total",
			Help:      "Processing graph executions, by outcome.",
		}, []string{"consumer_id", "status"}),

		graphDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "photoacoustic",
			Subsystem: "processing",
			Name:      "graph_execution_seconds",
			Help:      "Processing graph execution latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"consumer_id"}),

		peakDetections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photoacoustic",
			Subsystem: "peak_finder",
			Name:      "detections_total",
			Help:      "Spectral peaks accepted after coherence filtering.",
		}, []string{"node_id"}),

		peakFrequency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "photoacoustic",
			Subsystem: "peak_finder",
			Name:      "frequency_hz",
			Help:      "Smoothed detected peak frequency.",
		}, []string{"node_id"}),

		peakAmplitude: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "photoacoustic",
			Subsystem: "peak_finder",
			Name:      "amplitude_db",
			Help:      "Detected peak amplitude relative to the silent floor.",
		}, []string{"node_id"}),

		concentrationPpm: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "photoacoustic",
			Subsystem: "processing",
			Name:      "concentration_ppm",
			Help:      "Most recently computed gas concentration.",
		}, []string{"node_id"}),

		actionDispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photoacoustic",
			Subsystem: "action",
			Name:      "dispatches_total",
			Help:      "Measurement updates dispatched to an action driver.",
		}, []string{"node_id", "driver_type"}),

		actionAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photoacoustic",
			Subsystem: "action",
			Name:      "alerts_total",
			Help:      "Alerts dispatched to an action driver.",
		}, []string{"node_id", "alert_type"}),

		actionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photoacoustic",
			Subsystem: "action",
			Name:      "errors_total",
			Help:      "Action driver calls that returned an error.",
		}, []string{"node_id", "driver_type", "call"}),

		operationStatuses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photoacoustic",
			Name:      "operations_total",
			Help:      "Generic operation outcomes, for components with no dedicated vector.",
		}, []string{"operation", "status"}),

		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "photoacoustic",
			Name:      "operation_duration_seconds",
			Help:      "Generic operation latency, for components with no dedicated vector.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		operationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photoacoustic",
			Name:      "operation_errors_total",
			Help:      "Generic operation errors, for components with no dedicated vector.",
		}, []string{"operation", "error_type"}),
	}

	if registerer != nil {
		for _, collector := range []prometheus.Collector{
			c.framesPublished, c.framesDropped,
			c.graphExecutions, c.graphDuration,
			c.peakDetections, c.peakFrequency, c.peakAmplitude, c.concentrationPpm,
			c.actionDispatches, c.actionAlerts, c.actionErrors,
			c.operationStatuses, c.operationDuration, c.operationErrors,
		} {
			registerer.MustRegister(collector)
		}
	}

	return c
}

var (
	global     atomic.Pointer[Collector]
	globalOnce sync.Once
	logger     *slog.Logger
)

// Init installs c as the package-level collector used by RecordOperation/
// RecordDuration/RecordError and the domain-specific Record* helpers below.
// Subsequent calls are no-ops, matching the teacher's sync.Once-guarded
// InitMetrics.
func Init(c *Collector) {
	globalOnce.Do(func() {
		logger = logging.ForService("metrics")
		if logger == nil {
			logger = slog.Default()
		}
		global.Store(c)
		if c != nil && c.enabled {
			logger.Info("metrics collector initialized")
		} else {
			logger.Debug("metrics collector disabled")
		}
	})
}

// Global returns the installed collector, or a disabled no-op collector if
// Init hasn't run yet.
func Global() *Collector {
	c := global.Load()
	if c == nil {
		return &Collector{enabled: false}
	}
	return c
}

func (c *Collector) RecordOperation(operation, status string) {
	if !c.enabled {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.operationStatuses.WithLabelValues(operation, status).Inc()
}

func (c *Collector) RecordDuration(operation string, seconds float64) {
	if !c.enabled {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.operationDuration.WithLabelValues(operation).Observe(seconds)
}

func (c *Collector) RecordError(operation, errorType string) {
	if !c.enabled {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.operationErrors.WithLabelValues(operation, errorType).Inc()
}

// RecordFramePublished records a frame published onto a shared stream.
func (c *Collector) RecordFramePublished(sourceID string) {
	if !c.enabled {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.framesPublished.WithLabelValues(sourceID).Inc()
}

// RecordFrameDropped records a frame dropped by a slow subscriber.
func (c *Collector) RecordFrameDropped(sourceID string) {
	if !c.enabled {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.framesDropped.WithLabelValues(sourceID).Inc()
}

// RecordGraphExecution records one processing graph run's outcome and
// latency.
func (c *Collector) RecordGraphExecution(consumerID string, seconds float64, err error) {
	if !c.enabled {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.graphExecutions.WithLabelValues(consumerID, operationStatus(err)).Inc()
	c.graphDuration.WithLabelValues(consumerID).Observe(seconds)
}

// RecordPeakDetection records an accepted peak detection and its smoothed
// frequency/amplitude.
func (c *Collector) RecordPeakDetection(nodeID string, frequency, amplitudeDb float32) {
	if !c.enabled {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.peakDetections.WithLabelValues(nodeID).Inc()
	c.peakFrequency.WithLabelValues(nodeID).Set(float64(frequency))
	c.peakAmplitude.WithLabelValues(nodeID).Set(float64(amplitudeDb))
}

// RecordConcentration records a node's most recently computed
// concentration reading.
func (c *Collector) RecordConcentration(nodeID string, ppm float64) {
	if !c.enabled {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.concentrationPpm.WithLabelValues(nodeID).Set(ppm)
}

// RecordActionDispatch records a measurement update sent to an action
// driver.
func (c *Collector) RecordActionDispatch(nodeID, driverType string) {
	if !c.enabled {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.actionDispatches.WithLabelValues(nodeID, driverType).Inc()
}

// RecordActionAlert records an alert sent to an action driver.
func (c *Collector) RecordActionAlert(nodeID, alertType string) {
	if !c.enabled {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.actionAlerts.WithLabelValues(nodeID, alertType).Inc()
}

// RecordActionError records an action driver call that returned an error.
func (c *Collector) RecordActionError(nodeID, driverType, call string) {
	if !c.enabled {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.actionErrors.WithLabelValues(nodeID, driverType, call).Inc()
}
