// Package metrics exposes Prometheus metrics for the tracker, render loop
// and frame feed.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Detection outcomes.
const (
	OutcomeHand      = "hand"
	OutcomeNoHand    = "no_hand"
	OutcomeMalformed = "malformed"
	OutcomeError     = "error"
	OutcomeSkipped   = "skipped"
)

// Manager owns every metric on its own registry. A nil *Manager is valid
// and records nothing.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	detections       *prometheus.CounterVec
	detectionLatency prometheus.Histogram
	detectionFPS     prometheus.Gauge
	gestureChanges   *prometheus.CounterVec
	trackerStatus    *prometheus.GaugeVec
	framesRendered   prometheus.Counter
	renderLatency    prometheus.Histogram
	renderErrors     prometheus.Counter
	frameClients     prometheus.Gauge
	framesBroadcast  prometheus.Counter
}

// NewManager creates a Manager with a private registry unless WithRegistry
// is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "garland",
		buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.detections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "tracker",
		Name:      "detections_total",
		Help:      "Detection cycles by outcome.",
	}, []string{"outcome"})

	m.detectionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "tracker",
		Name:      "detection_seconds",
		Help:      "Time spent in the landmark detector per cycle.",
		Buckets:   m.buckets,
	})

	m.gestureChanges = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "tracker",
		Name:      "gesture_changes_total",
		Help:      "Gesture transitions by the gesture entered.",
	}, []string{"gesture"})

	m.trackerStatus = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "tracker",
		Name:      "status",
		Help:      "1 for the tracker's current status, 0 for the others.",
	}, []string{"status"})

	m.detectionFPS = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "tracker",
		Name:      "detection_fps",
		Help:      "Current detection rate in frames per second.",
	})

	m.framesRendered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "render",
		Name:      "frames_total",
		Help:      "Frames handed to the renderer.",
	})

	m.renderLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "render",
		Name:      "frame_seconds",
		Help:      "Time to simulate and render one frame.",
		Buckets:   m.buckets,
	})

	m.renderErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "render",
		Name:      "errors_total",
		Help:      "Frames whose renderer returned an error.",
	})

	m.frameClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "feed",
		Name:      "clients",
		Help:      "Connected frame feed clients.",
	})

	m.framesBroadcast = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "feed",
		Name:      "frames_total",
		Help:      "Frames broadcast to the frame feed.",
	})
}

// Registry returns the registry every metric is registered on.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDetection records one detection cycle.
func (m *Manager) ObserveDetection(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.detections.WithLabelValues(outcome).Inc()
	if outcome != OutcomeSkipped {
		m.detectionLatency.Observe(took.Seconds())
	}
}

// GestureChanged counts a transition into gesture.
func (m *Manager) GestureChanged(gesture string) {
	if m == nil {
		return
	}
	m.gestureChanges.WithLabelValues(gesture).Inc()
}

// SetStatus marks status as the only active tracker status.
func (m *Manager) SetStatus(status string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		m.trackerStatus.WithLabelValues(s).Set(0)
	}
	m.trackerStatus.WithLabelValues(status).Set(1)
}

// SetDetectionFPS records the current detection rate.
func (m *Manager) SetDetectionFPS(fps int) {
	if m == nil {
		return
	}
	m.detectionFPS.Set(float64(fps))
}

// ObserveFrame records one render frame.
func (m *Manager) ObserveFrame(took time.Duration, err error) {
	if m == nil {
		return
	}
	m.framesRendered.Inc()
	m.renderLatency.Observe(took.Seconds())
	if err != nil {
		m.renderErrors.Inc()
	}
}

// ClientConnected adjusts the frame feed client gauge by delta.
func (m *Manager) ClientConnected(delta int) {
	if m == nil {
		return
	}
	m.frameClients.Add(float64(delta))
}

// FrameBroadcast counts one frame sent to the feed.
func (m *Manager) FrameBroadcast() {
	if m == nil {
		return
	}
	m.framesBroadcast.Inc()
}
