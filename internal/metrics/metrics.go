// Package metrics exposes pipeline counters in Prometheus format.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	frames        prometheus.Counter
	frameErrors   prometheus.Counter
	faces         prometheus.Histogram
	observations  *prometheus.CounterVec
	notifications prometheus.Counter
	captures      prometheus.Counter
	actionErrors  *prometheus.CounterVec
	processTime   prometheus.Histogram

	// Session state, read by gauge funcs
	sessionActive atomic.Bool
	streak        atomic.Int64

	registry *prometheus.Registry
}

// New creates a new Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facesnap_frames_total",
			Help: "Total frames read from the camera",
		}),
		frameErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facesnap_frame_errors_total",
			Help: "Total frame read or detection errors",
		}),
		faces: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "facesnap_faces_per_frame",
			Help:    "Number of faces detected per frame",
			Buckets: []float64{0, 1, 2, 3, 5, 8},
		}),
		observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "facesnap_observations_total",
			Help: "Observations fed to the stability monitor, by kind",
		}, []string{"kind"}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facesnap_notifications_total",
			Help: "Stable-face notifications fired",
		}),
		captures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facesnap_captures_total",
			Help: "Photos captured",
		}),
		actionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "facesnap_action_errors_total",
			Help: "Failed notification actions, by action",
		}, []string{"action"}),
		processTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "facesnap_frame_process_seconds",
			Help:    "Time to detect and track one frame",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.frames,
		m.frameErrors,
		m.faces,
		m.observations,
		m.notifications,
		m.captures,
		m.actionErrors,
		m.processTime,
	)

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "facesnap_session_active",
			Help: "1 while a monitoring session is running",
		},
		func() float64 {
			if m.sessionActive.Load() {
				return 1
			}
			return 0
		},
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "facesnap_streak",
			Help: "Current consecutive update count of the focused face",
		},
		func() float64 { return float64(m.streak.Load()) },
	))

	return m
}

// FrameRead counts one camera frame.
func (m *Metrics) FrameRead() { m.frames.Inc() }

// FrameError counts a failed read or detection.
func (m *Metrics) FrameError() { m.frameErrors.Inc() }

// FrameProcessed records the detection result of a frame and the time spent
// detecting and tracking it. Actions run after the measurement.
func (m *Metrics) FrameProcessed(faces int, took time.Duration) {
	m.faces.Observe(float64(faces))
	m.processTime.Observe(took.Seconds())
}

// Observation counts an observation of the given kind.
func (m *Metrics) Observation(kind string) { m.observations.WithLabelValues(kind).Inc() }

// Notification counts a fired notification.
func (m *Metrics) Notification() { m.notifications.Inc() }

// Capture counts a saved photo.
func (m *Metrics) Capture() { m.captures.Inc() }

// ActionError counts a failed action.
func (m *Metrics) ActionError(action string) { m.actionErrors.WithLabelValues(action).Inc() }

// SetSessionActive records whether a session is running.
func (m *Metrics) SetSessionActive(active bool) { m.sessionActive.Store(active) }

// SetStreak records the current streak count.
func (m *Metrics) SetStreak(n int) { m.streak.Store(int64(n)) }

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
