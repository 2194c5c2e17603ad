package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vad_active_sessions",
		Help: "Number of open streaming VAD sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vad_sessions_total",
		Help: "Total number of streaming VAD sessions",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vad_session_duration_seconds",
		Help:    "Duration of streaming VAD sessions in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
	})

	// Frame metrics
	framesScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vad_frames_scored_total",
		Help: "Total number of frames scored",
	})

	scoringFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vad_scoring_failures_total",
		Help: "Total number of frames dropped because scoring failed",
	})

	scoreLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vad_score_latency_seconds",
		Help:    "Per-frame scoring latency in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	})

	// Utterance metrics
	utterancesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vad_utterances_total",
		Help: "Total number of utterances emitted",
	})

	utteranceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vad_utterance_duration_seconds",
		Help:    "Duration of emitted utterances in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vad_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vad_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	// Audio metrics
	audioSamplesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vad_audio_samples_total",
		Help: "Total audio samples received",
	})
)

// SessionMetrics tracks metrics for a single streaming session.
// Not safe for concurrent use; each session records from its own read loop
type SessionMetrics struct {
	startTime time.Time
}

// NewSessionMetrics creates a new metrics tracker for a session
func NewSessionMetrics() *SessionMetrics {
	return &SessionMetrics{startTime: time.Now()}
}

// RecordSessionStart records the start of a session
func (m *SessionMetrics) RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a session
func (m *SessionMetrics) RecordSessionEnd() {
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordScore records one scoring attempt and its latency
func (m *SessionMetrics) RecordScore(latency time.Duration, success bool) {
	scoreLatency.Observe(latency.Seconds())
	if success {
		framesScored.Inc()
	} else {
		scoringFailures.Inc()
	}
}

// RecordUtterance records an emitted utterance
func (m *SessionMetrics) RecordUtterance(duration time.Duration) {
	utterancesTotal.Inc()
	utteranceDuration.Observe(duration.Seconds())
}

// RecordSamples records audio samples received
func (m *SessionMetrics) RecordSamples(n int) {
	audioSamplesProcessed.Add(float64(n))
}

// RecordError records an error
func (m *SessionMetrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}
