package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	sessionsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "playback_sessions_active",
		Help: "Number of active playback sessions",
	}, []string{"source_kind"})

	sessionsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_sessions_created_total",
		Help: "Total playback sessions created",
	}, []string{"source_kind"})

	pipelineBuildFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_pipeline_build_failures_total",
		Help: "Total pipeline construction failures",
	}, []string{"source_kind"})

	// Frame metrics
	framesDecodedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_frames_decoded_total",
		Help: "Total decoded frames delivered by the engine",
	}, []string{"session_id"})

	frameBufferResizesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_frame_buffer_resizes_total",
		Help: "Total frame buffer reallocations due to dimension changes",
	}, []string{"session_id"})

	// Probe metrics
	probeDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "playback_probe_duration_seconds",
		Help:    "Preflight probe duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
	})

	probeInconsistenciesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_probe_inconsistencies_total",
		Help: "Total probes that flagged an anamorphic inconsistency",
	})

	probeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_probe_failures_total",
		Help: "Total preflight probe failures",
	}, []string{"reason"})

	// Runtime metrics
	completionEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_completion_events_total",
		Help: "Total end-of-stream completions observed",
	}, []string{"session_id"})

	queryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_query_errors_total",
		Help: "Total failed position/duration queries",
	}, []string{"session_id", "query"})

	engineErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_engine_errors_total",
		Help: "Total errors reported on the engine message bus",
	}, []string{"severity"})
)

// SessionStarted records a new session for a source kind.
func SessionStarted(kind string) {
	sessionsCreatedTotal.WithLabelValues(kind).Inc()
	sessionsActive.WithLabelValues(kind).Inc()
}

// SessionClosed records a session teardown for a source kind.
func SessionClosed(kind string) {
	sessionsActive.WithLabelValues(kind).Dec()
}

// PipelineBuildFailed records a failed pipeline construction.
func PipelineBuildFailed(kind string) {
	pipelineBuildFailuresTotal.WithLabelValues(kind).Inc()
}

// FrameDecoded records a delivered frame.
func FrameDecoded(sessionID string) {
	framesDecodedTotal.WithLabelValues(sessionID).Inc()
}

// FrameBufferResized records a frame buffer reallocation.
func FrameBufferResized(sessionID string) {
	frameBufferResizesTotal.WithLabelValues(sessionID).Inc()
}

// ObserveProbeDuration records how long a preflight probe took.
func ObserveProbeDuration(seconds float64) {
	probeDurationSeconds.Observe(seconds)
}

// ProbeInconsistency records a flagged anamorphic inconsistency.
func ProbeInconsistency() {
	probeInconsistenciesTotal.Inc()
}

// ProbeFailed records a probe failure with a reason label.
func ProbeFailed(reason string) {
	probeFailuresTotal.WithLabelValues(reason).Inc()
}

// CompletionObserved records a drained end-of-stream completion.
func CompletionObserved(sessionID string) {
	completionEventsTotal.WithLabelValues(sessionID).Inc()
}

// QueryError records a failed duration or position query.
func QueryError(sessionID, query string) {
	queryErrorsTotal.WithLabelValues(sessionID, query).Inc()
}

// EngineError records a warning or error from the engine bus.
func EngineError(severity string) {
	engineErrorsTotal.WithLabelValues(severity).Inc()
}

// RemoveSessionMetrics drops per-session label values after teardown.
func RemoveSessionMetrics(sessionID string) {
	framesDecodedTotal.DeleteLabelValues(sessionID)
	frameBufferResizesTotal.DeleteLabelValues(sessionID)
	completionEventsTotal.DeleteLabelValues(sessionID)
	queryErrorsTotal.DeleteLabelValues(sessionID, "position")
	queryErrorsTotal.DeleteLabelValues(sessionID, "duration")
}
