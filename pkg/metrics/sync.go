package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records synchronization attempt outcomes per channel.
type SyncMetrics struct {
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
	items    *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "channel_sync_attempts_total",
		Help: "Sync attempts by channel, type, direction, and final status.",
	}, []string{"channel", "sync_type", "direction", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "channel_sync_duration_seconds",
		Help:    "Duration of sync attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel", "sync_type"})
	items := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "channel_sync_items_total",
		Help: "Items processed by sync attempts, by channel and type.",
	}, []string{"channel", "sync_type"})
	reg.MustRegister(attempts, duration, items)
	return &SyncMetrics{
		attempts: attempts,
		duration: duration,
		items:    items,
	}
}

// ObserveAttempt records one completed sync attempt.
func (m *SyncMetrics) ObserveAttempt(channel, syncType, direction, status string, duration time.Duration, items int) {
	if m == nil || m.attempts == nil {
		return
	}
	channel = normalizeLabel(channel)
	syncType = normalizeLabel(syncType)
	m.attempts.WithLabelValues(channel, syncType, normalizeLabel(direction), normalizeLabel(status)).Inc()
	m.duration.WithLabelValues(channel, syncType).Observe(duration.Seconds())
	if items > 0 {
		m.items.WithLabelValues(channel, syncType).Add(float64(items))
	}
}

// JobMetrics records metadata for scheduled background jobs.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	skips    *prometheus.CounterVec
}

// NewJobMetrics registers the scheduler job metrics on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of scheduled jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful scheduled job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed scheduled job executions.",
	}, []string{"job"})
	skips := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_skipped",
		Help: "Scheduled job ticks skipped because a previous run held the lock.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure, skips)
	return &JobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		skips:    skips,
	}
}

// ObserveDuration records the duration for the named job.
func (m *JobMetrics) ObserveDuration(job string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (m *JobMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (m *JobMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncSkipped increments the skipped counter for the named job.
func (m *JobMetrics) IncSkipped(job string) {
	if m == nil || m.skips == nil {
		return
	}
	m.skips.WithLabelValues(normalizeLabel(job)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
