package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	postsIngested *prometheus.CounterVec
	postsSkipped  *prometheus.CounterVec
	quotaBlocked  *prometheus.CounterVec
	postsScored   *prometheus.CounterVec
	signals       *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	usageGauge    *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		postsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crowdpulse_posts_ingested_total",
				Help: "Total number of raw posts stored, by source",
			},
			[]string{"source"},
		),
		postsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crowdpulse_posts_skipped_total",
				Help: "Total number of duplicate or failed posts skipped, by source",
			},
			[]string{"source"},
		),
		quotaBlocked: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crowdpulse_quota_blocked_total",
				Help: "Total number of external calls blocked by the usage ledger",
			},
			[]string{"service"},
		),
		postsScored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crowdpulse_posts_scored_total",
				Help: "Total number of posts scored, by scorer",
			},
			[]string{"scorer"},
		),
		signals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crowdpulse_signals_total",
				Help: "Total number of divergence signals computed, by direction",
			},
			[]string{"direction"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crowdpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crowdpulse_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		usageGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crowdpulse_usage_percent",
				Help: "Current daily quota utilization per service scope",
			},
			[]string{"scope_key"},
		),
	}
}

// RecordPostsIngested records stored posts for a source.
func (r *Recorder) RecordPostsIngested(source string, n int) {
	r.postsIngested.WithLabelValues(source).Add(float64(n))
}

// RecordPostsSkipped records skipped posts for a source.
func (r *Recorder) RecordPostsSkipped(source string, n int) {
	r.postsSkipped.WithLabelValues(source).Add(float64(n))
}

// RecordQuotaBlocked records a blocked external call.
func (r *Recorder) RecordQuotaBlocked(service string) {
	r.quotaBlocked.WithLabelValues(service).Inc()
}

// RecordScored records scored posts for a scorer.
func (r *Recorder) RecordScored(scorer string, n int) {
	r.postsScored.WithLabelValues(scorer).Add(float64(n))
}

// RecordSignal records a computed signal by direction.
func (r *Recorder) RecordSignal(direction string) {
	r.signals.WithLabelValues(direction).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordStageDuration records a pipeline stage duration in seconds.
func (r *Recorder) RecordStageDuration(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordUsagePercent records current quota utilization for a scope key.
func (r *Recorder) RecordUsagePercent(scopeKey string, pct float64) {
	r.usageGauge.WithLabelValues(scopeKey).Set(pct)
}
