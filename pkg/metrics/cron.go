package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cycle results reported by the cron worker.
const (
	CycleRan       = "ran"
	CycleLocked    = "locked"
	CycleLockError = "lock_error"
)

// CronJobMetrics tracks the sweeps run by cmd/cron-worker. All methods are
// no-ops on a nil receiver or when built without a registerer.
type CronJobMetrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	cycles      *prometheus.CounterVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tix_cron_job_runs_total",
			Help: "Cron job runs by outcome (success, failure).",
		}, []string{"job", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tix_cron_job_duration_seconds",
			Help:    "Wall time of a single cron job run.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tix_cron_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run; alert when purchase-expiry goes stale.",
		}, []string{"job"}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tix_cron_cycles_total",
			Help: "Scheduler ticks by result (ran, locked, lock_error).",
		}, []string{"result"}),
	}
	reg.MustRegister(m.runs, m.duration, m.lastSuccess, m.cycles)
	return m
}

// ObserveRun records one job execution finishing at now.
func (c *CronJobMetrics) ObserveRun(job string, took time.Duration, err error, now time.Time) {
	if c == nil || c.runs == nil {
		return
	}
	job = normalizeLabel(job)
	c.duration.WithLabelValues(job).Observe(took.Seconds())
	if err != nil {
		c.runs.WithLabelValues(job, "failure").Inc()
		return
	}
	c.runs.WithLabelValues(job, "success").Inc()
	c.lastSuccess.WithLabelValues(job).Set(float64(now.Unix()))
}

// IncCycle counts a scheduler tick with one of the Cycle* results.
func (c *CronJobMetrics) IncCycle(result string) {
	if c == nil || c.cycles == nil {
		return
	}
	c.cycles.WithLabelValues(result).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
