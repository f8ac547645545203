package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	now := time.Date(2026, 10, 1, 3, 0, 0, 0, time.UTC)

	m.ObserveRun("purchase-expiry", 250*time.Millisecond, nil, now)
	m.ObserveRun("purchase-expiry", time.Second, errors.New("db down"), now)
	m.IncCycle(CycleRan)
	m.IncCycle(CycleLocked)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("purchase-expiry", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("purchase-expiry", "failure")))
	assert.Equal(t, float64(now.Unix()), testutil.ToFloat64(m.lastSuccess.WithLabelValues("purchase-expiry")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cycles.WithLabelValues(CycleLocked)))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	hist := histogramFor(t, mfs, "tix_cron_job_duration_seconds")
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.InDelta(t, 1.25, hist.GetSampleSum(), 0.001)
}

func TestCronJobMetricsFailureKeepsLastSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.ObserveRun("event-finalize", time.Millisecond, errors.New("boom"), time.Now())

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP tix_cron_job_runs_total Cron job runs by outcome (success, failure).
# TYPE tix_cron_job_runs_total counter
tix_cron_job_runs_total{job="event-finalize",outcome="failure"} 1
`), "tix_cron_job_runs_total")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "tix_cron_job_last_success_timestamp_seconds")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCronJobMetricsNilIsNoop(t *testing.T) {
	var nilMetrics *CronJobMetrics
	nilMetrics.ObserveRun("x", time.Second, nil, time.Now())
	nilMetrics.IncCycle(CycleRan)

	unregistered := NewCronJobMetrics(nil)
	unregistered.ObserveRun("", time.Second, nil, time.Now())
	assert.Equal(t, "unknown", normalizeLabel(""))
}

func histogramFor(t *testing.T, mfs []*dto.MetricFamily, name string) *dto.Histogram {
	t.Helper()
	for _, mf := range mfs {
		if mf.GetName() == name {
			require.NotEmpty(t, mf.GetMetric())
			return mf.GetMetric()[0].GetHistogram()
		}
	}
	t.Fatalf("metric %q not gathered", name)
	return nil
}
