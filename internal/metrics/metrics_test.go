package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRun(RunSuccess, 150*time.Millisecond)
	m.ObserveRun(RunFailed, time.Second)
	m.ObserveRun(RunSuccess, time.Millisecond)
	m.ObserveUser(UserDecremented)
	m.ObserveUser(UserDecremented)
	m.ObserveUser(UserExpired)
	m.ValidationFailed("/api/v1/auth/register")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues(RunSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(RunFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.users.WithLabelValues(UserDecremented)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.users.WithLabelValues(UserExpired)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationFailures.WithLabelValues("/api/v1/auth/register")))

	count, err := testutil.GatherAndCount(reg, "decrement_job_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun(RunSkipped, 0)
		m.ObserveUser(UserFailed)
		m.ValidationFailed("/x")
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
