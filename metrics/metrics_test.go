package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveCycle(StatusOK, 2*time.Second)
	m.ObserveCycle(StatusOK, time.Second)
	m.ObserveCycle(StatusPartial, time.Second)
	m.PartitionFailed("state")
	m.Published(12, time.Unix(1800000000, 0))
	m.DeskEdit("call-winner")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cycles.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycles.WithLabelValues(StatusPartial)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.partitionFailures.WithLabelValues("state")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.bundles))
	assert.Equal(t, 1800000000.0, testutil.ToFloat64(m.lastSuccess))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deskEdits.WithLabelValues("call-winner")))

	n, err := testutil.GatherAndCount(reg, "electioncalls_cycle_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewTwiceOnOneRegistryPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
