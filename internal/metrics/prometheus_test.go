package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shaigeva/tiercache/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAllInstruments(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics.New(registry)

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 10)
}

func TestIncrementHelpersAreNilSafe(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.IncMemoryHit()
		m.IncDiskHit()
		m.IncMiss()
		m.IncMemoryEviction()
		m.IncDiskEviction()
		m.IncPut()
		m.AddPuts(3)
		m.IncGet()
		m.AddGets(3)
		m.IncDelete()
		m.AddDeletes(3)
		m.SetCurrentItems(1, 2)
	})
}

func TestIncrementHelpersUpdateCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	m.IncMemoryHit()
	m.IncDiskHit()
	m.IncMiss()
	m.IncMemoryEviction()
	m.IncDiskEviction()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.MemoryHitsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DiskHitsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.MissesTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.MemoryEvictionsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DiskEvictionsTotal))
}

func TestPutGetDeleteHelpersUpdateCountersAndGauges(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	m.IncPut()
	m.AddPuts(2)
	m.IncGet()
	m.AddGets(4)
	m.IncDelete()
	m.AddDeletes(1)
	m.SetCurrentItems(7, 42)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.PutsTotal))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.GetsTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.DeletesTotal))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.CurrentMemoryItems))
	assert.Equal(t, float64(42), testutil.ToFloat64(m.CurrentDiskItems))
}
