package coordinator_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shaigeva/tiercache/internal/codec"
	"github.com/shaigeva/tiercache/internal/coordinator"
	"github.com/shaigeva/tiercache/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestPutGetDeleteDriveMetrics asserts that the counters and gauges the
// registered metrics.Metrics exposes actually move as the coordinator's
// public operations run, not just the hit/miss/eviction subset wired in
// earlier.
func TestPutGetDeleteDriveMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	met := metrics.New(registry)

	c, err := coordinator.Open[user](coordinator.Options{
		DBPath: ":memory:", MaxMemoryItems: 10, MaxDiskItems: 10, MaxMemorySizeBytes: 1 << 20, MaxDiskSizeBytes: 1 << 20, MaxItemSizeBytes: 1 << 20,
		MemoryTTLSeconds: 1e9, DiskTTLSeconds: 1e9,
		Logger: zap.NewNop(), Metrics: met,
	}, codec.NewJSON[user]())
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "a", user{Name: "a"}, 1))
	require.NoError(t, c.PutMany(ctx, map[string]user{"b": {Name: "b"}, "c": {Name: "c"}}, 2))
	assert.Equal(t, float64(3), testutil.ToFloat64(met.PutsTotal))

	_, _, err = c.Get(ctx, "a", 3)
	require.NoError(t, err)
	_, err = c.GetMany(ctx, []string{"b", "c"}, 4)
	require.NoError(t, err)
	assert.Equal(t, float64(3), testutil.ToFloat64(met.GetsTotal))

	require.NoError(t, c.Delete(ctx, "a"))
	require.NoError(t, c.DeleteMany(ctx, []string{"b", "c"}))
	assert.Equal(t, float64(3), testutil.ToFloat64(met.DeletesTotal))

	_, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(0), testutil.ToFloat64(met.CurrentMemoryItems))
	assert.Equal(t, float64(0), testutil.ToFloat64(met.CurrentDiskItems))
}
