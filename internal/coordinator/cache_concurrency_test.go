package coordinator_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shaigeva/tiercache/internal/codec"
	"github.com/shaigeva/tiercache/internal/coordinator"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestConcurrentPutGetIsRaceFree exercises the single-writer,
// multi-reader-via-exclusion concurrency contract: many goroutines
// hammering Put/Get/Delete against one Cache must never corrupt its
// state, whether or not any individual operation observes another's
// write. Run with -race to catch any lock discipline violation.
func TestConcurrentPutGetIsRaceFree(t *testing.T) {
	c, err := coordinator.Open[user](coordinator.Options{
		DBPath: ":memory:", MaxMemoryItems: 50, MaxDiskItems: 200, MaxMemorySizeBytes: 1 << 20, MaxDiskSizeBytes: 1 << 20, MaxItemSizeBytes: 1 << 20,
		MemoryTTLSeconds: 1e9, DiskTTLSeconds: 1e9,
		Logger: zap.NewNop(),
	}, codec.NewJSON[user]())
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	const goroutines = 16
	const opsPerGoroutine = 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < opsPerGoroutine; i++ {
				key := fmt.Sprintf("worker-%d-key-%d", id, i%10)
				_ = c.Put(ctx, key, user{Name: key}, float64(i))
				_, _, _ = c.Get(ctx, key)
				if i%7 == 0 {
					_ = c.Delete(ctx, key)
				}
			}
		}(g)
	}
	wg.Wait()

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, stats.TotalPuts, uint64(goroutines*opsPerGoroutine))
}
