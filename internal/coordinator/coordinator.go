// Package coordinator implements the engine's front door: it orders
// operations across the memory and disk tiers, enforces write-through and
// read-through-with-promotion, routes oversized items to disk only,
// drives the eviction policy after each mutation, and aggregates
// statistics. It is grounded on the teacher's StorageService
// orchestration layer — inject-your-collaborators, validate-then-act,
// zap.Debug on the hot path — generalized from a tenant/key LSM write
// path to a two-tier cache's put/get/delete contract.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/shaigeva/tiercache/internal/cacheerr"
	"github.com/shaigeva/tiercache/internal/codec"
	"github.com/shaigeva/tiercache/internal/diskstore"
	"github.com/shaigeva/tiercache/internal/memindex"
	"github.com/shaigeva/tiercache/internal/metrics"
	"github.com/shaigeva/tiercache/internal/model"
	"github.com/shaigeva/tiercache/internal/policy"
	"github.com/shaigeva/tiercache/internal/validation"
	"github.com/shaigeva/tiercache/internal/workerpool"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// vacuumStopTimeout bounds how long Close waits for an in-flight VACUUM
// to finish before giving up on a graceful worker pool shutdown.
const vacuumStopTimeout = 5 * time.Second

// Clock returns the current time as seconds since the epoch, matching the
// monotonic-or-wall-clock float the original design threads through every
// time-sensitive operation.
type Clock func() float64

func defaultClock() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// Options configures a Cache at construction time. Every numeric field is
// a required budget; a zero value for a count or byte limit means "evict
// down to nothing," matching the source implementation's unchecked
// constructor rather than silently substituting a default.
type Options struct {
	DBPath             string
	MaxMemoryItems     int
	MaxMemorySizeBytes int64
	MaxDiskItems       int
	MaxDiskSizeBytes   int64
	MemoryTTLSeconds   float64
	DiskTTLSeconds     float64
	MaxItemSizeBytes   int64

	Clock   Clock
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Stats is the point-in-time snapshot returned by Cache.Stats.
type Stats struct {
	MemoryHits         uint64
	DiskHits           uint64
	Misses             uint64
	MemoryEvictions    uint64
	DiskEvictions      uint64
	TotalPuts          uint64
	TotalGets          uint64
	TotalDeletes       uint64
	CurrentMemoryItems int
	CurrentDiskItems   int
}

// Cache is the front door: a generic, two-tier, schema-versioned cache
// for record type R. All state is guarded by mu; the zero value is not
// usable, construct one with Open.
type Cache[R model.Record] struct {
	mu sync.RWMutex

	opts   Options
	codec  codec.Codec[R]
	valid  *validation.Validator
	index  *memindex.Index[R]
	disk   *diskstore.Store
	clock  Clock
	logger *zap.Logger
	met    *metrics.Metrics
	pool   *workerpool.WorkerPool

	schemaVersion string
	closed        bool
	stats         Stats
}

// Open constructs a Cache backed by a disk store at opts.DBPath, applying
// the configured tiering and eviction budgets. The zero value of R's
// SchemaVersion() is treated as the registered type's current version.
func Open[R model.Record](opts Options, c codec.Codec[R]) (*Cache[R], error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = defaultClock
	}

	disk, err := diskstore.Open(diskstore.Config{Path: opts.DBPath, Logger: logger})
	if err != nil {
		return nil, err
	}

	pool := workerpool.NewWorkerPool(&workerpool.Config{
		Name:       "tiercache-maintenance",
		MaxWorkers: 1,
		QueueSize:  1,
		Logger:     logger,
	})

	var zero R
	cache := &Cache[R]{
		opts:          opts,
		codec:         c,
		valid:         validation.NewValidator(),
		index:         memindex.New[R](),
		disk:          disk,
		clock:         clock,
		logger:        logger,
		met:           opts.Metrics,
		pool:          pool,
		schemaVersion: zero.SchemaVersion(),
	}

	logger.Info("cache opened",
		zap.String("db_path", opts.DBPath),
		zap.String("schema_version", cache.schemaVersion))
	return cache, nil
}

func (c *Cache[R]) resolveTS(ts []float64) float64 {
	if len(ts) > 0 {
		return ts[0]
	}
	return c.clock()
}

// Get returns the record for key, refreshing its last-access timestamp on
// a successful lookup in either tier and promoting a disk hit into
// memory unless the item is oversized.
func (c *Cache[R]) Get(ctx context.Context, key string, ts ...float64) (R, bool, error) {
	var zero R
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return zero, false, cacheerr.Closed()
	}
	if err := c.valid.ValidateKey(key); err != nil {
		return zero, false, err
	}
	now := c.resolveTS(ts)
	c.stats.TotalGets++
	c.met.IncGet()

	if row, ok := c.index.Get(key); ok {
		if policy.Expired(row.LastAccessTS, now, c.opts.MemoryTTLSeconds) {
			c.index.Remove(key)
		} else {
			c.index.Touch(key, now)
			if err := c.disk.Touch(ctx, key, now); err != nil {
				return zero, false, err
			}
			c.stats.MemoryHits++
			c.met.IncMemoryHit()
			c.logger.Debug("memory hit", zap.String("op", "get"), zap.String("key", key))
			return row.Value, true, nil
		}
	}

	diskRow, ok, err := c.disk.Get(ctx, key)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		c.stats.Misses++
		c.met.IncMiss()
		return zero, false, nil
	}

	if policy.Expired(diskRow.LastAccessTS, now, c.opts.DiskTTLSeconds) || diskRow.SchemaVersion != c.schemaVersion {
		c.deleteFromDisk(ctx, key)
		c.stats.Misses++
		c.met.IncMiss()
		c.logger.Debug("disk row stale", zap.String("key", key), zap.Bool("expired", policy.Expired(diskRow.LastAccessTS, now, c.opts.DiskTTLSeconds)))
		return zero, false, nil
	}

	value, err := c.codec.Deserialize(diskRow.Payload)
	if err != nil {
		c.deleteFromDisk(ctx, key)
		c.stats.Misses++
		c.met.IncMiss()
		c.logger.Debug("corrupt disk row", zap.String("key", key), zap.Error(err))
		return zero, false, nil
	}

	if err := c.disk.Touch(ctx, key, now); err != nil {
		return zero, false, err
	}

	if diskRow.ByteSize <= c.opts.MaxItemSizeBytes {
		c.index.Put(model.Entry[R]{
			Key:           key,
			Value:         value,
			ByteSize:      diskRow.ByteSize,
			LastAccessTS:  now,
			SchemaVersion: diskRow.SchemaVersion,
		})
		c.evictMemory()
	}

	c.stats.DiskHits++
	c.met.IncDiskHit()
	c.logger.Debug("disk hit", zap.String("op", "get"), zap.String("key", key))
	return value, true, nil
}

// Put writes a record for key, routing it to memory-plus-disk or
// disk-only depending on its serialized size, then evicts each tier to
// bring it back under budget.
func (c *Cache[R]) Put(ctx context.Context, key string, value R, ts ...float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return cacheerr.Closed()
	}
	if err := c.valid.ValidateKey(key); err != nil {
		return err
	}
	now := c.resolveTS(ts)

	payload, byteSize, err := c.serialize(key, value)
	if err != nil {
		return err
	}

	if err := c.disk.Put(ctx, model.DiskRow{
		Key:           key,
		Payload:       payload,
		ByteSize:      byteSize,
		LastAccessTS:  now,
		SchemaVersion: c.schemaVersion,
	}); err != nil {
		return err
	}

	if byteSize <= c.opts.MaxItemSizeBytes {
		c.index.Put(model.Entry[R]{
			Key:           key,
			Value:         value,
			ByteSize:      byteSize,
			LastAccessTS:  now,
			SchemaVersion: c.schemaVersion,
		})
	} else {
		c.index.Remove(key)
	}

	c.evictMemory()
	if err := c.evictDisk(ctx); err != nil {
		return err
	}

	c.stats.TotalPuts++
	c.met.IncPut()
	c.logger.Debug("put", zap.String("op", "put"), zap.String("key", key), zap.Int64("byte_size", byteSize))
	return nil
}

// serialize encodes value and checks the result against the disk byte
// budget, the hard ceiling no single item may exceed regardless of
// tiering — distinct from MaxItemSizeBytes, which only decides whether
// an item also lives in memory.
func (c *Cache[R]) serialize(key string, value R) ([]byte, int64, error) {
	payload, err := c.codec.Serialize(value)
	if err != nil {
		return nil, 0, cacheerr.SerializationFailure(key, err)
	}
	byteSize := int64(len(payload))
	if byteSize > c.opts.MaxDiskSizeBytes {
		return nil, 0, cacheerr.ItemTooLarge(key, byteSize, c.opts.MaxDiskSizeBytes)
	}
	return payload, byteSize, nil
}

// Delete removes key from both tiers.
func (c *Cache[R]) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return cacheerr.Closed()
	}
	if err := c.valid.ValidateKey(key); err != nil {
		return err
	}

	c.index.Remove(key)
	if err := c.disk.Delete(ctx, key); err != nil {
		return err
	}
	c.stats.TotalDeletes++
	c.met.IncDelete()
	c.logger.Debug("delete", zap.String("op", "delete"), zap.String("key", key))
	return nil
}

// Exists reports whether key is present in either tier. Unlike Get, it is
// a pure presence check: it never refreshes a last-access timestamp,
// promotes a disk hit into memory, evicts, deletes stale rows, or
// touches stats, matching the original's memory-dict-or-disk-COUNT
// contract. ts is accepted only for signature parity with Get/the
// original's exists(key, timestamp=None) and is otherwise unused.
func (c *Cache[R]) Exists(ctx context.Context, key string, ts ...float64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, cacheerr.Closed()
	}
	if err := c.valid.ValidateKey(key); err != nil {
		return false, err
	}

	if _, ok := c.index.Get(key); ok {
		return true, nil
	}
	return c.disk.Exists(ctx, key)
}

// GetMany reads every resolvable key, checking memory then disk for the
// keys missed in memory with a single query. Unlike Get, it does not
// refresh last-access timestamps on either tier (batch reads are
// read-only with respect to LRU state). Schema-mismatched or expired
// disk rows are deleted and omitted; oversized items are returned but
// never promoted.
func (c *Cache[R]) GetMany(ctx context.Context, keys []string, ts ...float64) (map[string]R, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]R)
	if c.closed {
		return nil, cacheerr.Closed()
	}
	if err := c.valid.ValidateKeys(keys); err != nil {
		return nil, err
	}
	now := c.resolveTS(ts)
	c.stats.TotalGets += uint64(len(keys))
	c.met.AddGets(len(keys))

	var diskKeys []string
	for _, key := range keys {
		if row, ok := c.index.Get(key); ok && !policy.Expired(row.LastAccessTS, now, c.opts.MemoryTTLSeconds) {
			result[key] = row.Value
			c.stats.MemoryHits++
			c.met.IncMemoryHit()
		} else {
			diskKeys = append(diskKeys, key)
		}
	}

	if len(diskKeys) == 0 {
		return result, nil
	}

	diskRows, err := c.disk.GetMany(ctx, diskKeys)
	if err != nil {
		return nil, err
	}

	var staleKeys []string
	for _, key := range diskKeys {
		row, ok := diskRows[key]
		if !ok {
			c.stats.Misses++
			c.met.IncMiss()
			continue
		}
		if policy.Expired(row.LastAccessTS, now, c.opts.DiskTTLSeconds) || row.SchemaVersion != c.schemaVersion {
			staleKeys = append(staleKeys, key)
			c.stats.Misses++
			c.met.IncMiss()
			continue
		}
		value, err := c.codec.Deserialize(row.Payload)
		if err != nil {
			staleKeys = append(staleKeys, key)
			c.stats.Misses++
			c.met.IncMiss()
			c.logger.Debug("corrupt disk row", zap.String("key", key), zap.Error(err))
			continue
		}
		result[key] = value
		c.stats.DiskHits++
		c.met.IncDiskHit()
	}

	if len(staleKeys) > 0 {
		if err := c.disk.DeleteMany(ctx, staleKeys); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// PutMany validates and serializes every item before any state change —
// if any item fails, nothing is written — then upserts both tiers and
// runs eviction once per tier for the whole batch.
func (c *Cache[R]) PutMany(ctx context.Context, items map[string]R, ts ...float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return cacheerr.Closed()
	}

	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	if err := c.valid.ValidateKeys(keys); err != nil {
		return err
	}

	now := c.resolveTS(ts)

	rows := make([]model.DiskRow, 0, len(items))
	entries := make([]model.Entry[R], 0, len(items))
	oversized := make(map[string]bool, len(items))

	for key, value := range items {
		payload, byteSize, err := c.serialize(key, value)
		if err != nil {
			return err
		}
		rows = append(rows, model.DiskRow{
			Key:           key,
			Payload:       payload,
			ByteSize:      byteSize,
			LastAccessTS:  now,
			SchemaVersion: c.schemaVersion,
		})
		if byteSize <= c.opts.MaxItemSizeBytes {
			entries = append(entries, model.Entry[R]{
				Key:           key,
				Value:         value,
				ByteSize:      byteSize,
				LastAccessTS:  now,
				SchemaVersion: c.schemaVersion,
			})
		} else {
			oversized[key] = true
		}
	}

	if err := c.disk.PutMany(ctx, rows); err != nil {
		return err
	}

	for _, entry := range entries {
		c.index.Put(entry)
	}
	for key := range oversized {
		c.index.Remove(key)
	}

	c.evictMemory()
	if err := c.evictDisk(ctx); err != nil {
		return err
	}

	c.stats.TotalPuts += uint64(len(items))
	c.met.AddPuts(len(items))
	c.logger.Debug("put_many", zap.String("op", "put_many"), zap.Int("count", len(items)))
	return nil
}

// DeleteMany removes every key from both tiers; the disk side runs as a
// single transaction.
func (c *Cache[R]) DeleteMany(ctx context.Context, keys []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return cacheerr.Closed()
	}
	if err := c.valid.ValidateKeys(keys); err != nil {
		return err
	}

	for _, key := range keys {
		c.index.Remove(key)
	}
	if err := c.disk.DeleteMany(ctx, keys); err != nil {
		return err
	}

	c.stats.TotalDeletes += uint64(len(keys))
	c.met.AddDeletes(len(keys))
	c.logger.Debug("delete_many", zap.String("op", "delete_many"), zap.Int("count", len(keys)))
	return nil
}

// Clear truncates both tiers, resetting current-state counters but
// retaining cumulative statistics.
func (c *Cache[R]) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return cacheerr.Closed()
	}

	c.index.Clear()
	if err := c.disk.Clear(ctx); err != nil {
		return err
	}
	c.scheduleVacuum()
	c.logger.Debug("clear", zap.String("op", "clear"))
	return nil
}

// Count returns the disk tier's item count — every item in memory is
// also on disk, so disk count is the authoritative total.
func (c *Cache[R]) Count(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, cacheerr.Closed()
	}
	return c.disk.Count(ctx)
}

// TotalSize returns the disk tier's total byte size.
func (c *Cache[R]) TotalSize(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, cacheerr.Closed()
	}
	return c.disk.TotalBytes(ctx)
}

// Stats returns a point-in-time snapshot of the cache's counters and
// current tier sizes.
func (c *Cache[R]) Stats(ctx context.Context) (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Stats{}, cacheerr.Closed()
	}

	diskCount, err := c.disk.Count(ctx)
	if err != nil {
		return Stats{}, err
	}

	snapshot := c.stats
	snapshot.CurrentMemoryItems = c.index.Count()
	snapshot.CurrentDiskItems = diskCount
	c.met.SetCurrentItems(snapshot.CurrentMemoryItems, snapshot.CurrentDiskItems)
	return snapshot, nil
}

// Close releases the disk handle. Further operations fail with
// cacheerr.Closed. Close is idempotent.
func (c *Cache[R]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	poolErr := c.pool.Stop(vacuumStopTimeout)
	if poolErr != nil {
		c.logger.Warn("maintenance pool stop timed out", zap.Error(poolErr))
	}
	diskErr := c.disk.Close()
	c.logger.Info("cache closed")
	return multierr.Append(poolErr, diskErr)
}

// scheduleVacuum enqueues a best-effort disk VACUUM on the maintenance
// pool. It never blocks the caller: if the single-slot queue is already
// busy with a prior VACUUM, this one is simply dropped, since another
// will be scheduled after the next Clear or disk eviction anyway.
func (c *Cache[R]) scheduleVacuum() {
	c.pool.TrySubmit(workerpool.Task{
		ID: "vacuum",
		Fn: func(ctx context.Context) error {
			return c.disk.Vacuum(ctx)
		},
	})
}

func (c *Cache[R]) deleteFromDisk(ctx context.Context, key string) {
	if err := c.disk.Delete(ctx, key); err != nil {
		c.logger.Warn("failed to delete stale disk row", zap.String("key", key), zap.Error(err))
	}
}

// evictMemory drops the coldest memory entries until the tier is back
// within its count/byte budget.
func (c *Cache[R]) evictMemory() {
	limits := policy.Limits{MaxCount: c.opts.MaxMemoryItems, MaxBytes: c.opts.MaxMemorySizeBytes}
	victims := policy.SelectVictims(c.index.Candidates(), c.index.ByteSizes(), c.index.Count(), c.index.TotalBytes(), limits)
	for _, key := range victims {
		c.index.Remove(key)
		c.stats.MemoryEvictions++
		c.met.IncMemoryEviction()
	}
	if len(victims) > 0 {
		c.logger.Debug("memory eviction", zap.Int("count", len(victims)))
	}
}

// evictDisk drops the coldest disk rows until the tier is back within its
// count/byte budget, cascading each eviction into the memory tier as
// well.
func (c *Cache[R]) evictDisk(ctx context.Context) error {
	limits := policy.Limits{MaxCount: c.opts.MaxDiskItems, MaxBytes: c.opts.MaxDiskSizeBytes}

	candidates, err := c.disk.Candidates(ctx)
	if err != nil {
		return err
	}
	sizes, err := c.disk.ByteSizes(ctx)
	if err != nil {
		return err
	}
	count, err := c.disk.Count(ctx)
	if err != nil {
		return err
	}
	total, err := c.disk.TotalBytes(ctx)
	if err != nil {
		return err
	}

	victims := policy.SelectVictims(candidates, sizes, count, total, limits)
	if len(victims) == 0 {
		return nil
	}

	if err := c.disk.DeleteMany(ctx, victims); err != nil {
		return err
	}
	for _, key := range victims {
		c.index.Remove(key)
		c.stats.DiskEvictions++
		c.met.IncDiskEviction()
	}
	c.scheduleVacuum()
	c.logger.Debug("disk eviction", zap.Int("count", len(victims)))
	return nil
}
