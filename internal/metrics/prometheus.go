// Package metrics exposes the engine's runtime counters as Prometheus
// instruments, registered the way the storage node registered its own.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments backing Stats: one counter or
// gauge per field the coordinator's stats snapshot reports.
type Metrics struct {
	MemoryHitsTotal      prometheus.Counter
	DiskHitsTotal        prometheus.Counter
	MissesTotal          prometheus.Counter
	MemoryEvictionsTotal prometheus.Counter
	DiskEvictionsTotal   prometheus.Counter
	PutsTotal            prometheus.Counter
	GetsTotal            prometheus.Counter
	DeletesTotal         prometheus.Counter

	CurrentMemoryItems prometheus.Gauge
	CurrentDiskItems   prometheus.Gauge
}

// New creates and registers the engine's metrics against registry. Pass
// prometheus.NewRegistry() to isolate a cache instance's metrics from the
// global default registry.
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		MemoryHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tiercache",
			Name:      "memory_hits_total",
			Help:      "Total number of cache gets served from the memory tier.",
		}),
		DiskHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tiercache",
			Name:      "disk_hits_total",
			Help:      "Total number of cache gets served from the disk tier.",
		}),
		MissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tiercache",
			Name:      "misses_total",
			Help:      "Total number of cache gets that found no usable entry in either tier.",
		}),
		MemoryEvictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tiercache",
			Name:      "memory_evictions_total",
			Help:      "Total number of entries evicted from the memory tier.",
		}),
		DiskEvictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tiercache",
			Name:      "disk_evictions_total",
			Help:      "Total number of entries evicted from the disk tier.",
		}),
		PutsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tiercache",
			Name:      "puts_total",
			Help:      "Total number of items written via Put or PutMany.",
		}),
		GetsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tiercache",
			Name:      "gets_total",
			Help:      "Total number of keys read via Get or GetMany.",
		}),
		DeletesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tiercache",
			Name:      "deletes_total",
			Help:      "Total number of items removed via Delete or DeleteMany.",
		}),
		CurrentMemoryItems: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tiercache",
			Name:      "current_memory_items",
			Help:      "Current number of entries held in the memory tier.",
		}),
		CurrentDiskItems: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tiercache",
			Name:      "current_disk_items",
			Help:      "Current number of entries held in the disk tier.",
		}),
	}
}

// The increment helpers below are nil-receiver safe so the coordinator can
// call them unconditionally whether or not Options.Metrics was supplied.

func (m *Metrics) IncMemoryHit() {
	if m == nil {
		return
	}
	m.MemoryHitsTotal.Inc()
}

func (m *Metrics) IncDiskHit() {
	if m == nil {
		return
	}
	m.DiskHitsTotal.Inc()
}

func (m *Metrics) IncMiss() {
	if m == nil {
		return
	}
	m.MissesTotal.Inc()
}

func (m *Metrics) IncMemoryEviction() {
	if m == nil {
		return
	}
	m.MemoryEvictionsTotal.Inc()
}

func (m *Metrics) IncDiskEviction() {
	if m == nil {
		return
	}
	m.DiskEvictionsTotal.Inc()
}

func (m *Metrics) IncPut() {
	if m == nil {
		return
	}
	m.PutsTotal.Inc()
}

// AddPuts increments PutsTotal by n, for batch writes that land more than
// one item per call.
func (m *Metrics) AddPuts(n int) {
	if m == nil {
		return
	}
	m.PutsTotal.Add(float64(n))
}

func (m *Metrics) IncGet() {
	if m == nil {
		return
	}
	m.GetsTotal.Inc()
}

// AddGets increments GetsTotal by n, for batch reads.
func (m *Metrics) AddGets(n int) {
	if m == nil {
		return
	}
	m.GetsTotal.Add(float64(n))
}

func (m *Metrics) IncDelete() {
	if m == nil {
		return
	}
	m.DeletesTotal.Inc()
}

// AddDeletes increments DeletesTotal by n, for batch deletes.
func (m *Metrics) AddDeletes(n int) {
	if m == nil {
		return
	}
	m.DeletesTotal.Add(float64(n))
}

// SetCurrentItems reports the tiers' current resident counts, called
// after Stats recomputes them.
func (m *Metrics) SetCurrentItems(memoryItems, diskItems int) {
	if m == nil {
		return
	}
	m.CurrentMemoryItems.Set(float64(memoryItems))
	m.CurrentDiskItems.Set(float64(diskItems))
}
