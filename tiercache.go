// Package tiercache re-exports the coordinator's public contract as this
// module's top-level API, the way the pack's services expose a thin root
// package over an internal implementation.
package tiercache

import (
	"github.com/shaigeva/tiercache/internal/codec"
	"github.com/shaigeva/tiercache/internal/coordinator"
	"github.com/shaigeva/tiercache/internal/metrics"
	"github.com/shaigeva/tiercache/internal/model"
)

// Record is the contract every cacheable type must satisfy.
type Record = model.Record

// Clock returns the current time as seconds since the epoch.
type Clock = coordinator.Clock

// Options configures a Cache at construction time.
type Options = coordinator.Options

// Stats is a point-in-time snapshot of a Cache's counters.
type Stats = coordinator.Stats

// Codec serializes and deserializes values of R.
type Codec[R Record] = codec.Codec[R]

// Metrics holds the Prometheus instruments a Cache reports through.
type Metrics = metrics.Metrics

// NewMetrics creates and registers a Cache's Prometheus instruments.
var NewMetrics = metrics.New

// JSON is the default codec, round-tripping records through
// encoding/json.
type JSON[R Record] = codec.JSON[R]

// NewJSONCodec constructs the default JSON codec for record type R.
func NewJSONCodec[R Record]() JSON[R] {
	return codec.NewJSON[R]()
}

// Cache is the two-tier, schema-versioned cache for record type R.
type Cache[R Record] = coordinator.Cache[R]

// Open constructs a Cache backed by a disk store at opts.DBPath.
func Open[R Record](opts Options, c Codec[R]) (*Cache[R], error) {
	return coordinator.Open[R](opts, c)
}
