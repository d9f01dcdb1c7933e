// Package model holds the record contract and the logical cache entry
// shared by the memory index, the disk store, and the coordinator.
package model

// Record is the contract every cacheable type must satisfy. The registered
// type's serializer, deserializer, and byte-size estimator live behind the
// codec.Codec interface; Record itself only carries the piece of identity
// the engine needs to validate on every read: the schema version the value
// was produced under.
type Record interface {
	SchemaVersion() string
}

// Entry is the logical cache entry replicated, in different shapes, across
// both tiers: the disk row additionally carries the serialized payload,
// the memory row carries the materialized value instead.
type Entry[R Record] struct {
	Key           string
	Value         R
	ByteSize      int64
	LastAccessTS  float64
	SchemaVersion string
}

// DiskRow mirrors the persisted columns of the disk store's table.
type DiskRow struct {
	Key           string
	Payload       []byte
	ByteSize      int64
	LastAccessTS  float64
	SchemaVersion string
}

// VictimCandidate is the minimal shape the eviction policy needs to rank
// entries for eviction: a key, its recency, and nothing else.
type VictimCandidate struct {
	Key          string
	LastAccessTS float64
}
