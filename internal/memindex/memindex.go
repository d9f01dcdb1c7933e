// Package memindex implements the memory tier: a keyed mapping from key to
// a materialized record plus its bookkeeping (byte size, last-access
// timestamp, schema version), with running totals for O(1) count/size
// queries. It is grounded on the teacher's cache_service, stripped of its
// adaptive frequency/recency scoring and its own locking — the coordinator
// serializes all access under a single lock per the concurrency contract,
// so this package is not safe for concurrent use on its own.
package memindex

import "github.com/shaigeva/tiercache/internal/model"

// Index holds the memory tier's rows for record type R.
type Index[R model.Record] struct {
	rows         map[string]*model.Entry[R]
	currentCount int
	currentBytes int64
}

// New constructs an empty memory index.
func New[R model.Record]() *Index[R] {
	return &Index[R]{rows: make(map[string]*model.Entry[R])}
}

// Get returns the row stored for key, if any.
func (idx *Index[R]) Get(key string) (*model.Entry[R], bool) {
	row, ok := idx.rows[key]
	return row, ok
}

// Touch refreshes the last-access timestamp of an existing row. It is a
// no-op if key is absent.
func (idx *Index[R]) Touch(key string, ts float64) {
	if row, ok := idx.rows[key]; ok {
		row.LastAccessTS = ts
	}
}

// Put inserts or replaces the row for key, maintaining the running
// count/byte totals.
func (idx *Index[R]) Put(entry model.Entry[R]) {
	if existing, ok := idx.rows[entry.Key]; ok {
		idx.currentBytes -= existing.ByteSize
	} else {
		idx.currentCount++
	}
	stored := entry
	idx.rows[entry.Key] = &stored
	idx.currentBytes += entry.ByteSize
}

// Remove deletes the row for key, if present, updating the running
// totals. It reports whether a row was actually removed.
func (idx *Index[R]) Remove(key string) bool {
	row, ok := idx.rows[key]
	if !ok {
		return false
	}
	delete(idx.rows, key)
	idx.currentCount--
	idx.currentBytes -= row.ByteSize
	return true
}

// Clear drops every row and resets the running totals.
func (idx *Index[R]) Clear() {
	idx.rows = make(map[string]*model.Entry[R])
	idx.currentCount = 0
	idx.currentBytes = 0
}

// Count returns the current number of resident rows.
func (idx *Index[R]) Count() int {
	return idx.currentCount
}

// TotalBytes returns the sum of resident rows' byte sizes.
func (idx *Index[R]) TotalBytes() int64 {
	return idx.currentBytes
}

// Candidates returns every resident row as a VictimCandidate, for the
// policy package to rank without needing to see materialized values.
func (idx *Index[R]) Candidates() []model.VictimCandidate {
	candidates := make([]model.VictimCandidate, 0, len(idx.rows))
	for key, row := range idx.rows {
		candidates = append(candidates, model.VictimCandidate{Key: key, LastAccessTS: row.LastAccessTS})
	}
	return candidates
}

// ByteSizes returns each resident key's byte size, keyed for the policy
// package's running-total bookkeeping during a multi-victim scan.
func (idx *Index[R]) ByteSizes() map[string]int64 {
	sizes := make(map[string]int64, len(idx.rows))
	for key, row := range idx.rows {
		sizes[key] = row.ByteSize
	}
	return sizes
}
