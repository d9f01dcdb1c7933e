package memindex_test

import (
	"testing"

	"github.com/shaigeva/tiercache/internal/memindex"
	"github.com/shaigeva/tiercache/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	Name string
}

func (testRecord) SchemaVersion() string { return "1.0.0" }

func TestPutAndGet(t *testing.T) {
	idx := memindex.New[testRecord]()

	idx.Put(model.Entry[testRecord]{Key: "a", Value: testRecord{Name: "alice"}, ByteSize: 10, LastAccessTS: 1})

	row, ok := idx.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alice", row.Value.Name)
	assert.Equal(t, 1, idx.Count())
	assert.Equal(t, int64(10), idx.TotalBytes())
}

func TestPutReplacesExistingAccountsBytesCorrectly(t *testing.T) {
	idx := memindex.New[testRecord]()
	idx.Put(model.Entry[testRecord]{Key: "a", ByteSize: 10, LastAccessTS: 1})
	idx.Put(model.Entry[testRecord]{Key: "a", ByteSize: 30, LastAccessTS: 2})

	assert.Equal(t, 1, idx.Count())
	assert.Equal(t, int64(30), idx.TotalBytes())
}

func TestRemove(t *testing.T) {
	idx := memindex.New[testRecord]()
	idx.Put(model.Entry[testRecord]{Key: "a", ByteSize: 10, LastAccessTS: 1})

	assert.True(t, idx.Remove("a"))
	assert.False(t, idx.Remove("a"))
	assert.Equal(t, 0, idx.Count())
	assert.Equal(t, int64(0), idx.TotalBytes())

	_, ok := idx.Get("a")
	assert.False(t, ok)
}

func TestTouch(t *testing.T) {
	idx := memindex.New[testRecord]()
	idx.Put(model.Entry[testRecord]{Key: "a", ByteSize: 10, LastAccessTS: 1})

	idx.Touch("a", 99)
	row, ok := idx.Get("a")
	require.True(t, ok)
	assert.Equal(t, float64(99), row.LastAccessTS)

	idx.Touch("missing", 99) // no-op, must not panic
}

func TestClear(t *testing.T) {
	idx := memindex.New[testRecord]()
	idx.Put(model.Entry[testRecord]{Key: "a", ByteSize: 10, LastAccessTS: 1})
	idx.Put(model.Entry[testRecord]{Key: "b", ByteSize: 20, LastAccessTS: 2})

	idx.Clear()
	assert.Equal(t, 0, idx.Count())
	assert.Equal(t, int64(0), idx.TotalBytes())
}

func TestCandidatesAndByteSizes(t *testing.T) {
	idx := memindex.New[testRecord]()
	idx.Put(model.Entry[testRecord]{Key: "a", ByteSize: 10, LastAccessTS: 1})
	idx.Put(model.Entry[testRecord]{Key: "b", ByteSize: 20, LastAccessTS: 2})

	candidates := idx.Candidates()
	assert.Len(t, candidates, 2)

	sizes := idx.ByteSizes()
	assert.Equal(t, int64(10), sizes["a"])
	assert.Equal(t, int64(20), sizes["b"])
}
