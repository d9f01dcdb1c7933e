package codec_test

import (
	"testing"

	"github.com/shaigeva/tiercache/internal/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	Version string `json:"schema_version"`
	Name    string `json:"name"`
	Age     int    `json:"age"`
}

func (testRecord) SchemaVersion() string { return "1.0.0" }

func TestJSONRoundTrip(t *testing.T) {
	c := codec.NewJSON[testRecord]()
	original := testRecord{Version: "1.0.0", Name: "Alice", Age: 30}

	payload, err := c.Serialize(original)
	require.NoError(t, err)

	decoded, err := c.Deserialize(payload)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestJSONSize(t *testing.T) {
	c := codec.NewJSON[testRecord]()
	value := testRecord{Version: "1.0.0", Name: "Bob", Age: 25}

	payload, err := c.Serialize(value)
	require.NoError(t, err)

	size, err := c.Size(value)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), size)
}

func TestJSONDeserializeCorruptPayload(t *testing.T) {
	c := codec.NewJSON[testRecord]()

	_, err := c.Deserialize([]byte("not json"))
	assert.Error(t, err)
}
