// Package codec converts registered record types to and from the
// self-describing byte payload the two tiers actually store.
//
// The record type definition framework is an external collaborator per the
// spec this package implements against (§6: "each registered record type
// supplies (a) a serializer to bytes, (b) a deserializer from bytes that
// fails cleanly on corrupt/incompatible payloads..."); this package is the
// default, JSON-based implementation of that contract, grounded on the
// original implementation's use of a JSON-serializing model base class
// (model_dump_json / model_validate_json).
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/shaigeva/tiercache/internal/model"
)

// Codec serializes and deserializes values of R and reports their cached
// byte size. A zero value of R must be safe to pass to Deserialize's
// destination.
type Codec[R model.Record] interface {
	Serialize(value R) ([]byte, error)
	Deserialize(payload []byte) (R, error)
	// Size returns the cached byte-size of value without necessarily
	// re-serializing it; the JSON codec below simply serializes and takes
	// len(), since it has no cheaper estimator to offer.
	Size(value R) (int64, error)
}

// JSON is the default codec, round-tripping records through
// encoding/json. It satisfies Codec for any Record whose fields are all
// JSON-marshalable.
type JSON[R model.Record] struct{}

// NewJSON constructs the default JSON codec.
func NewJSON[R model.Record]() JSON[R] {
	return JSON[R]{}
}

func (JSON[R]) Serialize(value R) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("codec: serialize: %w", err)
	}
	return payload, nil
}

func (JSON[R]) Deserialize(payload []byte) (R, error) {
	var value R
	if err := json.Unmarshal(payload, &value); err != nil {
		return value, fmt.Errorf("codec: deserialize: %w", err)
	}
	return value, nil
}

func (c JSON[R]) Size(value R) (int64, error) {
	payload, err := c.Serialize(value)
	if err != nil {
		return 0, err
	}
	return int64(len(payload)), nil
}
