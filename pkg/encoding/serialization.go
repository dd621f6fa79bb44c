// Package encoding holds the serialization contract entities satisfy to take
// part in persistence.
package encoding

import (
	"encoding/json"
	"fmt"
)

// Serializable provides a clean, simple interface for serializing and deserializing values.
// Serialize must produce a JSON document; Deserialize receives what Serialize produced.
type Serializable interface {
	Serialize() ([]byte, error)
	Deserialize([]byte) error
}

// Extract serializes v and checks that the result is well-formed JSON.
func Extract(v Serializable) (json.RawMessage, error) {
	data, err := v.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("serialize: %w", ErrNotJSON)
	}
	return data, nil
}

// Inject feeds data into v.
func Inject(v Serializable, data []byte) error {
	if err := v.Deserialize(data); err != nil {
		return fmt.Errorf("deserialize: %w", err)
	}
	return nil
}

// JSON is a helper for types that serialize their exported fields as-is.
func JSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
