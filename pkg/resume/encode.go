package resume

import (
	"encoding/json"

	"pickmeup/pkg/errors"
)

// encodeElements serializes each element to JSON, preserving order. Any
// element that cannot be serialized fails the whole batch.
func encodeElements[T any](elements []T) ([]json.RawMessage, error) {
	raw := make([]json.RawMessage, len(elements))
	for i, e := range elements {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeSerialization,
				"element %d cannot be serialized", i)
		}
		raw[i] = data
	}
	return raw, nil
}

// decodeElements deserializes a persisted remainder back into elements. A
// persisted element that no longer decodes into T means the record does
// not match what this run expects, which is corrupt state.
func decodeElements[T any](raw []json.RawMessage) ([]T, error) {
	elements := make([]T, len(raw))
	for i, data := range raw {
		if err := json.Unmarshal(data, &elements[i]); err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeCorruptState,
				"persisted element %d cannot be decoded", i)
		}
	}
	return elements, nil
}
