// Package serialize provides the content marshals entries are stored with.
package serialize

import (
	"encoding/json"
	"fmt"
)

func MarshalJSON(data any) ([]byte, error) {
	return json.Marshal(data)
}

func UnMarshalJSON(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}

// JSONMarshal stores content as JSON and decodes it back into a T.
type JSONMarshal[T any] struct{}

func NewJSONMarshal[T any]() *JSONMarshal[T] {
	return &JSONMarshal[T]{}
}

func (m *JSONMarshal[T]) Marshal(content any) ([]byte, error) {
	data, err := MarshalJSON(content)
	if err != nil {
		return nil, fmt.Errorf("error marshaling content : %w", err)
	}
	return data, nil
}

func (m *JSONMarshal[T]) Unmarshal(data []byte) (any, error) {
	var out T
	if err := UnMarshalJSON(data, &out); err != nil {
		return nil, fmt.Errorf("error unmarshaling content : %w", err)
	}
	return out, nil
}
