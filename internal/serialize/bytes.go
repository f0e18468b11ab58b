package serialize

import (
	"fmt"
)

// BytesMarshal stores []byte and string content verbatim and always decodes
// to []byte.
type BytesMarshal struct{}

func NewBytesMarshal() *BytesMarshal {
	return &BytesMarshal{}
}

func (m *BytesMarshal) Marshal(content any) ([]byte, error) {
	switch v := content.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("bytes marshal cannot encode %T", content)
	}
}

func (m *BytesMarshal) Unmarshal(data []byte) (any, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// StringMarshal is BytesMarshal decoding to string, handy for dumps and tests.
type StringMarshal struct {
	BytesMarshal
}

func NewStringMarshal() *StringMarshal {
	return &StringMarshal{}
}

func (m *StringMarshal) Unmarshal(data []byte) (any, error) {
	return string(data), nil
}
