package serialize

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// ProtoMarshal stores protobuf messages. newMessage returns an empty message
// of the concrete type entries are decoded into.
type ProtoMarshal struct {
	newMessage func() proto.Message
	options    proto.MarshalOptions
}

func NewProtoMarshal(newMessage func() proto.Message) *ProtoMarshal {
	return &ProtoMarshal{
		newMessage: newMessage,
		options:    proto.MarshalOptions{Deterministic: true},
	}
}

func (m *ProtoMarshal) Marshal(content any) ([]byte, error) {
	msg, ok := content.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("proto marshal cannot encode %T", content)
	}

	data, err := m.options.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("error marshaling content : %w", err)
	}
	return data, nil
}

func (m *ProtoMarshal) Unmarshal(data []byte) (any, error) {
	msg := m.newMessage()
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("error unmarshaling content : %w", err)
	}
	return msg, nil
}
