package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownTag is returned when decoding or dispatching an unrecognised message.
var ErrUnknownTag = errors.New("protocol: unknown message type")

// envelope is the flat wire form shared by every variant.
type envelope struct {
	Type  Tag     `json:"type"`
	Name  *string `json:"name,omitempty"`
	Data  []byte  `json:"data,omitempty"`
	Value *string `json:"value,omitempty"`
}

// Marshal encodes m as a JSON envelope. Binary payloads are base64.
func Marshal(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil message", ErrUnknownTag)
	}
	env := envelope{Type: m.Tag()}
	switch msg := m.(type) {
	case Play:
		env.Name = &msg.name
		env.Data = msg.data
	case Name:
		env.Value = &msg.value
	}
	return json.Marshal(env)
}

// Unmarshal decodes a JSON envelope.
func Unmarshal(b []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("protocol: decode envelope: %w", err)
	}

	switch env.Type {
	case TagReady:
		return NewReady(), nil
	case TagPlay:
		if env.Name == nil {
			return nil, fmt.Errorf("protocol: %s without name", TagPlay)
		}
		return Play{name: *env.Name, data: env.Data}, nil
	case TagName:
		if env.Value == nil {
			return nil, fmt.Errorf("protocol: %s without value", TagName)
		}
		return NewName(*env.Value), nil
	case TagExit:
		return NewExit(), nil
	case TagSaveState:
		return NewSaveState(), nil
	case TagLoadState:
		return NewLoadState(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, env.Type)
	}
}
