package message

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	EventType   MessageType = "event"
	CommandType MessageType = "command"
)

type MessageType string

func ParseMessageType(msgType string) (MessageType, error) {
	switch MessageType(msgType) {
	case EventType, CommandType:
		return MessageType(msgType), nil
	default:
		return "", errors.Errorf("unknown message type '%s'", msgType)
	}
}

type Metadata struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Type    MessageType `json:"type"`
	Headers Headers     `json:"headers"`
}

// Message is the envelope every payload travels in. Payload is decoded into the type registered under Name.
type Message struct {
	Metadata     `json:"metadata"`
	Payload      interface{} `json:"payload"`
	OriginSource string      `json:"-"`
	ReceivedAt   time.Time   `json:"-"`
}

// NewCommand wraps a payload, name is resolved by the codec on marshaling when empty
func NewCommand(payload interface{}, headers Headers) *Message {
	if headers == nil {
		headers = Headers{}
	}

	return &Message{
		Metadata: Metadata{
			ID:      uuid.New().String(),
			Type:    CommandType,
			Headers: headers,
		},
		Payload: payload,
	}
}

type Headers map[string]interface{}
