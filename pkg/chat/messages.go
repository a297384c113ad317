package chat

import (
	"encoding/json"
	"strings"
	"time"
)

// Sender identifies who produced a message
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// Kind is the classification of a transcript entry
type Kind string

const (
	KindPlain       Kind = "plain"
	KindError       Kind = "error"
	KindReply       Kind = "reply"
	KindReview      Kind = "review"
	KindExplanation Kind = "explanation"
	KindRawFallback Kind = "raw_fallback"
)

// Message is one transcript entry. ID is assigned on append and grows
// strictly with insertion order; Timestamp is for display only.
type Message struct {
	ID        uint64          `json:"id" yaml:"id"`
	Sender    Sender          `json:"sender" yaml:"sender"`
	Kind      Kind            `json:"kind" yaml:"kind"`
	Text      string          `json:"text" yaml:"text"`
	Payload   json.RawMessage `json:"payload,omitempty" yaml:"-"`
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
}

func NewUserMessage(text string, at time.Time) Message {
	return Message{
		Sender:    SenderUser,
		Kind:      KindPlain,
		Text:      text,
		Timestamp: at,
	}
}

func NewAgentMessage(kind Kind, text string, at time.Time) Message {
	return Message{
		Sender:    SenderAgent,
		Kind:      kind,
		Text:      text,
		Timestamp: at,
	}
}

func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

func (m Message) IsAgent() bool {
	return m.Sender == SenderAgent
}

func (m Message) IsError() bool {
	return m.Kind == KindError
}

func (m Message) HasPayload() bool {
	return len(m.Payload) > 0
}

func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Text) == ""
}
