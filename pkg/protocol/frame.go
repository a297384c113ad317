// Package protocol defines the frames exchanged with the chat backend and
// decodes inbound response payloads into a closed set of content variants.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Frame types understood by the client
const (
	TypeStatus   = "status"
	TypeResponse = "response"
)

// StatusThinking is the status content sent while the backend works on a reply
const StatusThinking = "thinking"

var (
	// ErrMalformedFrame is returned for frames that are not a JSON object with
	// a type and a content field.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrUnknownFrameType is returned for well-formed frames whose type the
	// client does not handle.
	ErrUnknownFrameType = errors.New("unknown frame type")
)

// Outbound is the frame written for every user message
type Outbound struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// Frame is a decoded inbound frame. Status is set for status frames and
// Content for response frames.
type Frame struct {
	Type    string
	Status  string
	Content Content
}

// IsThinking reports whether the frame is the backend's thinking status
func (f Frame) IsThinking() bool {
	return f.Type == TypeStatus && f.Status == StatusThinking
}

type wireFrame struct {
	Type    *string         `json:"type"`
	Content json.RawMessage `json:"content"`
}

// EncodeOutbound serializes a user message for the wire
func EncodeOutbound(message, sessionID string) ([]byte, error) {
	data, err := json.Marshal(Outbound{Message: message, SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode outbound frame: %w", err)
	}
	return data, nil
}

// DecodeOutbound parses a frame written by EncodeOutbound
func DecodeOutbound(data []byte) (Outbound, error) {
	var out Outbound
	if err := json.Unmarshal(data, &out); err != nil {
		return Outbound{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return out, nil
}

// DecodeFrame parses one inbound frame. Response content is decoded once
// here into its Content variant.
func DecodeFrame(data []byte) (Frame, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Frame{}, fmt.Errorf("%w: not a JSON object", ErrMalformedFrame)
	}

	var wf wireFrame
	if err := json.Unmarshal(trimmed, &wf); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if wf.Type == nil {
		return Frame{}, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}

	frameType := *wf.Type
	if frameType != TypeStatus && frameType != TypeResponse {
		return Frame{Type: frameType}, fmt.Errorf("%w: %q", ErrUnknownFrameType, frameType)
	}

	if len(wf.Content) == 0 || bytes.Equal(wf.Content, []byte("null")) {
		return Frame{Type: frameType}, fmt.Errorf("%w: missing content", ErrMalformedFrame)
	}

	switch frameType {
	case TypeStatus:
		var status string
		if err := json.Unmarshal(wf.Content, &status); err != nil {
			return Frame{Type: frameType}, fmt.Errorf("%w: status content is not a string", ErrMalformedFrame)
		}
		return Frame{Type: frameType, Status: status}, nil
	default:
		content, err := DecodeContent(wf.Content)
		if err != nil {
			return Frame{Type: frameType}, err
		}
		return Frame{Type: frameType, Content: content}, nil
	}
}
