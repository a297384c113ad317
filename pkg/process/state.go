package process

import "github.com/killallgit/sherpa/pkg/chat"

// State represents what the chat session is doing, as shown to the user
type State string

const (
	// StateIdle indicates an open session with no reply outstanding
	StateIdle State = ""

	// StateConnecting indicates the channel handshake is in progress
	StateConnecting State = "connecting"

	// StateThinking indicates the backend is working on a reply
	StateThinking State = "thinking"

	// StateOffline indicates the channel is closed
	StateOffline State = "offline"
)

// FromView derives the activity state from a session snapshot
func FromView(v chat.View) State {
	switch v.State {
	case chat.StateConnecting:
		return StateConnecting
	case chat.StateClosed:
		return StateOffline
	}
	if v.Pending {
		return StateThinking
	}
	return StateIdle
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsActive reports whether the state should animate a spinner
func (s State) IsActive() bool {
	return s == StateConnecting || s == StateThinking
}

// GetIcon returns the appropriate icon for a given process state
func (s State) GetIcon() string {
	switch s {
	case StateConnecting:
		return "⇄"
	case StateThinking:
		return "🤔"
	case StateOffline:
		return "✕"
	default:
		return ""
	}
}

// GetDisplayName returns a human-readable name for the state
func (s State) GetDisplayName() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateThinking:
		return "Sherpa is typing"
	case StateOffline:
		return "Disconnected"
	case StateIdle:
		return "Idle"
	default:
		return ""
	}
}
