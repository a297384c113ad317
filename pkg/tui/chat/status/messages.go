package status

import (
	"time"

	"github.com/killallgit/sherpa/pkg/process"
)

// SetStateMsg sets the session activity shown by the status bar
type SetStateMsg struct {
	State process.State
}

// NoticeMsg shows a short message next to the connection indicator.
// An empty Text clears it.
type NoticeMsg struct {
	Text string
}

// TickMsg updates the timer
type TickMsg time.Time
