package status

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/killallgit/sherpa/pkg/process"
	"github.com/killallgit/sherpa/pkg/tui/theme"
)

// StatusModel is the one-line bar under the transcript showing connection
// state and the typing indicator
type StatusModel struct {
	spinner   spinner.Model
	state     process.State
	notice    string
	timer     time.Duration
	startTime time.Time
	width     int
	now       func() time.Time
}

// NewStatusModel creates a status bar in the connecting state
func NewStatusModel() StatusModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorSaffron)

	return StatusModel{
		spinner: s,
		state:   process.StateConnecting,
		now:     time.Now,
	}
}

// State returns the activity currently shown
func (m StatusModel) State() process.State {
	return m.state
}
