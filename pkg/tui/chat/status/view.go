package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/killallgit/sherpa/pkg/process"
	"github.com/killallgit/sherpa/pkg/tui/theme"
)

func (m StatusModel) View() string {
	if m.width == 0 {
		return ""
	}

	styles := theme.DefaultStyles()
	var components []string

	switch m.state {
	case process.StateConnecting:
		components = append(components, styles.Connecting.Render("◌ Connecting"))
	case process.StateOffline:
		components = append(components, styles.Disconnected.Render("○ Disconnected")+
			styles.Help.Render(" (ctrl+r to reconnect)"))
	default:
		components = append(components, styles.Connected.Render("● Connected"))
	}

	if m.state == process.StateThinking {
		indicator := m.spinner.View() + " " + styles.TypingIndicator.Render(m.state.GetDisplayName()+"…")
		components = append(components, indicator)
	}

	if m.state.IsActive() && m.timer > 0 {
		minutes := int(m.timer.Minutes())
		seconds := int(m.timer.Seconds()) % 60
		timerText := fmt.Sprintf("%02d:%02d", minutes, seconds)
		components = append(components, styles.Timestamp.Render(timerText))
	}

	if m.notice != "" {
		components = append(components, styles.Help.Render(m.notice))
	}

	separator := lipgloss.NewStyle().Foreground(theme.ColorBase03).Render(" | ")
	statusLine := ""
	for i, component := range components {
		if i > 0 {
			statusLine += separator
		}
		statusLine += component
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Background(theme.ColorBase01).
		Padding(0, 1).
		Render(statusLine)
}
