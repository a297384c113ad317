package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	maxInputLines     = 10
	inputInset        = 4
	defaultInputWidth = 80
)

// inputLines is the number of rows text fills when wrapped at width,
// clamped to [1, maxInputLines]
func inputLines(text string, width int) int {
	if width <= 0 {
		width = defaultInputWidth
	}

	rows := 0
	for _, line := range strings.Split(text, "\n") {
		rows += max(1, (runewidth.StringWidth(line)+width-1)/width)
	}
	return min(max(rows, 1), maxInputLines)
}

// layout sizes the input to its content and gives the transcript whatever
// the header, status bar and input leave over. The status bar can wrap, so
// its height is measured rather than assumed.
func (m *chatModel) layout() {
	m.textarea.SetHeight(inputLines(m.textarea.Value(), m.textarea.Width()))
	if m.height == 0 {
		return
	}

	chrome := lipgloss.Height(m.header()) + lipgloss.Height(m.statusBar.View())
	m.viewport.Width = m.width
	m.viewport.Height = max(1, m.height-chrome-m.textarea.Height())
}

func (m *chatModel) resize(width, height int) {
	m.width, m.height = width, height
	m.textarea.SetWidth(width - inputInset)
	m.rebuildRenderer(width - 2)
	m.layout()

	if len(m.view.Messages) > 0 {
		m.updateViewportContent()
	}
}
