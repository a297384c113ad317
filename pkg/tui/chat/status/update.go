package status

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m StatusModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.state.IsActive() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SetStateMsg:
		if msg.State == m.state {
			return m, nil
		}
		wasActive := m.state.IsActive()
		m.state = msg.State
		m.timer = 0
		if m.state.IsActive() {
			m.startTime = m.now()
			if !wasActive {
				return m, tea.Batch(m.spinner.Tick, tickEvery())
			}
		}
		return m, nil

	case NoticeMsg:
		m.notice = msg.Text
		return m, nil

	case TickMsg:
		if m.state.IsActive() {
			m.timer = m.now().Sub(m.startTime)
			return m, tickEvery()
		}
		return m, nil
	}

	return m, nil
}

// tickEvery returns a command that sends a tick message every second
func tickEvery() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
