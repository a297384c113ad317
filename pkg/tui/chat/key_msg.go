package chat

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/killallgit/sherpa/pkg/chat"
	"github.com/killallgit/sherpa/pkg/process"
)

type keyMap struct {
	Reconnect key.Binding
	ClearLine key.Binding
	Send      key.Binding
}

var keys = keyMap{
	Reconnect: key.NewBinding(key.WithKeys("ctrl+r")),
	ClearLine: key.NewBinding(key.WithKeys("esc")),
	Send:      key.NewBinding(key.WithKeys("enter")),
}

func handleKeyMsg(m chatModel, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.ClearLine):
		m.numEscPress++
		if m.numEscPress == 2 {
			m.textarea.Reset()
			m.numEscPress = 0
			m.layout()
			return m, nil
		}

	case key.Matches(msg, keys.Reconnect):
		return m.reconnect()

	case key.Matches(msg, keys.Send) && !msg.Alt:
		// Alt+Enter falls through to the textarea as a newline.
		if m.textarea.Value() != "" {
			return m.send()
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)

	if inputLines(m.textarea.Value(), m.textarea.Width()) != m.textarea.Height() {
		m.layout()
	}

	return m, cmd
}

func (m chatModel) send() (tea.Model, tea.Cmd) {
	text := m.textarea.Value()
	m.textarea.Reset()
	m.layout()

	if m.session == nil {
		return m.notice("Still connecting…")
	}

	if _, ok := m.session.Send(text); ok {
		m.refresh()
		m.viewport.GotoBottom()
	}
	if !m.view.IsConnected() {
		return m.notice("Not connected, message was not delivered")
	}
	return m.syncStatus(process.FromView(m.view))
}

// reconnect replaces a closed session with a new one seeded from its
// transcript
func (m chatModel) reconnect() (tea.Model, tea.Cmd) {
	if m.session == nil || m.view.State != chat.StateClosed {
		return m, nil
	}
	if !m.connector.Allow() {
		return m.notice("Reconnect throttled, try again shortly")
	}

	old := m.session
	seed := old.Transcript()
	if err := old.Close(); err != nil {
		m.log.Warn("Failed to close previous session", "error", err)
	}
	m.session = nil

	m, cmd := m.notice("")
	m, stateCmd := m.syncStatus(process.StateConnecting)
	return m, tea.Batch(cmd, stateCmd, connectCmd(m.ctx, m.connector, seed))
}
