package chat

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/killallgit/sherpa/pkg/process"
	"github.com/killallgit/sherpa/pkg/tui/chat/status"
)

var errNoSession = errors.New("connector returned no session")

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		statusModel, _ := m.statusBar.Update(msg)
		m.statusBar = statusModel.(status.StatusModel)
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		return handleKeyMsg(m, msg)

	case errMsg:
		m.err = msg
		m.log.Error("Chat view error", "error", error(msg))
		return m.syncStatus(process.StateOffline)

	case sessionReadyMsg:
		m.session = msg.session
		m.err = msg.err
		// Seeded entries get fresh ids.
		m.rendered = make(map[uint64]string)
		m.refresh()
		m, cmd := m.syncStatus(process.FromView(m.view))
		if msg.err != nil {
			var noticeCmd tea.Cmd
			m, noticeCmd = m.notice("Connection failed")
			cmd = tea.Batch(cmd, noticeCmd)
		}
		return m, tea.Batch(cmd, waitForUpdate(msg.session))

	case sessionUpdateMsg:
		if msg.session != m.session {
			return m, nil
		}
		m.refresh()
		m, cmd := m.syncStatus(process.FromView(m.view))
		return m, tea.Batch(cmd, waitForUpdate(msg.session))

	case sessionEndedMsg:
		return m, nil

	default:
		statusModel, statusCmd := m.statusBar.Update(msg)
		m.statusBar = statusModel.(status.StatusModel)
		cmds = append(cmds, statusCmd)

		var tiCmd tea.Cmd
		m.textarea, tiCmd = m.textarea.Update(msg)
		cmds = append(cmds, tiCmd)

		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)
	}

	return m, tea.Batch(cmds...)
}

// refresh takes a new snapshot of the session and redraws the transcript
func (m *chatModel) refresh() {
	if m.session == nil {
		return
	}
	m.view = m.session.Snapshot()
	m.updateViewportContent()
}

func (m chatModel) syncStatus(state process.State) (chatModel, tea.Cmd) {
	statusModel, cmd := m.statusBar.Update(status.SetStateMsg{State: state})
	m.statusBar = statusModel.(status.StatusModel)
	m.layout()
	return m, cmd
}

func (m chatModel) notice(text string) (chatModel, tea.Cmd) {
	statusModel, cmd := m.statusBar.Update(status.NoticeMsg{Text: text})
	m.statusBar = statusModel.(status.StatusModel)
	m.layout()
	return m, cmd
}
