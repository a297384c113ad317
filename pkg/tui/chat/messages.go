package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/killallgit/sherpa/pkg/chat"
)

// sessionReadyMsg carries a freshly connected session
type sessionReadyMsg struct {
	session *chat.Session
	err     error
}

// sessionUpdateMsg reports that a session's view may have changed
type sessionUpdateMsg struct {
	session *chat.Session
}

// sessionEndedMsg reports that a session was torn down
type sessionEndedMsg struct {
	session *chat.Session
}

type errMsg error

func connectCmd(ctx context.Context, connector Connector, seed []chat.Message) tea.Cmd {
	return func() tea.Msg {
		s, err := connector.Connect(ctx, seed)
		if s == nil {
			if err == nil {
				err = errNoSession
			}
			return errMsg(err)
		}
		return sessionReadyMsg{session: s, err: err}
	}
}

// waitForUpdate blocks until the session signals a change
func waitForUpdate(s *chat.Session) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-s.Updates(); !ok {
			return sessionEndedMsg{session: s}
		}
		return sessionUpdateMsg{session: s}
	}
}
