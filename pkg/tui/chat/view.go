package chat

import (
	"fmt"
)

func (m chatModel) header() string {
	header := m.styles.Header.Render("CodeSherpa")
	if m.session != nil {
		header += m.styles.Help.Render(" session " + m.session.SessionID())
	}
	return header
}

func (m chatModel) View() string {
	return fmt.Sprintf(
		"%s\n%s\n%s\n%s",
		m.header(),
		m.viewport.View(),
		m.statusBar.View(),
		m.textarea.View(),
	)
}
