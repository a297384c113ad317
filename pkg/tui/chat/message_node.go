package chat

import (
	"github.com/killallgit/sherpa/pkg/chat"
)

const timestampLayout = "15:04"

func (m chatModel) messageHeader(msg chat.Message) string {
	label := m.styles.AgentLabel.Render("Sherpa")
	if msg.IsUser() {
		label = m.styles.UserLabel.Render("You")
	}

	if m.opts.ShowTimestamps && !msg.Timestamp.IsZero() {
		label += " " + m.styles.Timestamp.Render(msg.Timestamp.Format(timestampLayout))
	}
	return label
}

func (m chatModel) messageBody(msg chat.Message) string {
	if msg.IsUser() {
		return m.styles.UserMessage.Width(m.renderer.Width()).Render(msg.Text)
	}
	return m.renderer.Message(msg)
}
