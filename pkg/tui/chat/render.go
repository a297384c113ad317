package chat

import (
	"strings"

	"github.com/killallgit/sherpa/pkg/chat"
	"github.com/killallgit/sherpa/pkg/render"
)

const maxRenderWidth = 120

// rebuildRenderer recreates the renderer for a new width and drops cached
// output
func (m *chatModel) rebuildRenderer(width int) {
	opts := m.opts.Render
	if opts.Width <= 0 || opts.Width > maxRenderWidth {
		opts.Width = maxRenderWidth
	}
	if width > 0 && width < opts.Width {
		opts.Width = width
	}

	r, err := render.New(opts)
	if err != nil {
		m.log.Warn("Falling back to plain rendering", "error", err)
		opts.PlainMarkdown = true
		r, _ = render.New(opts)
	}

	m.renderer = r
	m.rendered = make(map[uint64]string)
}

func (m *chatModel) renderMessages() string {
	rendered := make([]string, 0, len(m.view.Messages))
	for _, msg := range m.view.Messages {
		rendered = append(rendered, m.renderMessage(msg))
	}
	return strings.Join(rendered, "\n\n")
}

// renderMessage renders one entry. Entries never change once appended, so
// output is cached by id.
func (m *chatModel) renderMessage(msg chat.Message) string {
	if out, ok := m.rendered[msg.ID]; ok && msg.ID != 0 {
		return out
	}

	out := m.messageHeader(msg) + "\n" + m.messageBody(msg)
	if msg.ID != 0 {
		m.rendered[msg.ID] = out
	}
	return out
}

func (m *chatModel) updateViewportContent() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}
