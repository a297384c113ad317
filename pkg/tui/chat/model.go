package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/killallgit/sherpa/pkg/chat"
	"github.com/killallgit/sherpa/pkg/logger"
	"github.com/killallgit/sherpa/pkg/render"
	"github.com/killallgit/sherpa/pkg/tui/chat/status"
	"github.com/killallgit/sherpa/pkg/tui/theme"
)

// Connector creates sessions for the chat view
type Connector interface {
	// Connect builds a new session seeded with seed and opens it. A session
	// is returned even when opening fails, in the closed state.
	Connect(ctx context.Context, seed []chat.Message) (*chat.Session, error)
	// Allow reports whether a reconnect may be attempted now
	Allow() bool
}

// Options configures the chat view
type Options struct {
	Render         render.Options
	ShowTimestamps bool
	// Seed is shown before the first session connects
	Seed []chat.Message
}

type chatModel struct {
	ctx       context.Context
	connector Connector
	opts      Options

	session *chat.Session
	view    chat.View

	renderer *render.Renderer
	rendered map[uint64]string

	viewport  viewport.Model
	textarea  textarea.Model
	statusBar status.StatusModel
	styles    *theme.Styles
	log       *logger.Logger

	err         error
	width       int
	height      int
	numEscPress int
}

// NewChatModel creates the chat view. The session is connected by Init.
func NewChatModel(ctx context.Context, connector Connector, opts Options) chatModel {
	ta := textarea.New()
	ta.Focus()
	ta.Placeholder = "Ask Sherpa to review a PR or explain some code..."
	ta.CharLimit = 0
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.KeyMap.InsertNewline.SetEnabled(true)

	styles := theme.DefaultStyles()
	m := chatModel{
		ctx:       ctx,
		connector: connector,
		opts:      opts,
		view:      chat.View{State: chat.StateConnecting, Messages: opts.Seed},
		rendered:  make(map[uint64]string),
		viewport:  viewport.New(80, 20),
		textarea:  ta,
		statusBar: status.NewStatusModel(),
		styles:    styles,
		log:       logger.WithComponent("chat_view"),
	}
	m.rebuildRenderer(opts.Render.Width)

	return m
}

// Session returns the session currently shown
func (m chatModel) Session() *chat.Session {
	return m.session
}
