package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	chatview "github.com/killallgit/sherpa/pkg/tui/chat"
)

// StartApp runs the chat TUI until the user quits. The connector's last
// session is closed on exit.
func StartApp(ctx context.Context, connector *Connector, opts chatview.Options) error {
	defer connector.Close()

	views := []tea.Model{chatview.NewChatModel(ctx, connector, opts)}
	root := NewRootModel(ctx, views...)
	p := tea.NewProgram(root, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("chat ui failed: %w", err)
	}

	return nil
}
