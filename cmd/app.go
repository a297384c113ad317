package cmd

import (
	"context"
	"fmt"

	"github.com/killallgit/sherpa/pkg/chat"
	"github.com/killallgit/sherpa/pkg/config"
	"github.com/killallgit/sherpa/pkg/headless"
	"github.com/killallgit/sherpa/pkg/logger"
	"github.com/killallgit/sherpa/pkg/render"
	"github.com/killallgit/sherpa/pkg/session"
	"github.com/killallgit/sherpa/pkg/transport"
	"github.com/killallgit/sherpa/pkg/tui"
	chatview "github.com/killallgit/sherpa/pkg/tui/chat"
)

// AppConfig contains all configuration needed to run the application
type AppConfig struct {
	Config          *config.Config
	ContinueHistory bool
	DirectPrompt    string
	NoTUI           bool
}

// RunApplication is the main entry point for the application logic
func RunApplication(ctx context.Context, appCfg *AppConfig) error {
	log := logger.WithComponent("app")
	cfg := appCfg.Config

	if appCfg.NoTUI && appCfg.DirectPrompt == "" {
		return fmt.Errorf("--headless requires --prompt")
	}

	ids := session.NewProvider(cfg.Server.SessionID)
	store, seed, err := openHistory(cfg, ids.SessionID(), appCfg.ContinueHistory)
	if err != nil {
		return err
	}

	log.Info("Application starting",
		"url", cfg.Server.URL,
		"session_id", ids.SessionID(),
		"headless", appCfg.NoTUI,
		"seeded", len(seed))

	renderOpts := render.Options{
		MarkdownStyle: cfg.UI.MarkdownStyle,
		Width:         cfg.UI.WordWrap,
	}
	dial := func() (transport.Channel, error) {
		return transport.Dial(cfg.Server.URL, transport.Options{
			HandshakeTimeout: cfg.Server.HandshakeTimeout,
			PingInterval:     cfg.Server.PingInterval,
		})
	}

	if appCfg.NoTUI {
		ch, err := dial()
		if err != nil {
			return err
		}
		return headless.RunHeadless(ctx, headless.Config{
			Channel: ch,
			IDs:     ids,
			Store:   store,
			Seed:    seed,
			Timeout: cfg.Headless.Timeout,
			Render:  renderOpts,
		}, appCfg.DirectPrompt)
	}

	connector := tui.NewConnector(tui.ConnectorConfig{
		Dial:              dial,
		IDs:               ids,
		Store:             store,
		Greeting:          cfg.UI.Greeting,
		ReconnectInterval: cfg.UI.ReconnectInterval,
	})

	return tui.StartApp(ctx, connector, chatview.Options{
		Render:         renderOpts,
		ShowTimestamps: cfg.UI.ShowTimestamps,
		Seed:           seed,
	})
}

// openHistory returns the store new messages are saved to, if history is
// enabled, and the messages to seed the session with
func openHistory(cfg *config.Config, sessionID string, continueHistory bool) (chat.Store, []chat.Message, error) {
	if !cfg.History.Enabled && !continueHistory {
		return nil, nil, nil
	}

	history, err := chat.NewHistory(config.ResolvePath(cfg.History.File))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}

	var seed []chat.Message
	if continueHistory {
		seed = history.GetMessages()
	}

	if !cfg.History.Enabled {
		return nil, seed, nil
	}

	if !continueHistory {
		if err := history.Clear(); err != nil {
			return nil, nil, fmt.Errorf("failed to clear history: %w", err)
		}
	}
	if err := history.SetSessionID(sessionID); err != nil {
		return nil, nil, fmt.Errorf("failed to save history: %w", err)
	}

	return history, seed, nil
}
