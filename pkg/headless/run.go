package headless

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/killallgit/sherpa/pkg/chat"
	"github.com/killallgit/sherpa/pkg/render"
	"github.com/killallgit/sherpa/pkg/session"
	"github.com/killallgit/sherpa/pkg/transport"
)

// Config configures a headless run
type Config struct {
	Channel transport.Channel
	IDs     session.Provider
	// Store persists the exchange when set
	Store chat.Store
	// Seed continues an earlier transcript
	Seed    []chat.Message
	Timeout time.Duration
	Render  render.Options
	Stdout  io.Writer
	Stderr  io.Writer
}

// RunHeadless sends one prompt, waits for the reply and prints it.
// This is the main entry point for headless/CLI execution
func RunHeadless(ctx context.Context, cfg Config, prompt string) error {
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty in headless mode")
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}

	runner, err := newRunner(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize headless mode: %w", err)
	}
	defer runner.cleanup()

	if err := runner.run(ctx, prompt); err != nil {
		return fmt.Errorf("failed to execute prompt: %w", err)
	}

	return nil
}
