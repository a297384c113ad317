package headless

import (
	"context"
	"errors"
	"fmt"

	"github.com/killallgit/sherpa/pkg/chat"
	"github.com/killallgit/sherpa/pkg/logger"
	"github.com/killallgit/sherpa/pkg/render"
)

// runner runs one exchange in headless mode
type runner struct {
	session *chat.Session
	output  *Output
	config  Config
	log     *logger.Logger
}

// newRunner builds the session and output for cfg
func newRunner(cfg Config) (*runner, error) {
	if cfg.Channel == nil {
		return nil, errors.New("no channel configured")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("invalid reply timeout %s", cfg.Timeout)
	}

	renderOpts := cfg.Render
	if !isTerminal(cfg.Stdout) {
		renderOpts.PlainMarkdown = true
	}
	renderer, err := render.New(renderOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	var opts []chat.Option
	if len(cfg.Seed) > 0 {
		opts = append(opts, chat.WithHistory(cfg.Seed))
	}
	if cfg.Store != nil {
		opts = append(opts, chat.WithStore(cfg.Store))
	}

	return &runner{
		session: chat.NewSession(cfg.Channel, cfg.IDs, opts...),
		output:  NewOutput(cfg.Stdout, cfg.Stderr, renderer),
		config:  cfg,
		log:     logger.WithComponent("headless"),
	}, nil
}

// run connects, sends prompt and prints the first reply
func (r *runner) run(ctx context.Context, prompt string) error {
	if err := r.session.Connect(ctx); err != nil {
		r.output.Error(err.Error())
		return err
	}

	sent, ok := r.session.Send(prompt)
	if !ok {
		return fmt.Errorf("prompt cannot be empty in headless mode")
	}
	r.log.Debug("Prompt sent", "id", sent.ID, "session_id", r.session.SessionID())

	reply, err := r.awaitReply(ctx, sent.ID)
	if err != nil {
		if cause := r.session.Err(); cause != nil {
			err = fmt.Errorf("%w (%v)", err, cause)
		}
		r.output.Error(err.Error())
		return err
	}

	r.output.Message(reply)
	r.log.Debug("Reply received", "id", reply.ID, "kind", reply.Kind)

	if reply.IsError() {
		return fmt.Errorf("agent reported an error: %s", reply.Text)
	}
	return nil
}

func (r *runner) awaitReply(ctx context.Context, sentID uint64) (chat.Message, error) {
	// A write that failed clears pending without an answer.
	if !r.session.IsPending() && len(r.session.After(sentID)) == 0 {
		return chat.Message{}, fmt.Errorf("failed to deliver prompt: %w", ErrNoReply)
	}

	watcher := newReplyWatcher(r.session, sentID, func() {
		r.output.Note("Sherpa is thinking…")
	})
	return watcher.wait(ctx, r.config.Timeout)
}

// cleanup tears the session down
func (r *runner) cleanup() {
	if err := r.session.Close(); err != nil {
		r.log.Warn("Cleanup failed", "error", err)
	}
}
