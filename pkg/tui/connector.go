package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/killallgit/sherpa/pkg/chat"
	"github.com/killallgit/sherpa/pkg/logger"
	"github.com/killallgit/sherpa/pkg/session"
	"github.com/killallgit/sherpa/pkg/transport"
	"golang.org/x/time/rate"
)

// ConnectorConfig configures a Connector
type ConnectorConfig struct {
	// Dial returns a fresh unopened channel for each session
	Dial     func() (transport.Channel, error)
	IDs      session.Provider
	Store    chat.Store
	Greeting string
	// ReconnectInterval is the minimum spacing between manual reconnects
	ReconnectInterval time.Duration
}

// Connector builds sessions for the chat view and throttles reconnects.
// Every session it builds uses a new channel.
type Connector struct {
	cfg     ConnectorConfig
	limiter *rate.Limiter
	log     *logger.Logger

	mu      sync.Mutex
	current *chat.Session
}

// NewConnector creates a Connector
func NewConnector(cfg ConnectorConfig) *Connector {
	limit := rate.Inf
	if cfg.ReconnectInterval > 0 {
		limit = rate.Every(cfg.ReconnectInterval)
	}

	return &Connector{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger.WithComponent("connector"),
	}
}

// Connect builds a session seeded with seed and opens it
func (c *Connector) Connect(ctx context.Context, seed []chat.Message) (*chat.Session, error) {
	ch, err := c.cfg.Dial()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	var opts []chat.Option
	if len(seed) > 0 {
		opts = append(opts, chat.WithHistory(seed))
	}
	opts = append(opts, chat.WithGreeting(c.cfg.Greeting))
	if c.cfg.Store != nil {
		opts = append(opts, chat.WithStore(c.cfg.Store))
	}

	s := chat.NewSession(ch, c.cfg.IDs, opts...)

	c.mu.Lock()
	previous := c.current
	c.current = s
	c.mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}

	c.log.Info("Connecting", "session_id", s.SessionID(), "seeded", len(seed))
	return s, s.Connect(ctx)
}

// Allow reports whether a reconnect may happen now, consuming the allowance
func (c *Connector) Allow() bool {
	return c.limiter.Allow()
}

// Close tears down the most recent session
func (c *Connector) Close() error {
	c.mu.Lock()
	current := c.current
	c.current = nil
	c.mu.Unlock()

	if current == nil {
		return nil
	}
	return current.Close()
}
