// Package transport provides the bidirectional frame channel the chat
// session runs on.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/killallgit/sherpa/pkg/logger"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotOpen is returned by Send before Open has succeeded
	ErrNotOpen = errors.New("channel not open")

	// ErrClosed is returned by Open and Send once the channel has closed
	ErrClosed = errors.New("channel closed")

	// ErrUnsupportedScheme is returned by Dial for URLs it cannot serve
	ErrUnsupportedScheme = errors.New("unsupported channel scheme")
)

// Channel is a bidirectional frame channel. Handlers must be registered
// before Open. Inbound frames are delivered one at a time, in arrival
// order, from a single goroutine. Close must not be called from a handler.
type Channel interface {
	Open(ctx context.Context) error
	Send(frame []byte) error
	OnMessage(fn func(frame []byte))
	OnOpen(fn func())
	OnClose(fn func(err error))
	Close() error
}

// Options configures a channel
type Options struct {
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
}

// Dial returns an unopened channel for rawURL. ws and wss use websocket
// frames; tcp uses newline-delimited frames.
func Dial(rawURL string, opts Options) (Channel, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid channel url: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		return NewWebSocket(rawURL, opts), nil
	case "tcp":
		if u.Host == "" {
			return nil, fmt.Errorf("invalid channel url %q: missing host", rawURL)
		}
		return NewStream(u.Host, opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// frameConn is one established connection that reads and writes whole frames
type frameConn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(frame []byte) error
	Close() error
}

// pinger is implemented by connections that support keepalive probes
type pinger interface {
	Ping(deadline time.Time) error
}

type dialFunc func(ctx context.Context) (frameConn, error)

type phase int

const (
	phaseIdle phase = iota
	phaseOpen
	phaseClosed
)

// channel owns the lifecycle shared by every Channel implementation
type channel struct {
	dial         dialFunc
	pingInterval time.Duration
	log          *logger.Logger

	handlersMu sync.RWMutex
	onMessage  func([]byte)
	onOpen     func()
	onClose    func(error)

	mu      sync.Mutex
	phase   phase
	conn    frameConn
	cancel  context.CancelFunc
	dialing bool
	closing bool
	done    chan struct{}

	writeMu sync.Mutex
}

func newChannel(component string, dial dialFunc, pingInterval time.Duration) *channel {
	return &channel{
		dial:         dial,
		pingInterval: pingInterval,
		log:          logger.WithComponent(component),
		done:         make(chan struct{}),
	}
}

func (c *channel) OnMessage(fn func([]byte)) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.onMessage = fn
}

func (c *channel) OnOpen(fn func()) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.onOpen = fn
}

func (c *channel) OnClose(fn func(error)) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.onClose = fn
}

// Open dials the connection, fires OnOpen and starts the read loop. It may
// be called once.
func (c *channel) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != phaseIdle || c.dialing {
		c.mu.Unlock()
		return ErrClosed
	}
	c.dialing = true
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.dialing = false
		c.phase = phaseClosed
		close(c.done)
		c.mu.Unlock()
		c.log.Warn("Channel dial failed", "error", err)
		return fmt.Errorf("failed to open channel: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.dialing = false
	if c.closing {
		// Close raced the dial.
		c.phase = phaseClosed
		close(c.done)
		c.mu.Unlock()
		cancel()
		_ = conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.cancel = cancel
	c.phase = phaseOpen
	c.mu.Unlock()

	c.log.Debug("Channel open")
	if fn := c.openHandler(); fn != nil {
		fn()
	}

	go c.run(runCtx, conn)
	return nil
}

func (c *channel) run(ctx context.Context, conn frameConn) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.readLoop(conn)
	})

	if p, ok := conn.(pinger); ok && c.pingInterval > 0 {
		g.Go(func() error {
			return c.pingLoop(gctx, p)
		})
	}

	// Unblock the reader when the ping loop fails.
	go func() {
		<-gctx.Done()
		_ = conn.Close()
	}()

	err := g.Wait()
	if errors.Is(err, errPeerClosed) {
		err = nil
	}

	c.mu.Lock()
	closing := c.closing
	c.phase = phaseClosed
	c.cancel()
	c.mu.Unlock()

	if closing {
		err = nil
	}
	if err != nil {
		c.log.Warn("Channel closed with error", "error", err)
	} else {
		c.log.Debug("Channel closed")
	}

	if fn := c.closeHandler(); fn != nil {
		fn(err)
	}
	close(c.done)
}

// readLoop always returns non-nil so the group stops the ping loop
func (c *channel) readLoop(conn frameConn) error {
	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			return err
		}
		if fn := c.messageHandler(); fn != nil {
			fn(frame)
		}
	}
}

func (c *channel) pingLoop(ctx context.Context, p pinger) error {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Ping(time.Now().Add(c.pingInterval)); err != nil {
				return fmt.Errorf("keepalive failed: %w", err)
			}
		}
	}
}

// Send writes one frame
func (c *channel) Send(frame []byte) error {
	c.mu.Lock()
	phase, conn := c.phase, c.conn
	c.mu.Unlock()

	switch phase {
	case phaseIdle:
		return ErrNotOpen
	case phaseClosed:
		return ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.WriteFrame(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// Close shuts the connection down and waits for the read loop to finish.
// OnClose fires with a nil error. Calling Close more than once is safe.
func (c *channel) Close() error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		<-c.done
		return nil
	}
	c.closing = true
	phase, conn, cancel := c.phase, c.conn, c.cancel
	if phase == phaseIdle {
		if !c.dialing {
			c.phase = phaseClosed
			close(c.done)
		}
		// A dial in flight observes closing and tears itself down.
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if phase == phaseOpen {
		cancel()
		_ = conn.Close()
	}
	<-c.done
	return nil
}

func (c *channel) messageHandler() func([]byte) {
	c.handlersMu.RLock()
	defer c.handlersMu.RUnlock()
	return c.onMessage
}

func (c *channel) openHandler() func() {
	c.handlersMu.RLock()
	defer c.handlersMu.RUnlock()
	return c.onOpen
}

func (c *channel) closeHandler() func(error) {
	c.handlersMu.RLock()
	defer c.handlersMu.RUnlock()
	return c.onClose
}

// errPeerClosed is returned by ReadFrame when the peer ended the
// connection cleanly
var errPeerClosed = errors.New("peer closed connection")
