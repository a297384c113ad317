package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/killallgit/sherpa/pkg/logger"
	"github.com/killallgit/sherpa/pkg/protocol"
	"github.com/killallgit/sherpa/pkg/session"
	"github.com/killallgit/sherpa/pkg/transport"
)

// State is the connection state of a Session
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrSessionClosed is returned by Connect on a session that has already
// left the connecting state
var ErrSessionClosed = errors.New("session closed")

// View is a consistent snapshot of a Session
type View struct {
	State    State
	Pending  bool
	Messages []Message
}

// IsConnected reports whether the channel was open when the view was taken
func (v View) IsConnected() bool {
	return v.State == StateOpen
}

// Session bridges one transport channel to an append-only transcript.
// All state is written under one lock: by channel callbacks, by Send and
// by Close.
type Session struct {
	channel   transport.Channel
	sessionID string
	clock     func() time.Time
	store     Store
	log       *logger.Logger

	mu         sync.Mutex
	state      State
	pending    bool
	torn       bool
	lastErr    error
	transcript Transcript
	updates    chan struct{}
}

// Option configures a Session
type Option func(*Session)

// WithGreeting appends an agent greeting as the first entry of an empty
// transcript. A blank greeting is ignored.
func WithGreeting(text string) Option {
	return func(s *Session) {
		if strings.TrimSpace(text) == "" || s.transcript.Len() > 0 {
			return
		}
		s.transcript, _ = s.transcript.Append(NewAgentMessage(KindPlain, text, s.clock()))
	}
}

// WithHistory seeds the transcript with earlier messages
func WithHistory(messages []Message) Option {
	return func(s *Session) {
		s.transcript = NewTranscript(messages)
	}
}

// WithStore persists every message appended after construction
func WithStore(store Store) Option {
	return func(s *Session) {
		s.store = store
	}
}

// WithClock overrides the timestamp source
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

// NewSession creates a session in the connecting state. Options apply in
// order, so WithHistory must precede WithGreeting.
func NewSession(ch transport.Channel, ids session.Provider, opts ...Option) *Session {
	s := &Session{
		channel:   ch,
		sessionID: ids.SessionID(),
		clock:     time.Now,
		log:       logger.WithComponent("chat_session"),
		state:     StateConnecting,
		updates:   make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SessionID returns the id sent with outbound frames
func (s *Session) SessionID() string {
	return s.sessionID
}

// Connect registers the frame handlers and opens the channel. A failed
// open leaves the session closed.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateConnecting || s.torn {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()

	s.channel.OnOpen(s.handleOpen)
	s.channel.OnMessage(s.HandleFrame)
	s.channel.OnClose(s.handleClose)

	if err := s.channel.Open(ctx); err != nil {
		s.mu.Lock()
		s.toClosedLocked(err)
		s.mu.Unlock()
		s.log.Warn("Failed to connect", "error", err)
		return fmt.Errorf("failed to connect: %w", err)
	}

	return nil
}

func (s *Session) handleOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.torn || s.state != StateConnecting {
		return
	}
	s.state = StateOpen
	s.log.Debug("Session open", "session_id", s.sessionID)
	s.notifyLocked()
}

func (s *Session) handleClose(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.torn {
		return
	}
	if err != nil {
		s.log.Warn("Channel closed", "error", err)
	}
	s.toClosedLocked(err)
}

func (s *Session) toClosedLocked(err error) {
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	s.pending = false
	s.lastErr = err
	s.notifyLocked()
}

// Send appends text as a user message and writes it to the channel. Blank
// text is ignored; anything else is sent as typed. While the channel is not open the message is still
// echoed locally but nothing is written and no reply is awaited. The
// returned bool reports whether a message was appended.
func (s *Session) Send(text string) (Message, bool) {
	if strings.TrimSpace(text) == "" {
		return Message{}, false
	}

	s.mu.Lock()
	if s.torn {
		s.mu.Unlock()
		return Message{}, false
	}
	msg := s.appendLocked(NewUserMessage(text, s.clock()))
	open := s.state == StateOpen
	if open {
		s.pending = true
	}
	s.notifyLocked()
	s.mu.Unlock()

	if !open {
		s.log.Warn("Message not delivered, channel is not open", "id", msg.ID)
		return msg, true
	}

	frame, err := protocol.EncodeOutbound(text, s.sessionID)
	if err == nil {
		err = s.channel.Send(frame)
	}
	if err != nil {
		s.log.Error("Failed to send message", "id", msg.ID, "error", err)
		s.mu.Lock()
		s.pending = false
		s.notifyLocked()
		s.mu.Unlock()
		return msg, true
	}

	s.log.Debug("Message sent", "id", msg.ID, "length", len(text))
	return msg, true
}

// HandleFrame classifies one raw inbound frame. Frames that cannot be
// decoded, and every frame after Close, are dropped.
func (s *Session) HandleFrame(raw []byte) {
	frame, err := protocol.DecodeFrame(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.torn {
		s.log.Debug("Dropped frame after teardown")
		return
	}
	if err != nil {
		s.log.Debug("Dropped frame", "error", err, "size", len(raw))
		return
	}

	cl := Classify(frame)
	switch cl.Effect {
	case EffectThinking:
		s.pending = true
	case EffectAppend:
		msg := NewAgentMessage(cl.Kind, cl.Text, s.clock())
		msg.Payload = cl.Payload
		s.appendLocked(msg)
		s.pending = false
	default:
		s.log.Debug("Dropped frame", "type", frame.Type, "status", frame.Status)
		return
	}

	s.notifyLocked()
}

func (s *Session) appendLocked(msg Message) Message {
	var stored Message
	s.transcript, stored = s.transcript.Append(msg)

	if s.store != nil {
		if err := s.store.Append(stored); err != nil {
			s.log.Warn("Failed to persist message", "id", stored.ID, "error", err)
		}
	}

	return stored
}

// Close tears the session down. The channel is closed and later frames are
// discarded. Updates is closed once teardown completes.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.torn {
		s.mu.Unlock()
		return nil
	}
	s.torn = true
	s.state = StateClosed
	s.pending = false
	s.mu.Unlock()

	err := s.channel.Close()

	s.mu.Lock()
	close(s.updates)
	s.mu.Unlock()

	s.log.Debug("Session closed", "session_id", s.sessionID)
	if err != nil {
		return fmt.Errorf("failed to close channel: %w", err)
	}
	return nil
}

// notifyLocked signals Updates without blocking. Signals coalesce.
func (s *Session) notifyLocked() {
	if s.torn {
		return
	}
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// Updates receives a value whenever the view may have changed. It is
// closed by Close.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

// Snapshot returns state, pending flag and transcript read together
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return View{
		State:    s.state,
		Pending:  s.pending,
		Messages: s.transcript.Messages(),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) IsConnected() bool {
	return s.State() == StateOpen
}

func (s *Session) IsPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Transcript returns a copy of the messages in insertion order
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Messages()
}

// After returns the messages appended after id
func (s *Session) After(id uint64) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.After(id)
}

// Err returns the error that closed the channel, if any
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
