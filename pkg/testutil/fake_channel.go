package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/killallgit/sherpa/pkg/transport"
)

// FakeChannel implements transport.Channel in memory. Frames are delivered
// synchronously on the caller's goroutine and every write is recorded.
type FakeChannel struct {
	// OpenErr makes Open fail without firing any handler
	OpenErr error
	// SendErr makes every Send fail after the open check
	SendErr error

	mu        sync.Mutex
	opened    bool
	closed    bool
	closes    int
	sent      [][]byte
	onMessage func([]byte)
	onOpen    func()
	onClose   func(error)
}

var _ transport.Channel = (*FakeChannel)(nil)

// NewFakeChannel creates an unopened fake channel
func NewFakeChannel() *FakeChannel {
	return &FakeChannel{}
}

func (f *FakeChannel) OnMessage(fn func([]byte)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onMessage = fn
}

func (f *FakeChannel) OnOpen(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onOpen = fn
}

func (f *FakeChannel) OnClose(fn func(error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onClose = fn
}

// Open marks the channel open and fires OnOpen
func (f *FakeChannel) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	if f.closed || f.opened {
		f.mu.Unlock()
		return transport.ErrClosed
	}
	if f.OpenErr != nil {
		f.closed = true
		f.mu.Unlock()
		return f.OpenErr
	}
	f.opened = true
	fn := f.onOpen
	f.mu.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

// Send records the frame
func (f *FakeChannel) Send(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return transport.ErrClosed
	}
	if !f.opened {
		return transport.ErrNotOpen
	}
	if f.SendErr != nil {
		return f.SendErr
	}

	f.sent = append(f.sent, append([]byte(nil), frame...))
	return nil
}

// Close marks the channel closed and fires OnClose once with a nil error
func (f *FakeChannel) Close() error {
	f.finish(nil)
	return nil
}

// Drop simulates the peer or network ending the connection
func (f *FakeChannel) Drop(err error) {
	f.finish(err)
}

func (f *FakeChannel) finish(err error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	wasOpen := f.opened
	f.closed = true
	f.closes++
	fn := f.onClose
	f.mu.Unlock()

	if wasOpen && fn != nil {
		fn(err)
	}
}

// Deliver hands a raw frame to the OnMessage handler. It ignores the
// open state so tests can model frames that arrive late.
func (f *FakeChannel) Deliver(frame string) {
	f.mu.Lock()
	fn := f.onMessage
	f.mu.Unlock()

	if fn != nil {
		fn([]byte(frame))
	}
}

// DeliverJSON marshals v and delivers it
func (f *FakeChannel) DeliverJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.Deliver(string(data))
	return nil
}

// Sent returns a copy of every frame written so far
func (f *FakeChannel) Sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([][]byte, len(f.sent))
	for i, frame := range f.sent {
		out[i] = append([]byte(nil), frame...)
	}
	return out
}

// SentCount returns the number of frames written
func (f *FakeChannel) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// IsClosed reports whether Close or Drop has run
func (f *FakeChannel) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
