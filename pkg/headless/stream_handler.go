package headless

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/killallgit/sherpa/pkg/chat"
)

// ErrNoReply is returned when the session ends or times out before the
// agent answers
var ErrNoReply = errors.New("no reply received")

// replyWatcher follows a session's update stream until the first agent
// entry after a given message arrives
type replyWatcher struct {
	session    *chat.Session
	after      uint64
	onThinking func()
	thinking   bool
}

func newReplyWatcher(s *chat.Session, after uint64, onThinking func()) *replyWatcher {
	return &replyWatcher{session: s, after: after, onThinking: onThinking}
}

// wait blocks until a reply, session closure, timeout or ctx cancellation
func (w *replyWatcher) wait(ctx context.Context, timeout time.Duration) (chat.Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if msg, ok := w.check(); ok {
			return msg, nil
		}
		if !w.session.IsConnected() {
			return chat.Message{}, fmt.Errorf("%w: connection closed", ErrNoReply)
		}

		select {
		case <-ctx.Done():
			return chat.Message{}, ctx.Err()
		case <-timer.C:
			return chat.Message{}, fmt.Errorf("%w: timed out after %s", ErrNoReply, timeout)
		case _, ok := <-w.session.Updates():
			if !ok {
				return chat.Message{}, fmt.Errorf("%w: session closed", ErrNoReply)
			}
		}
	}
}

// check looks for the reply and reports the thinking indicator once
func (w *replyWatcher) check() (chat.Message, bool) {
	view := w.session.Snapshot()

	for _, msg := range view.Messages {
		if msg.ID > w.after && msg.IsAgent() {
			return msg, true
		}
	}

	if view.Pending && view.IsConnected() && !w.thinking {
		w.thinking = true
		if w.onThinking != nil {
			w.onThinking()
		}
	}
	return chat.Message{}, false
}
