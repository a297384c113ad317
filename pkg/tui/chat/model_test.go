package chat

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/killallgit/sherpa/pkg/chat"
	"github.com/killallgit/sherpa/pkg/render"
	"github.com/killallgit/sherpa/pkg/session"
	"github.com/killallgit/sherpa/pkg/testutil"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

type fakeConnector struct {
	mu       sync.Mutex
	allow    bool
	openErr  error
	channels []*testutil.FakeChannel
	seeds    [][]chat.Message
}

func (c *fakeConnector) Connect(ctx context.Context, seed []chat.Message) (*chat.Session, error) {
	c.mu.Lock()
	ch := testutil.NewFakeChannel()
	ch.OpenErr = c.openErr
	c.channels = append(c.channels, ch)
	c.seeds = append(c.seeds, seed)
	c.mu.Unlock()

	s := chat.NewSession(ch, session.NewProvider(session.DemoSessionID),
		chat.WithHistory(seed),
		chat.WithGreeting("Hi, I'm Sherpa."),
	)
	return s, s.Connect(ctx)
}

func (c *fakeConnector) Allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allow
}

func (c *fakeConnector) last() *testutil.FakeChannel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[len(c.channels)-1]
}

func testOptions() Options {
	return Options{Render: render.Options{MarkdownStyle: "notty", CodeFormatter: "noop", Width: 80}}
}

func sized(t *testing.T, conn *fakeConnector) chatModel {
	t.Helper()

	m := NewChatModel(context.Background(), conn, testOptions())
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(chatModel)
}

// connected returns a sized model showing an open session
func connected(t *testing.T, conn *fakeConnector) chatModel {
	t.Helper()

	m := sized(t, conn)
	msg := connectCmd(m.ctx, conn, nil)()
	ready, ok := msg.(sessionReadyMsg)
	require.True(t, ok, "expected sessionReadyMsg, got %T", msg)

	updated, _ := m.Update(ready)
	return updated.(chatModel)
}

func TestSessionReadyShowsGreeting(t *testing.T) {
	conn := &fakeConnector{}
	m := connected(t, conn)

	require.NotNil(t, m.Session())
	assert.True(t, m.view.IsConnected())
	require.Len(t, m.view.Messages, 1)
	assert.Equal(t, "Hi, I'm Sherpa.", m.view.Messages[0].Text)
	assert.Contains(t, m.View(), "session "+session.DemoSessionID)
}

func TestEnterSendsMessage(t *testing.T) {
	conn := &fakeConnector{}
	m := connected(t, conn)

	m.textarea.SetValue("Review PR #42")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(chatModel)

	assert.Equal(t, 1, conn.last().SentCount())
	assert.Empty(t, m.textarea.Value())
	assert.True(t, m.view.Pending)
	require.Len(t, m.view.Messages, 2)
	assert.Equal(t, "Review PR #42", m.view.Messages[1].Text)
	assert.True(t, m.view.Messages[1].IsUser())
}

func TestEnterWithEmptyInputSendsNothing(t *testing.T) {
	conn := &fakeConnector{}
	m := connected(t, conn)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(chatModel)

	assert.Zero(t, conn.last().SentCount())
	assert.Len(t, m.view.Messages, 1)
}

func TestSendBeforeSessionIsReady(t *testing.T) {
	conn := &fakeConnector{}
	m := sized(t, conn)

	m.textarea.SetValue("hello")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(chatModel)

	assert.Nil(t, m.Session())
	assert.Contains(t, m.statusBar.View(), "Still connecting")
}

func TestSessionUpdateRendersReply(t *testing.T) {
	conn := &fakeConnector{}
	m := connected(t, conn)
	ch := conn.last()

	ch.Deliver(`{"type":"response","content":{"reply":"Happy to help."}}`)
	updated, _ := m.Update(sessionUpdateMsg{session: m.Session()})
	m = updated.(chatModel)

	require.Len(t, m.view.Messages, 2)
	assert.Equal(t, chat.KindReply, m.view.Messages[1].Kind)
	assert.Contains(t, m.viewport.View(), "Happy to help.")
}

func TestStaleSessionUpdateIgnored(t *testing.T) {
	conn := &fakeConnector{}
	m := connected(t, conn)

	other := chat.NewSession(testutil.NewFakeChannel(), session.NewProvider("other"))
	updated, cmd := m.Update(sessionUpdateMsg{session: other})

	assert.Nil(t, cmd)
	assert.Equal(t, m.Session(), updated.(chatModel).Session())
}

func TestConnectFailureShowsNotice(t *testing.T) {
	conn := &fakeConnector{openErr: errors.New("refused")}
	m := connected(t, conn)

	assert.Error(t, m.err)
	assert.False(t, m.view.IsConnected())
	assert.Contains(t, m.statusBar.View(), "Connection failed")
}

func TestReconnectReplacesClosedSession(t *testing.T) {
	conn := &fakeConnector{allow: true}
	m := connected(t, conn)
	old := m.Session()

	conn.last().Drop(errors.New("network down"))
	updated, _ := m.Update(sessionUpdateMsg{session: old})
	m = updated.(chatModel)
	require.Equal(t, chat.StateClosed, m.view.State)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = updated.(chatModel)

	assert.NotNil(t, cmd)
	assert.Nil(t, m.Session())
	for range old.Updates() {
	}
	assert.Equal(t, chat.StateClosed, old.State())

	// The new session is seeded from the old transcript.
	msg := connectCmd(m.ctx, conn, old.Transcript())()
	updated, _ = m.Update(msg)
	m = updated.(chatModel)

	assert.True(t, m.view.IsConnected())
	require.Len(t, m.view.Messages, 1)
	assert.Equal(t, "Hi, I'm Sherpa.", m.view.Messages[0].Text)
}

func TestReconnectThrottled(t *testing.T) {
	conn := &fakeConnector{allow: false}
	m := connected(t, conn)
	old := m.Session()

	conn.last().Drop(errors.New("network down"))
	updated, _ := m.Update(sessionUpdateMsg{session: old})
	m = updated.(chatModel)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = updated.(chatModel)

	assert.Same(t, old, m.Session())
	assert.Contains(t, m.statusBar.View(), "throttled")
}

func TestReconnectIgnoredWhileOpen(t *testing.T) {
	conn := &fakeConnector{allow: true}
	m := connected(t, conn)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})

	assert.Nil(t, cmd)
	assert.Same(t, m.Session(), updated.(chatModel).Session())
}

func TestDoubleEscClearsInput(t *testing.T) {
	m := connected(t, &fakeConnector{})
	m.textarea.SetValue("draft")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(chatModel)
	assert.Equal(t, "draft", m.textarea.Value())

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(chatModel)
	assert.Empty(t, m.textarea.Value())
}

func TestWaitForUpdateEndsOnClose(t *testing.T) {
	m := connected(t, &fakeConnector{})
	s := m.Session()

	// Drain the pending signal from connect.
	select {
	case <-s.Updates():
	case <-time.After(time.Second):
	}
	require.NoError(t, s.Close())

	msg := waitForUpdate(s)()
	assert.Equal(t, sessionEndedMsg{session: s}, msg)
}

func TestTimestampsInHeader(t *testing.T) {
	opts := testOptions()
	opts.ShowTimestamps = true
	m := NewChatModel(context.Background(), &fakeConnector{}, opts)

	msg := chat.NewUserMessage("hi", time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC))
	assert.Contains(t, m.messageHeader(msg), "09:30")
	assert.Contains(t, m.messageHeader(msg), "You")
}

func TestWindowResize(t *testing.T) {
	m := connected(t, &fakeConnector{})

	assert.Equal(t, 80, m.renderer.Width())

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 30})
	m = updated.(chatModel)

	assert.Equal(t, 60, m.viewport.Width)
	// header, status bar and a one-line input
	assert.Equal(t, 30-3, m.viewport.Height)
	assert.Equal(t, 58, m.renderer.Width())
}

func TestWrappedNoticeShrinksTranscript(t *testing.T) {
	m := connected(t, &fakeConnector{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 24, Height: 20})
	m = updated.(chatModel)
	require.Equal(t, 20-3, m.viewport.Height)

	m, _ = m.notice("Reconnect throttled, try again shortly")

	statusHeight := lipgloss.Height(m.statusBar.View())
	assert.Greater(t, statusHeight, 1)
	assert.Equal(t, 20-2-statusHeight, m.viewport.Height)
}

func TestInputGrowsWithContent(t *testing.T) {
	m := connected(t, &fakeConnector{})
	before := m.viewport.Height

	m.textarea.SetValue("line one\nline two\nline three")
	m.layout()

	assert.Equal(t, 3, m.textarea.Height())
	assert.Equal(t, before-2, m.viewport.Height)
}

func TestInputLines(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  int
	}{
		{name: "empty", text: "", width: 40, want: 1},
		{name: "short line", text: "fix this bug", width: 40, want: 1},
		{name: "wraps", text: strings.Repeat("x", 81), width: 40, want: 3},
		{name: "blank lines count", text: "a\n\nb", width: 40, want: 3},
		{name: "wide runes", text: strings.Repeat("界", 25), width: 40, want: 2},
		{name: "clamped", text: strings.Repeat("x\n", 30), width: 40, want: maxInputLines},
		{name: "unknown width", text: strings.Repeat("x", 100), width: 0, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inputLines(tt.text, tt.width))
		})
	}
}
