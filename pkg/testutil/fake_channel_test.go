package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/killallgit/sherpa/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeChannelLifecycle(t *testing.T) {
	ch := NewFakeChannel()

	var events []string
	ch.OnOpen(func() { events = append(events, "open") })
	ch.OnMessage(func(b []byte) { events = append(events, "msg:"+string(b)) })
	ch.OnClose(func(err error) { events = append(events, "close") })

	assert.ErrorIs(t, ch.Send([]byte("x")), transport.ErrNotOpen)

	require.NoError(t, ch.Open(context.Background()))
	require.NoError(t, ch.Send([]byte("hello")))
	ch.Deliver("frame")
	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())

	assert.Equal(t, []string{"open", "msg:frame", "close"}, events)
	assert.Equal(t, [][]byte{[]byte("hello")}, ch.Sent())
	assert.ErrorIs(t, ch.Send([]byte("y")), transport.ErrClosed)
	assert.True(t, ch.IsClosed())
}

func TestFakeChannelOpenError(t *testing.T) {
	ch := NewFakeChannel()
	ch.OpenErr = errors.New("refused")

	closed := false
	ch.OnClose(func(error) { closed = true })

	assert.EqualError(t, ch.Open(context.Background()), "refused")
	ch.Drop(errors.New("late"))
	assert.False(t, closed)
	assert.Zero(t, ch.SentCount())
}

func TestFakeChannelDrop(t *testing.T) {
	ch := NewFakeChannel()

	var got error
	ch.OnClose(func(err error) { got = err })

	require.NoError(t, ch.Open(context.Background()))
	ch.Drop(errors.New("reset by peer"))

	assert.EqualError(t, got, "reset by peer")
}
