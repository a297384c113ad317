package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
)

const maxLineSize = 1 << 20

var errEmbeddedNewline = errors.New("frame contains a newline")

// Stream is a Channel carrying newline-delimited frames over TCP
type Stream struct {
	*channel
	addr string
}

// NewStream returns an unopened stream channel for host:port
func NewStream(addr string, opts Options) *Stream {
	dialer := &net.Dialer{Timeout: opts.HandshakeTimeout}

	s := &Stream{addr: addr}
	s.channel = newChannel("transport.stream", func(ctx context.Context) (frameConn, error) {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("stream dial %s: %w", addr, err)
		}
		return newLineConn(conn), nil
	}, 0)

	return s
}

// Addr returns the address the channel dials
func (s *Stream) Addr() string {
	return s.addr
}

type lineConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

func newLineConn(conn net.Conn) *lineConn {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &lineConn{conn: conn, scanner: scanner}
}

// ReadFrame returns the next non-blank line
func (c *lineConn) ReadFrame() ([]byte, error) {
	for c.scanner.Scan() {
		line := bytes.TrimSpace(c.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		frame := make([]byte, len(line))
		copy(frame, line)
		return frame, nil
	}
	if err := c.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, errPeerClosed
}

func (c *lineConn) WriteFrame(frame []byte) error {
	if bytes.IndexByte(frame, '\n') >= 0 {
		return errEmbeddedNewline
	}
	line := make([]byte, 0, len(frame)+1)
	line = append(line, frame...)
	line = append(line, '\n')
	_, err := c.conn.Write(line)
	return err
}

func (c *lineConn) Close() error {
	return c.conn.Close()
}
