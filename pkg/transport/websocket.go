package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// closeGrace bounds how long a close frame may take to write
const closeGrace = time.Second

// WebSocket is a Channel carrying one frame per text message
type WebSocket struct {
	*channel
	url string
}

// NewWebSocket returns an unopened websocket channel for rawURL
func NewWebSocket(rawURL string, opts Options) *WebSocket {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.HandshakeTimeout,
	}

	ws := &WebSocket{url: rawURL}
	ws.channel = newChannel("transport.websocket", func(ctx context.Context) (frameConn, error) {
		conn, resp, err := dialer.DialContext(ctx, rawURL, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			return nil, fmt.Errorf("websocket dial %s: %w", rawURL, err)
		}
		return &wsConn{conn: conn}, nil
	}, opts.PingInterval)

	return ws
}

// URL returns the endpoint the channel dials
func (w *WebSocket) URL() string {
	return w.url
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadFrame() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, errPeerClosed
		}
		return nil, err
	}
	return data, nil
}

func (c *wsConn) WriteFrame(frame []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *wsConn) Ping(deadline time.Time) error {
	return c.conn.WriteControl(websocket.PingMessage, nil, deadline)
}

func (c *wsConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
	return c.conn.Close()
}
