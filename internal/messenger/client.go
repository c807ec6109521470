// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package messenger connects the foreground context to the background
// context.
package messenger

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jeranaias/rigrun-slots/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendSize = 256
)

// =============================================================================
// WEBSOCKET CLIENT
// =============================================================================

// Client is a Messenger backed by a WebSocket connection to the daemon.
// A single write goroutine keeps frames in send order.
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger
	send   chan []byte

	mu      sync.Mutex
	pending map[string]chan Envelope

	closing   chan struct{}
	closeReq  sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

// ClientOption customises Dial.
type ClientOption func(*clientConfig)

type clientConfig struct {
	logger *slog.Logger
	dialer *websocket.Dialer
}

// WithClientLogger sets the logger used for dropped messages and
// connection errors.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDialer overrides websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) ClientOption {
	return func(c *clientConfig) {
		if d != nil {
			c.dialer = d
		}
	}
}

// Dial connects to the daemon's WebSocket endpoint.
func Dial(ctx context.Context, url string, opts ...ClientOption) (*Client, error) {
	cfg := clientConfig{logger: logging.Discard(), dialer: websocket.DefaultDialer}
	for _, opt := range opts {
		opt(&cfg)
	}

	conn, _, err := cfg.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, transportErr("dial %s: %v", url, err)
	}

	c := &Client{
		conn:    conn,
		logger:  cfg.logger,
		send:    make(chan []byte, clientSendSize),
		pending: make(map[string]chan Envelope),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.readPump()
	go c.writePump()
	return c, nil
}

// Done is closed when the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Send queues msg as a notification. It never blocks; a full queue or a
// dead connection drops the message.
func (c *Client) Send(msg Message) {
	data, err := json.Marshal(Envelope{Kind: KindNotify, Message: &msg})
	if err != nil {
		c.logger.Warn("dropped unencodable message", "type", msg.Type, "error", err)
		return
	}
	select {
	case <-c.closing:
		c.logger.Warn("dropped message on closed connection", "type", msg.Type)
		return
	case <-c.done:
		c.logger.Warn("dropped message on closed connection", "type", msg.Type)
		return
	default:
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("dropped message, send queue full", "type", msg.Type)
	}
}

// SendAsync sends msg as a request and waits for the matching response.
func (c *Client) SendAsync(ctx context.Context, msg Message) (json.RawMessage, error) {
	id := uuid.NewString()
	data, err := json.Marshal(Envelope{ID: id, Kind: KindRequest, Message: &msg})
	if err != nil {
		return nil, err
	}

	reply := make(chan Envelope, 1)
	c.mu.Lock()
	c.pending[id] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	select {
	case c.send <- data:
	case <-ctx.Done():
		return nil, transportErr("%s: %v", msg.Type, ctx.Err())
	case <-c.done:
		return nil, ErrClosed
	}

	select {
	case env := <-reply:
		if env.Error != nil {
			return nil, env.Error
		}
		return env.Data, nil
	case <-ctx.Done():
		return nil, transportErr("%s: %v", msg.Type, ctx.Err())
	case <-c.done:
		return nil, ErrClosed
	}
}

// Close flushes queued notifications, sends a close frame and tears the
// connection down.
func (c *Client) Close() error {
	c.closeReq.Do(func() { close(c.closing) })
	select {
	case <-c.done:
	case <-time.After(writeWait):
		c.shutdown()
	}
	return nil
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readPump routes response frames to their waiting requests.
func (c *Client) readPump() {
	defer c.shutdown()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("connection lost", "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("ignoring malformed frame", "error", err)
			continue
		}
		if env.Kind != KindResponse {
			continue
		}

		c.mu.Lock()
		reply, ok := c.pending[env.ID]
		c.mu.Unlock()
		if ok {
			select {
			case reply <- env:
			default:
			}
		}
	}
}

// writePump is the only writer of data frames.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn("write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.closing:
			c.drain()
			return
		case <-c.done:
			return
		}
	}
}

// drain writes whatever is still queued, then the close frame.
func (c *Client) drain() {
	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
