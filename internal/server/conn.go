// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/jeranaias/rigrun-slots/internal/messenger"
)

// ============================================================================
// CONNECTION
// ============================================================================

// conn is one foreground session.
type conn struct {
	id      string
	ws      *websocket.Conn
	send    chan messenger.Envelope
	limiter *rate.Limiter
	handler messenger.Handler
	logger  *slog.Logger
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &conn{
		id:      uuid.NewString(),
		ws:      ws,
		send:    make(chan messenger.Envelope, sendBuffer),
		limiter: rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst),
		handler: s.handler,
	}
	c.logger = s.logger.With("conn", c.id)

	s.conns.Add(1)
	s.mu.Lock()
	s.active++
	s.mu.Unlock()
	connectionsActive.Inc()
	c.logger.Info("session opened", "remote", r.RemoteAddr)

	// The session outlives the upgrade request and ends on Shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-s.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump(ctx)
	}()
	c.readPump(ctx, writerDone)

	cancel()
	<-writerDone
	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	connectionsActive.Dec()
	s.conns.Done()
	c.logger.Info("session closed")
}

// readPump decodes envelopes and dispatches them one at a time, which keeps
// the session's messages in order.
func (c *conn) readPump(ctx context.Context, writerDone <-chan struct{}) {
	defer c.ws.Close()

	c.ws.SetReadLimit(MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env messenger.Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("read failed", "error", err)
			}
			return
		}
		envelopesTotal.WithLabelValues(string(env.Kind)).Inc()

		if !c.limiter.Allow() {
			throttledTotal.Inc()
			if err := c.limiter.Wait(ctx); err != nil {
				return
			}
		}

		switch env.Kind {
		case messenger.KindRequest, messenger.KindNotify:
		default:
			c.logger.Warn("ignored envelope", "kind", env.Kind)
			continue
		}

		resp, err := messenger.Dispatch(ctx, c.handler, env)
		if resp == nil {
			if err != nil {
				c.logger.Warn("notification failed", "error", err)
			}
			continue
		}

		select {
		case c.send <- *resp:
		case <-writerDone:
			return
		case <-ctx.Done():
			return
		}
	}
}

// writePump serialises writes and keeps the connection alive with pings.
func (c *conn) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case env := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(env); err != nil {
				c.logger.Warn("write failed", "error", err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}
