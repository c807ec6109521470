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

	"github.com/jeranaias/rigrun-slots/internal/logging"
)

// DefaultPipeBuffer is the queue length of a Pipe.
const DefaultPipeBuffer = 256

// =============================================================================
// PIPE
// =============================================================================

// Pipe is an in-process transport. Requests and notifications share one
// queue that a single goroutine drains, so the handler sees messages in
// send order and never concurrently.
type Pipe struct {
	handler Handler
	logger  *slog.Logger
	queue   chan pipeItem

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

type pipeItem struct {
	env   Envelope
	reply chan Envelope
}

// PipeOption customises a Pipe.
type PipeOption func(*pipeConfig)

type pipeConfig struct {
	logger *slog.Logger
	buffer int
}

// WithPipeLogger sets the logger used for dropped messages.
func WithPipeLogger(logger *slog.Logger) PipeOption {
	return func(c *pipeConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPipeBuffer sets the queue length.
func WithPipeBuffer(n int) PipeOption {
	return func(c *pipeConfig) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// NewPipe starts a pipe delivering to h.
func NewPipe(h Handler, opts ...PipeOption) *Pipe {
	cfg := pipeConfig{logger: logging.Discard(), buffer: DefaultPipeBuffer}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipe{
		handler: h,
		logger:  cfg.logger,
		queue:   make(chan pipeItem, cfg.buffer),
		ctx:     ctx,
		cancel:  cancel,
	}
	go p.run()
	return p
}

func (p *Pipe) run() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case item := <-p.queue:
			p.deliver(item)
		}
	}
}

func (p *Pipe) deliver(item pipeItem) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("handler panicked", "type", item.env.Message.Type, "panic", r)
			if item.reply != nil {
				item.reply <- Envelope{ID: item.env.ID, Kind: KindResponse, Error: NewRemoteError(CodeInternal, "handler panicked")}
			}
		}
	}()

	resp, err := Dispatch(p.ctx, p.handler, item.env)
	if item.reply == nil {
		if err != nil {
			p.logger.Warn("notification failed", "type", item.env.Message.Type, "error", err)
		}
		return
	}
	item.reply <- *resp
}

// Send enqueues msg without blocking. A full or closed pipe drops it.
func (p *Pipe) Send(msg Message) {
	item := pipeItem{env: Envelope{Kind: KindNotify, Message: &msg}}
	select {
	case <-p.ctx.Done():
		p.logger.Warn("dropped message on closed pipe", "type", msg.Type)
		return
	default:
	}
	select {
	case p.queue <- item:
	default:
		p.logger.Warn("dropped message, pipe full", "type", msg.Type)
	}
}

// SendAsync enqueues msg and waits for the handler's reply.
func (p *Pipe) SendAsync(ctx context.Context, msg Message) (json.RawMessage, error) {
	reply := make(chan Envelope, 1)
	item := pipeItem{env: Envelope{Kind: KindRequest, Message: &msg}, reply: reply}

	select {
	case p.queue <- item:
	case <-ctx.Done():
		return nil, transportErr("%s: %v", msg.Type, ctx.Err())
	case <-p.ctx.Done():
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
	case <-p.ctx.Done():
		return nil, ErrClosed
	}
}

// Close stops the pipe. Queued messages that were not yet delivered are
// discarded.
func (p *Pipe) Close() error {
	p.closeOnce.Do(p.cancel)
	return nil
}
