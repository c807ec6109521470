// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-slots/internal/model"
)

// recorder is a Handler that remembers every message it saw, in order.
type recorder struct {
	mu     sync.Mutex
	seen   []Message
	seenCh chan struct{}
	reply  func(Message) (any, error)
}

func newRecorder(reply func(Message) (any, error)) *recorder {
	return &recorder{seenCh: make(chan struct{}, 1024), reply: reply}
}

func (r *recorder) Handle(_ context.Context, msg Message) (any, error) {
	r.mu.Lock()
	r.seen = append(r.seen, msg)
	r.mu.Unlock()
	r.seenCh <- struct{}{}
	if r.reply == nil {
		return nil, nil
	}
	return r.reply(msg)
}

func (r *recorder) types() []MessageType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]MessageType, 0, len(r.seen))
	for _, m := range r.seen {
		out = append(out, m.Type)
	}
	return out
}

func (r *recorder) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.seenCh:
		case <-time.After(2 * time.Second):
			t.Fatalf("handler saw %d of %d messages", i, n)
		}
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestConstructors_Payloads(t *testing.T) {
	slot := model.Slot{ID: "a", Type: model.SlotTypeChatGPT}

	var got model.Slot
	require.NoError(t, AddNewSlot(slot).Decode(&got))
	assert.Equal(t, slot, got)

	var id string
	require.NoError(t, DeleteSlot("a").Decode(&id))
	assert.Equal(t, "a", id)

	assert.Empty(t, GetSlots().Data)
	assert.ErrorIs(t, GetSlots().Decode(&got), ErrNoPayload)
}

func TestEnvelope_WireShape(t *testing.T) {
	msg := SelectSlot("x")
	data, err := json.Marshal(Envelope{ID: "1", Kind: KindRequest, Message: &msg})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","kind":"request","message":{"type":"SelectSlot","data":"x"}}`, string(data))
}

func TestDispatch(t *testing.T) {
	h := HandlerFunc(func(_ context.Context, msg Message) (any, error) {
		switch msg.Type {
		case TypeGetSlots:
			return []model.Slot{{ID: "a"}}, nil
		case TypeSaveApiKey:
			return nil, NewRemoteError(CodeValidation, "bad key")
		}
		return nil, errors.New("boom")
	})

	msg := GetSlots()
	resp, err := Dispatch(context.Background(), h, Envelope{ID: "1", Kind: KindRequest, Message: &msg})
	require.NoError(t, err)
	assert.Equal(t, "1", resp.ID)
	assert.JSONEq(t, `[{"id":"a","name":"","type":"","isSelected":false}]`, string(resp.Data))

	msg = SaveApiKey(model.Credential{})
	resp, err = Dispatch(context.Background(), h, Envelope{ID: "2", Kind: KindRequest, Message: &msg})
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeValidation, resp.Error.Code)

	msg = ResetApiKey()
	resp, err = Dispatch(context.Background(), h, Envelope{Kind: KindNotify, Message: &msg})
	assert.Nil(t, resp)
	assert.EqualError(t, err, "boom")

	resp, err = Dispatch(context.Background(), h, Envelope{ID: "3", Kind: KindRequest})
	require.NoError(t, err)
	assert.Equal(t, CodeBadRequest, resp.Error.Code)
}

func TestErrorName(t *testing.T) {
	assert.Equal(t, "ValidationError", ErrorName(NewRemoteError(CodeValidation, "x")))
	assert.Equal(t, "TransportError", ErrorName(ErrClosed))
	assert.Equal(t, "Error", ErrorName(errors.New("x")))
	assert.True(t, errors.Is(ErrClosed, ErrTransport))
}

// =============================================================================
// PIPE TESTS
// =============================================================================

func TestPipe_PreservesSendOrder(t *testing.T) {
	rec := newRecorder(func(Message) (any, error) { return []model.Slot{}, nil })
	p := NewPipe(rec)
	defer p.Close()

	p.Send(AddNewSlot(model.Slot{ID: "a"}))
	p.Send(SelectSlot("a"))
	p.Send(UpdateSlotData(model.Slot{ID: "a", Name: "n"}))
	_, err := p.SendAsync(context.Background(), GetSlots())
	require.NoError(t, err)
	p.Send(DeleteSlot("a"))
	rec.wait(t, 5)

	assert.Equal(t, []MessageType{TypeAddNewSlot, TypeSelectSlot, TypeUpdateSlotData, TypeGetSlots, TypeDeleteSlot}, rec.types())
}

func TestPipe_Call(t *testing.T) {
	want := []model.Slot{{ID: "a", IsSelected: true}}
	p := NewPipe(HandlerFunc(func(context.Context, Message) (any, error) { return want, nil }))
	defer p.Close()

	got, err := Call[[]model.Slot](context.Background(), p, GetSlots())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPipe_RemoteError(t *testing.T) {
	p := NewPipe(HandlerFunc(func(context.Context, Message) (any, error) {
		return nil, NewRemoteError(CodeNotFound, "no credential stored")
	}))
	defer p.Close()

	_, err := p.SendAsync(context.Background(), GetApiKey())
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, CodeNotFound, re.Code)
	assert.False(t, errors.Is(err, ErrTransport))
}

func TestPipe_ContextExpiry(t *testing.T) {
	block := make(chan struct{})
	p := NewPipe(HandlerFunc(func(context.Context, Message) (any, error) {
		<-block
		return nil, nil
	}))
	defer p.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.SendAsync(ctx, GetSlots())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestPipe_Closed(t *testing.T) {
	rec := newRecorder(nil)
	p := NewPipe(rec)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err := p.SendAsync(context.Background(), GetSlots())
	assert.ErrorIs(t, err, ErrTransport)

	p.Send(DeleteSlot("a"))
	assert.Empty(t, rec.types())
}

func TestPipe_HandlerPanicBecomesInternalError(t *testing.T) {
	p := NewPipe(HandlerFunc(func(context.Context, Message) (any, error) { panic("bad") }))
	defer p.Close()

	_, err := p.SendAsync(context.Background(), GetSlots())
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, CodeInternal, re.Code)
}
