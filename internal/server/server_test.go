// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-slots/internal/logging"
	"github.com/jeranaias/rigrun-slots/internal/messenger"
	"github.com/jeranaias/rigrun-slots/internal/model"
)

// recorder remembers the order messages reached the handler.
type recorder struct {
	mu   sync.Mutex
	seen []messenger.MessageType
}

func (r *recorder) Handle(_ context.Context, msg messenger.Message) (any, error) {
	r.mu.Lock()
	r.seen = append(r.seen, msg.Type)
	r.mu.Unlock()

	switch msg.Type {
	case messenger.TypeGetSlots:
		return []model.Slot{{ID: "a", Type: model.SlotTypeChatGPT}}, nil
	case messenger.TypeGetApiKey:
		return nil, messenger.NewRemoteError(messenger.CodeNotFound, "no API key stored")
	}
	return nil, nil
}

func (r *recorder) types() []messenger.MessageType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]messenger.MessageType(nil), r.seen...)
}

func startServer(t *testing.T, cfg Config, h messenger.Handler) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(cfg, h)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		ts.Close()
	})
	return srv, ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, ts *httptest.Server) *messenger.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := messenger.Dial(ctx, wsURL(ts))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// ============================================================================
// WEBSOCKET TESTS
// ============================================================================

func TestServer_RequestResponse(t *testing.T) {
	_, ts := startServer(t, Config{}, &recorder{})
	c := dial(t, ts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := messenger.Call[[]model.Slot](ctx, c, messenger.GetSlots())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	_, err = messenger.Call[model.Credential](ctx, c, messenger.GetApiKey())
	var re *messenger.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, messenger.CodeNotFound, re.Code)
}

func TestServer_PreservesOrder(t *testing.T) {
	rec := &recorder{}
	_, ts := startServer(t, Config{}, rec)
	c := dial(t, ts)

	c.Send(messenger.AddNewSlot(model.Slot{ID: "x"}))
	c.Send(messenger.SelectSlot("x"))
	c.Send(messenger.DeleteSlot("x"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := c.SendAsync(ctx, messenger.GetSlots())
	require.NoError(t, err)

	assert.Equal(t, []messenger.MessageType{
		messenger.TypeAddNewSlot,
		messenger.TypeSelectSlot,
		messenger.TypeDeleteSlot,
		messenger.TypeGetSlots,
	}, rec.types())
}

func TestServer_RateLimitDelaysInsteadOfDropping(t *testing.T) {
	rec := &recorder{}
	_, ts := startServer(t, Config{RateLimit: 20, RateBurst: 1}, rec)
	c := dial(t, ts)

	start := time.Now()
	for i := 0; i < 4; i++ {
		c.Send(messenger.SelectSlot("x"))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := c.SendAsync(ctx, messenger.GetSlots())
	require.NoError(t, err)

	assert.Len(t, rec.types(), 5)
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestServer_OriginCheck(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		ok      bool
	}{
		{"no origin header", nil, "", true},
		{"foreign origin", nil, "http://evil.test", false},
		{"listed origin", []string{"http://app.test"}, "http://app.test", true},
		{"unlisted origin", []string{"http://app.test"}, "http://other.test", false},
		{"wildcard", []string{"*"}, "http://anything.test", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := startServer(t, Config{AllowedOrigins: tt.allowed}, &recorder{})

			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
			if tt.ok {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestServer_SameHostOrigin(t *testing.T) {
	_, ts := startServer(t, Config{}, &recorder{})

	header := http.Header{}
	header.Set("Origin", ts.URL)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
	require.NoError(t, err)
	conn.Close()
}

func TestServer_ShutdownClosesSessions(t *testing.T) {
	srv, ts := startServer(t, Config{}, &recorder{})
	c := dial(t, ts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client not disconnected on shutdown")
	}
}

// ============================================================================
// HTTP TESTS
// ============================================================================

func TestServer_Health(t *testing.T) {
	_, ts := startServer(t, Config{Version: "1.2.3"}, &recorder{})
	dial(t, ts)

	get := func() (HealthResponse, *http.Response) {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		var health HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
		return health, resp
	}

	health, resp := get()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.3", health.Version)

	// The session is counted once the upgrade handler has run
	require.Eventually(t, func() bool {
		h, _ := get()
		return h.Connections == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_Metrics(t *testing.T) {
	_, ts := startServer(t, Config{}, &recorder{})
	c := dial(t, ts)
	c.Send(messenger.SelectSlot("x"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := c.SendAsync(ctx, messenger.GetSlots())
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "rigrun_slots_ws_connections")
	assert.Contains(t, string(body), `rigrun_slots_ws_envelopes_total{kind="notify"}`)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	srv := New(Config{Addr: "127.0.0.1:0"}, &recorder{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Run did not return")
	}
}

func TestMiddleware_RecoversPanic(t *testing.T) {
	h := RecoveryMiddleware(logging.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
