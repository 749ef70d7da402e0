package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

// wsServer serves StreamPath and hands each upgraded connection to feed.
func wsServer(t *testing.T, conns *int32, feed func(c *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != StreamPath {
			http.NotFound(w, r)
			return
		}
		if conns != nil {
			atomic.AddInt32(conns, 1)
		}
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		feed(c)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// feedFrom writes each message sent on msgs, then waits for the client to leave.
func feedFrom(msgs <-chan string) func(c *websocket.Conn) {
	return func(c *websocket.Conn) {
		go func() {
			for m := range msgs {
				if err := c.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
					return
				}
			}
		}()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func receive(t *testing.T, ch <-chan nezha.Frame) nezha.Frame {
	t.Helper()
	select {
	case f, ok := <-ch:
		require.True(t, ok, "stream closed early")
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a frame")
	}
	return nezha.Frame{}
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://status.example.com", "ws://status.example.com/api/v1/ws/server", false},
		{"https://status.example.com/", "wss://status.example.com/api/v1/ws/server", false},
		{"https://example.com/nezha/", "wss://example.com/nezha/api/v1/ws/server", false},
		{"https://example.com:8008?x=1", "wss://example.com:8008/api/v1/ws/server", false},
		{"ftp://example.com", "", true},
		{"status.example.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := WebSocketURL(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrStream))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStream_DeliversFrames(t *testing.T) {
	log := logger.NewBufferLogger()
	msgs := make(chan string)
	t.Cleanup(func() { close(msgs) })
	srv := wsServer(t, nil, feedFrom(msgs))

	s, err := NewStream(srv.URL, "", time.Second, log)
	require.NoError(t, err)
	fixed := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	_, err = s.Fetch(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrStream), "no frame yet")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.Start(ctx)

	msgs <- `{"now":1741608000000,"online":1,"servers":[{"id":1,"name":"tokyo-1","last_active":"2025-03-10T11:59:55Z"}]}`
	first := receive(t, ch)
	assert.Equal(t, time.UnixMilli(1741608000000).UTC(), first.Now.UTC())
	assert.Equal(t, 1, first.Online)
	require.Len(t, first.Servers, 1)
	assert.Equal(t, "tokyo-1", first.Servers[0].Name)

	msgs <- `not json`
	msgs <- `{"online":0,"servers":[]}`
	second := receive(t, ch)
	assert.Equal(t, fixed, second.Now, "missing clock falls back to local time")
	assert.Empty(t, second.Servers)

	latest, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixed, latest.Now)
	assert.True(t, log.HasLevel("warn"), "malformed frame is logged")

	cancel()
	select {
	case _, ok := <-ch:
		for ok {
			_, ok = <-ch
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
}

func TestStream_Reconnects(t *testing.T) {
	var conns int32
	srv := wsServer(t, &conns, func(c *websocket.Conn) {
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"online":0,"servers":[]}`))
	})

	s, err := NewStream(srv.URL, "", time.Second, logger.Noop(), WithReconnectInterval(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.Start(ctx)

	receive(t, ch)
	receive(t, ch)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&conns), int32(2))
}

func TestStream_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	s, err := NewStream(srv.URL, "tok", time.Second, logger.Noop(), WithReconnectInterval(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	require.Eventually(t, func() bool { return s.Err() != nil }, 5*time.Second, 10*time.Millisecond)
	_, err = s.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrStream))
	assert.True(t, strings.Contains(err.Error(), "404"))
}

func TestStream_FetchFailsAfterDisconnect(t *testing.T) {
	var conns int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&conns, 1) > 1 {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"online":1,"servers":[{"id":1,"name":"tokyo-1"}]}`))
		c.Close()
	}))
	t.Cleanup(srv.Close)

	s, err := NewStream(srv.URL, "", time.Second, logger.Noop(), WithReconnectInterval(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.Start(ctx)
	receive(t, ch)

	require.Eventually(t, func() bool {
		err := s.Err()
		return err != nil && strings.Contains(err.Error(), "502")
	}, 5*time.Second, 10*time.Millisecond)

	_, err = s.Fetch(context.Background())
	require.Error(t, err, "the last frame is not served once the connection is gone")
	assert.True(t, errors.IsCode(err, errors.ErrStream))
}

func TestDeliver_DropsStale(t *testing.T) {
	ch := make(chan nezha.Frame, 1)
	deliver(ch, nezha.Frame{Online: 1})
	deliver(ch, nezha.Frame{Online: 2})
	assert.Equal(t, 2, (<-ch).Online)
}
