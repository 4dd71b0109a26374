package editor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStreamServer serves a websocket endpoint that writes frames and then
// reads until the client goes away.
func newStreamServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestStreamPublishesDecodedFrames(t *testing.T) {
	srv := newStreamServer(t,
		`{"type":"clip.added","payload":{"timelineId":"tl-1"}}`,
		`this is not json`,
		`{"payload":{"missing":"type"}}`,
		`{"type":"timeline.updated"}`,
	)

	bus := NewBus()
	events := make(chan Event, 8)
	bus.Subscribe("*", func(e Event) { events <- e })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	stream := NewEventStream(wsURL(srv), bus)
	go func() { done <- stream.Run(ctx) }()

	want := []string{"clip.added", "timeline.updated"}
	for _, typ := range want {
		select {
		case e := <-events:
			assert.Equal(t, typ, e.Type, "malformed frames are dropped, valid ones pass")
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", typ)
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop on cancel")
	}
}

func TestStreamReturnsDialError(t *testing.T) {
	bus := NewBus()
	stream := NewEventStream("ws://127.0.0.1:1/ws", bus)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := stream.Run(ctx)
	require.Error(t, err)
}

func TestStreamReturnsOnServerClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close() // server drops the connection immediately
	}))
	t.Cleanup(srv.Close)

	stream := NewEventStream(wsURL(srv), NewBus())
	err := stream.Run(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
