package editor

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// EventStream holds one websocket subscription to the preview fanout and
// republishes every decoded frame on the local bus. Run blocks until the
// context ends or the connection drops; reconnecting is the caller's job.
type EventStream struct {
	url string
	bus *Bus
}

func NewEventStream(url string, bus *Bus) *EventStream {
	return &EventStream{url: url, bus: bus}
}

func (s *EventStream) Run(ctx context.Context) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Closing the connection is the only way to unblock ReadMessage when the
	// context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var e Event
		if err := json.Unmarshal(data, &e); err != nil || e.Type == "" {
			log.Printf("editor: dropping malformed event frame: %.128s", data)
			continue
		}
		s.bus.Publish(e)
	}
}
