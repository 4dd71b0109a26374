package editor

import (
	"encoding/json"
	"sync"
)

// Event is one frame of the shared broadcast stream: the studio publishes
// them after every committed mutation and the preview service fans them out.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Bus is a small synchronous pub/sub. Panels subscribe to the event types
// they care about; whatever receives a frame (the websocket stream, a test)
// publishes into it. Callbacks run on the publisher's goroutine.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]func(Event)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]func(Event))}
}

// Subscribe registers fn for events of the given type and returns an
// unsubscribe func. The type "*" matches every event.
func (b *Bus) Subscribe(eventType string, fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	m := b.subs[eventType]
	if m == nil {
		m = make(map[int]func(Event))
		b.subs[eventType] = m
	}
	m[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[eventType], id)
	}
}

// Publish delivers the event to every matching subscriber. The subscriber
// list is snapshotted first, so callbacks may subscribe or unsubscribe.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.subs[e.Type])+len(b.subs["*"]))
	for _, fn := range b.subs[e.Type] {
		fns = append(fns, fn)
	}
	for _, fn := range b.subs["*"] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
