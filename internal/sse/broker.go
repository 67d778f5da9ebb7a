// Package sse implements a Server-Sent Events broker streaming sync
// progress and vault change events to control-plane subscribers.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type docChange struct {
	kind string
	path string
}

// Broker manages SSE client connections and broadcasts events.
//
// A single loop goroutine owns all mutable state (the subscriber set and
// the status throttle timestamp); public methods talk to it over channels.
type Broker struct {
	statusMin time.Duration

	reg    chan chan []byte
	unreg  chan chan []byte
	events chan Event
	docs   chan docChange
	counts chan chan int

	stop    chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker with the given status-event throttle interval.
func NewBroker(statusThrottle time.Duration) *Broker {
	if statusThrottle <= 0 {
		statusThrottle = 2 * time.Second
	}

	b := &Broker{
		statusMin: statusThrottle,
		reg:       make(chan chan []byte),
		unreg:     make(chan chan []byte),
		events:    make(chan Event, 256),
		docs:      make(chan docChange, 256),
		counts:    make(chan chan int),
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}

	go b.loop()
	return b
}

// frame renders one SSE wire frame. Events whose data cannot be marshalled
// are dropped.
func frame(event Event) ([]byte, bool) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, false
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", event.Type, payload), true
}

func (b *Broker) loop() {
	defer close(b.stopped)

	subscribers := make(map[chan []byte]struct{})
	var lastStatus time.Time

	send := func(event Event) {
		raw, ok := frame(event)
		if !ok {
			return
		}
		for ch := range subscribers {
			select {
			case ch <- raw:
			default:
				// Slow client; drop the frame rather than block the loop.
			}
		}
	}

	for {
		select {
		case <-b.stop:
			for ch := range subscribers {
				close(ch)
			}
			return

		case ch := <-b.reg:
			subscribers[ch] = struct{}{}

		case ch := <-b.unreg:
			if _, ok := subscribers[ch]; ok {
				delete(subscribers, ch)
				close(ch)
			}

		case event := <-b.events:
			send(event)

		case change := <-b.docs:
			switch change.kind {
			case "created", "updated", "deleted":
				send(Event{
					Type: "document." + change.kind,
					Data: map[string]string{"path": change.path},
				})
			}

			if now := time.Now(); now.Sub(lastStatus) >= b.statusMin {
				lastStatus = now
				send(Event{Type: "status.updated", Data: map[string]string{}})
			}

		case resp := <-b.counts:
			resp <- len(subscribers)
		}
	}
}

// Close gracefully stops the loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stop)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.reg <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unreg <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.counts <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients. Sync progress events
// (sync.progress, object.imported, object.synced, object.failed) go
// through here.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.events <- event:
	case <-b.stopped:
	}
}

// PublishDocumentEvent publishes a vault change plus a throttled
// status.updated event prompting subscribers to refresh their counters.
func (b *Broker) PublishDocumentEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.docs <- docChange{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
