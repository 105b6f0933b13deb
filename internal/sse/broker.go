// Package sse broadcasts catalogue changes to browsers as Server-Sent Events.
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
	Type string
	Data any
}

// Snapshot returns the payload of a catalogue.updated event, typically the
// current catalogue.
type Snapshot func() any

type change struct {
	kind string
	file string
}

// Broker fans catalogue changes out to SSE clients.
//
// Every change is forwarded at once as note.created, note.updated,
// note.deleted or catalogue.synced. A catalogue.updated event carrying a
// fresh snapshot follows at most once per interval; changes inside the
// interval are coalesced into one trailing event so the last one is never
// lost.
//
// A single loop goroutine owns the client set and the coalescing timer.
type Broker struct {
	interval time.Duration
	snapshot Snapshot

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan change
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithSnapshot sets the payload source for catalogue.updated. Without it the
// event carries an empty object.
func WithSnapshot(fn Snapshot) BrokerOption {
	return func(b *Broker) { b.snapshot = fn }
}

// NewBroker creates a broker that emits catalogue.updated at most once per interval.
func NewBroker(interval time.Duration, opts ...BrokerOption) *Broker {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	b := &Broker{
		interval:      interval,
		snapshot:      func() any { return struct{}{} },
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan change, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

// changeEvent maps an engine change to its SSE event.
func changeEvent(c change) (Event, bool) {
	switch c.kind {
	case "created", "updated", "deleted":
		return Event{Type: "note." + c.kind, Data: map[string]string{"file": c.file}}, true
	case "synced":
		return Event{Type: "catalogue.synced", Data: struct{}{}}, true
	}
	return Event{}, false
}

func encode(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	broadcast := func(ev Event) {
		msg, err := encode(ev)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- msg:
			default:
				// Slow client; drop rather than stall the loop.
			}
		}
	}

	var (
		lastUpdate time.Time
		timer      *time.Timer
		flush      <-chan time.Time
	)
	sendUpdate := func() {
		lastUpdate = time.Now()
		broadcast(Event{Type: "catalogue.updated", Data: b.snapshot()})
	}

	for {
		select {
		case <-b.stopCh:
			if timer != nil {
				timer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case ev := <-b.publishCh:
			broadcast(ev)

		case c := <-b.changeCh:
			ev, ok := changeEvent(c)
			if !ok {
				continue
			}
			broadcast(ev)
			if flush != nil {
				// A trailing update is already scheduled.
				continue
			}
			if wait := b.interval - time.Since(lastUpdate); wait > 0 {
				timer = time.NewTimer(wait)
				flush = timer.C
				continue
			}
			sendUpdate()

		case <-flush:
			flush = nil
			sendUpdate()

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
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
	case b.subscribeCh <- ch:
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
	case b.unsubscribeCh <- ch:
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
	case b.countReqCh <- resp:
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

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishChange reports an engine change. kind is created, updated, deleted
// or synced; unknown kinds are dropped.
func (b *Broker) PublishChange(kind, file string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- change{kind: kind, file: file}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
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
