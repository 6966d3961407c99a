// Package sse implements a Server-Sent Events broker for live catalog and
// alert updates.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/propscope/internal/metrics"
)

// Event types sent to clients.
const (
	TypeCatalogReloaded = "catalog.reloaded"
	TypeCatalogFailed   = "catalog.failed"
	TypeMapUpdated      = "map.updated"
	TypeAlertCreated    = "alert.created"
)

// Event represents an SSE event to broadcast. An event with a UserID is
// delivered only to that user's subscribers.
type Event struct {
	Type   string `json:"type"`
	Data   any    `json:"data"`
	UserID string `json:"-"`
}

type catalogEventReq struct {
	kind string
	path string
}

type client struct {
	ch     chan []byte
	userID string
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns the client set and the map throttle
// timestamp; public methods talk to it over channels.
type Broker struct {
	mapMin time.Duration

	subscribeCh    chan client
	unsubscribeCh  chan chan []byte
	publishCh      chan Event
	catalogEventCh chan catalogEventReq
	countReqCh     chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits map.updated at most once per mapThrottle.
func NewBroker(mapThrottle time.Duration) *Broker {
	if mapThrottle <= 0 {
		mapThrottle = 2 * time.Second
	}

	b := &Broker{
		mapMin:         mapThrottle,
		subscribeCh:    make(chan client),
		unsubscribeCh:  make(chan chan []byte),
		publishCh:      make(chan Event, 256),
		catalogEventCh: make(chan catalogEventReq, 256),
		countReqCh:     make(chan chan int),
		stopCh:         make(chan struct{}),
		stopped:        make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]string)
	var lastMap time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch, userID := range clients {
			if event.UserID != "" && event.UserID != userID {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than block the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			metrics.SSEClients.Set(0)
			return

		case c := <-b.subscribeCh:
			clients[c.ch] = c.userID
			metrics.SSEClients.Set(float64(len(clients)))

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
				metrics.SSEClients.Set(float64(len(clients)))
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.catalogEventCh:
			data := map[string]string{"path": req.path}
			switch req.kind {
			case "reloaded":
				broadcast(Event{Type: TypeCatalogReloaded, Data: data})
			case "failed":
				broadcast(Event{Type: TypeCatalogFailed, Data: data})
				continue
			default:
				continue
			}

			now := time.Now()
			if now.Sub(lastMap) >= b.mapMin {
				lastMap = now
				broadcast(Event{Type: TypeMapUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds an anonymous client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	return b.SubscribeUser("")
}

// SubscribeUser adds a client that also receives userID's private events.
func (b *Broker) SubscribeUser(userID string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- client{ch: ch, userID: userID}:
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

// Publish sends an event to all matching clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishCatalogEvent relays a dataset watcher event and, for successful
// reloads, a throttled map.updated event. Its signature matches
// catalog.EventCallback.
func (b *Broker) PublishCatalogEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.catalogEventCh <- catalogEventReq{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// PublishAlert sends a new alert to its owner only.
func (b *Broker) PublishAlert(userID string, alert any) {
	b.Publish(Event{Type: TypeAlertCreated, Data: alert, UserID: userID})
}

type userKey struct{}

// WithUser marks the request context with the user whose private events the
// stream should carry.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
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

	ch := b.SubscribeUser(userFrom(r.Context()))
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
