// Package feed streams fact-metrics changes to dashboards over websockets.
package feed

import (
	"sync"

	"admetrics/internal/pkg/telemetry"
)

const sendBuffer = 32

type Event struct {
	Type        string `json:"type"`
	AdvertiseID string `json:"advertise_id,omitempty"`
	Payload     any    `json:"payload,omitempty"`
}

// client is one websocket connection. An empty filter means every advertisement.
type client struct {
	userID string
	send   chan Event

	mu     sync.RWMutex
	filter string
}

func newClient(userID string) *client {
	return &client{userID: userID, send: make(chan Event, sendBuffer)}
}

func (c *client) subscribe(advertiseID string) {
	c.mu.Lock()
	c.filter = advertiseID
	c.mu.Unlock()
}

func (c *client) wants(advertiseID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter == "" || c.filter == advertiseID
}

type Hub struct {
	clients map[*client]struct{}
	mutex   sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) register(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[c] = struct{}{}
	telemetry.FeedConnections.Inc()
}

func (h *Hub) unregister(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		telemetry.FeedConnections.Dec()
	}
}

// Publish fans an event out to interested clients. A client whose buffer is
// full misses the event; the publisher never waits.
func (h *Hub) Publish(eventType, advertiseID string, payload any) {
	ev := Event{Type: eventType, AdvertiseID: advertiseID, Payload: payload}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for c := range h.clients {
		if !c.wants(advertiseID) {
			continue
		}
		select {
		case c.send <- ev:
		default:
		}
	}
}

// reply queues an event for a single client, dropping it if the buffer is full.
func (h *Hub) reply(c *client, ev Event) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- ev:
	default:
	}
}

func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		telemetry.FeedConnections.Dec()
	}
}
