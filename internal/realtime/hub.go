package realtime

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var ErrHubClosed = errors.New("realtime hub closed")

// Hub owns the table of delivery groups: user id to the set of connections
// that joined as that user.
type Hub struct {
	mu     sync.Mutex
	groups map[string]map[*Client]struct{}
	closed bool
	log    *logrus.Entry
}

func NewHub() *Hub {
	return &Hub{
		groups: make(map[string]map[*Client]struct{}),
		log:    logrus.WithField("component", "realtime"),
	}
}

// Register adds c to userID's delivery group.
func (h *Hub) Register(userID string, c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}

	group, ok := h.groups[userID]
	if !ok {
		group = make(map[*Client]struct{})
		h.groups[userID] = group
	}
	if _, exists := group[c]; exists {
		return nil
	}
	group[c] = struct{}{}
	connectionsActive.Inc()

	h.log.WithFields(logrus.Fields{
		"user_id":     userID,
		"connections": len(group),
	}).Debug("Client joined")
	return nil
}

// Unregister removes c from userID's group and closes its send queue.
func (h *Hub) Unregister(userID string, c *Client) {
	h.mu.Lock()
	h.remove(userID, c)
	h.mu.Unlock()
	c.closeSend()
}

// remove must be called with h.mu held.
func (h *Hub) remove(userID string, c *Client) {
	group, ok := h.groups[userID]
	if !ok {
		return
	}
	if _, exists := group[c]; !exists {
		return
	}
	delete(group, c)
	connectionsActive.Dec()
	if len(group) == 0 {
		delete(h.groups, userID)
	}
}

// Emit sends event to every connection in userID's group and returns how many
// accepted it. Connections whose queue is full are dropped.
func (h *Hub) Emit(userID, event string, payload interface{}) (int, error) {
	frame, err := encode(event, payload)
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0, ErrHubClosed
	}

	delivered := 0
	var dropped []*Client
	for c := range h.groups[userID] {
		if c.enqueue(frame) {
			delivered++
			eventsTotal.WithLabelValues(event, "delivered").Inc()
			continue
		}
		h.remove(userID, c)
		dropped = append(dropped, c)
		eventsTotal.WithLabelValues(event, "dropped").Inc()
	}
	h.mu.Unlock()

	for _, c := range dropped {
		h.log.WithField("user_id", userID).Warn("Dropping slow client")
		c.closeSend()
	}

	return delivered, nil
}

func (h *Hub) ConnectionCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[userID])
}

// Close disconnects every client. Later Register and Emit calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true

	var clients []*Client
	for userID, group := range h.groups {
		for c := range group {
			clients = append(clients, c)
			connectionsActive.Dec()
		}
		delete(h.groups, userID)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.closeSend()
	}
	h.log.WithField("clients", len(clients)).Info("Realtime hub closed")
}
