package websocket

import (
	"encoding/json"
	"sync"

	"github.com/alumnisphere/api/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// outboundBuffer bounds the publish queue. Publishing never blocks; events
// beyond this are dropped.
const outboundBuffer = 1024

type delivery struct {
	userIDs []int64
	// client, when set, targets a single connection instead of users
	client *Client
	data   []byte
}

// Hub maintains the set of active clients keyed by user ID and pushes
// events to them
type Hub struct {
	// Registered clients organized by user ID
	clients map[int64]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	outbound   chan delivery
	done       chan struct{}
	stopOnce   sync.Once

	// Guards clients for readers outside the run loop
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan delivery, outboundBuffer),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and deliveries until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case d := <-h.outbound:
			h.deliver(d)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop disconnects every client and ends Run
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true
	metrics.WSConnections.Inc()

	h.logger.Info().Int64("userID", client.userID).Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	metrics.WSConnections.Dec()
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	h.logger.Info().Int64("userID", client.userID).Msg("Client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for client := range set {
			h.removeLocked(client)
		}
	}
}

// deliver sends to every connection of the listed users. A client whose
// buffer is full is dropped.
func (h *Hub) deliver(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if d.client != nil {
		if h.clients[d.client.userID][d.client] {
			h.sendLocked(d.client, d.data)
		}
		return
	}

	sent := 0
	for _, userID := range d.userIDs {
		for client := range h.clients[userID] {
			if h.sendLocked(client, d.data) {
				sent++
			}
		}
	}
	h.logger.Debug().Ints64("userIDs", d.userIDs).Int("connections", sent).Msg("Event pushed")
}

func (h *Hub) sendLocked(client *Client, data []byte) bool {
	select {
	case client.send <- data:
		return true
	default:
		h.logger.Warn().Int64("userID", client.userID).Msg("Dropping slow WebSocket client")
		h.removeLocked(client)
		return false
	}
}

// PublishToUsers queues event, encoded as JSON, for every connection of the
// given users. It never blocks: when the queue is full the event is dropped.
func (h *Hub) PublishToUsers(userIDs []int64, event interface{}) {
	if len(userIDs) == 0 {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal WebSocket event")
		return
	}
	h.enqueue(delivery{userIDs: append([]int64(nil), userIDs...), data: data})
}

// reply queues data for a single connection
func (h *Hub) reply(client *Client, data []byte) {
	h.enqueue(delivery{client: client, data: data})
}

func (h *Hub) enqueue(d delivery) {
	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.outbound <- d:
	default:
		h.logger.Warn().Ints64("userIDs", d.userIDs).Msg("WebSocket publish queue full, event dropped")
	}
}

// ClientCount returns the number of open connections of a user
func (h *Hub) ClientCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
