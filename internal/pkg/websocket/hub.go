package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jdon/coffeechat/internal/domain/coffeechat"
)

const publishBuffer = 256

// Hub keeps the open event connections per member and fans chat events out to them
type Hub struct {
	// Registered clients organized by member ID
	clients map[int64]map[*Client]bool

	// Events waiting to be delivered
	publish chan coffeechat.ChatEvent

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Guards clients for readers outside the run loop
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		publish:    make(chan coffeechat.ChatEvent, publishBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and deliveries until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.publish:
			h.deliver(event)
		}
	}
}

// Publish queues an event for delivery. It never blocks; when the queue is full the event is dropped.
func (h *Hub) Publish(event coffeechat.ChatEvent) {
	select {
	case h.publish <- event:
	default:
		h.logger.Warn().
			Int64("chatID", event.ChatID).
			Str("event", string(event.Event)).
			Msg("Event queue full, dropping chat event")
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client; a no-op once the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.memberID]; !ok {
		h.clients[client.memberID] = make(map[*Client]bool)
	}
	h.clients[client.memberID][client] = true

	h.logger.Info().
		Int64("memberID", client.memberID).
		Str("addr", client.remoteAddr()).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	conns, ok := h.clients[client.memberID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}

	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.memberID)
	}

	h.logger.Info().
		Int64("memberID", client.memberID).
		Str("addr", client.remoteAddr()).
		Msg("Client unregistered")
}

// deliver sends an event to the host and guest connections
func (h *Hub) deliver(event coffeechat.ChatEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Int64("chatID", event.ChatID).Msg("Failed to marshal chat event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, memberID := range event.Recipients() {
		for client := range h.clients[memberID] {
			select {
			case client.send <- data:
				delivered++
			default:
				// Slow consumer: drop the connection rather than stall the hub
				h.removeLocked(client)
			}
		}
	}

	h.logger.Debug().
		Int64("chatID", event.ChatID).
		Str("event", string(event.Event)).
		Int("connections", delivered).
		Msg("Chat event delivered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conns := range h.clients {
		for client := range conns {
			h.removeLocked(client)
		}
	}
}

