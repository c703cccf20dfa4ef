package websocket

import (
	"context"

	"github.com/rs/zerolog/log"
)

type delivery struct {
	userID  string
	message []byte
}

// Hub maintains the set of active clients and routes messages to the
// connections owned by one user.
type Hub struct {
	// Registered clients, grouped by the user that opened them.
	subscriptions map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	publish chan delivery
	done    chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		publish:       make(chan delivery, 64),
		done:          make(chan struct{}),
	}
}

// Run processes registrations and deliveries until ctx is done. Every
// map access happens on this goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, subs := range h.subscriptions {
				for client := range subs {
					close(client.Send)
				}
			}
			h.subscriptions = make(map[string]map[*Client]bool)
			return
		case client := <-h.register:
			if h.subscriptions[client.UserID] == nil {
				h.subscriptions[client.UserID] = make(map[*Client]bool)
			}
			h.subscriptions[client.UserID][client] = true
			log.Debug().Str("user_id", client.UserID).Int("user_clients", len(h.subscriptions[client.UserID])).Msg("Client connected")
		case client := <-h.unregister:
			h.remove(client)
		case d := <-h.publish:
			for client := range h.subscriptions[d.userID] {
				select {
				case client.Send <- d.message:
				default:
					// Slow consumer; drop it rather than stall the hub.
					h.remove(client)
				}
			}
		}
	}
}

// Attach hands client to the hub. It reports false once the hub has stopped.
func (h *Hub) Attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendTo queues a message for every connection owned by userID. It never
// blocks; when the queue is full the message is dropped.
func (h *Hub) SendTo(userID string, message []byte) {
	select {
	case h.publish <- delivery{userID: userID, message: message}:
	default:
		log.Warn().Str("user_id", userID).Msg("Websocket publish queue full, dropping message")
	}
}

// PublishApplied tells the user's open sessions that a job was marked as applied.
func (h *Hub) PublishApplied(userID, jobKey string) {
	msg, err := NewJobAppliedMessage(jobKey)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode job applied message")
		return
	}
	h.SendTo(userID, msg)
}

func (h *Hub) remove(client *Client) {
	subs, ok := h.subscriptions[client.UserID]
	if !ok || !subs[client] {
		return
	}
	delete(subs, client)
	close(client.Send)
	if len(subs) == 0 {
		delete(h.subscriptions, client.UserID)
	}
	log.Debug().Str("user_id", client.UserID).Msg("Client disconnected")
}
