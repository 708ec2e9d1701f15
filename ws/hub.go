package ws

import (
	"context"
	"sync"

	"github.com/quillhq/quill/utils"
)

// Event names on the vote channel.
const (
	EventVote        = "vote"
	EventVoteResults = "vote_results"
)

// Message is the envelope exchanged on the websocket channel.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// VoteResults is the payload broadcast to every subscriber after a vote.
type VoteResults struct {
	PostID  uint  `json:"post_id"`
	Results int64 `json:"results"`
}

// Hub maintains the set of connected clients and fans broadcast messages out
// to all of them. The vote channel is a single global topic: every subscriber
// receives every vote_results message.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	// done is closed when Run exits so clients never block handing
	// themselves back to a hub that stopped listening
	done chan struct{}
	mu   sync.RWMutex
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes client lifecycle events and broadcasts until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			utils.Sugar.Infof("websocket client connected, total=%d", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			utils.Sugar.Infof("websocket client disconnected, total=%d", total)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// Broadcast queues a message for delivery to every connected client.
// Fire-and-forget: the message is dropped if the queue is full.
func (h *Hub) Broadcast(event string, data interface{}) {
	select {
	case h.broadcast <- Message{Event: event, Data: data}:
	default:
		utils.Sugar.Warnf("broadcast channel full, dropping %s message", event)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// slow consumer, drop it
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}
