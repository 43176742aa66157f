package websocket

import (
	"log"
	"sync"
)

// Hub maintains the set of active clients, grouped by the ranking pages
// they are watching, and fans engagement updates out to them.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Clients subscribed to each ranking ID
	rooms map[string]map[*Client]bool

	// Inbound messages to fan out
	broadcast chan *Message

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Subscription changes from client read pumps
	subscribe chan *subscription

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// Message is a WebSocket frame. RankingID scopes delivery to one room;
// empty means all clients.
type Message struct {
	Type      string                 `json:"type"`
	RankingID string                 `json:"ranking_id,omitempty"`
	Payload   map[string]interface{} `json:"payload"`
}

type subscription struct {
	client    *Client
	rankingID string
	join      bool
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan *subscription),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("Client registered: UserID=%s, total clients: %d", client.UserID, len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.dropFromRooms(client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("Client unregistered: UserID=%s", client.UserID)

		case sub := <-h.subscribe:
			h.mu.Lock()
			if sub.join {
				if h.rooms[sub.rankingID] == nil {
					h.rooms[sub.rankingID] = make(map[*Client]bool)
				}
				h.rooms[sub.rankingID][sub.client] = true
			} else if room, ok := h.rooms[sub.rankingID]; ok {
				delete(room, sub.client)
				if len(room) == 0 {
					delete(h.rooms, sub.rankingID)
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			if message.RankingID != "" {
				for client := range h.rooms[message.RankingID] {
					h.deliver(client, message)
				}
			} else {
				for client := range h.clients {
					h.deliver(client, message)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// deliver drops the message if the client's send buffer is full
func (h *Hub) deliver(client *Client, message *Message) {
	select {
	case client.send <- message:
	default:
		log.Printf("Send buffer full, dropping message for user: %s", client.UserID)
	}
}

func (h *Hub) dropFromRooms(client *Client) {
	for rankingID, room := range h.rooms {
		if room[client] {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, rankingID)
			}
		}
	}
}

// BroadcastToRanking sends an engagement update to every client watching
// the ranking.
func (h *Hub) BroadcastToRanking(rankingID string, eventType string, payload map[string]interface{}) {
	message := &Message{
		Type:      eventType,
		RankingID: rankingID,
		Payload:   payload,
	}

	select {
	case h.broadcast <- message:
	default:
		log.Printf("Broadcast channel full, dropping message for ranking: %s", rankingID)
	}
}

// SubscriberCount returns the number of clients watching a ranking
func (h *Hub) SubscriberCount(rankingID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[rankingID])
}

// TotalClientCount returns the total number of connected clients
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
