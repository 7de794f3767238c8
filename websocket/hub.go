package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"homehive-server/services"
)

// Hub is the registry of live connections per chat room. Join/Leave and
// Publish race freely; the map is the only shared structure and stays behind
// the mutex.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[uint]map[*Client]bool)}
}

func (h *Hub) Join(roomID uint, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[roomID]
	if !ok {
		clients = make(map[*Client]bool)
		h.rooms[roomID] = clients
	}
	clients[c] = true
}

// Leave deregisters the connection and closes its outbound queue. Safe to
// call for a connection that already left.
func (h *Hub) Leave(roomID uint, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, present := clients[c]; !present {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, roomID)
	}
}

// Publish queues payload for every connection in the room, the sender's own
// connections included. Delivery is at-most-once per connection: a subscriber
// whose queue is full misses this broadcast and catches up on its next
// history fetch. Per-connection order matches publish order.
//
// The read lock is held across the fan-out so Leave cannot close a queue
// mid-broadcast; the sends never block, so the hold is brief.
func (h *Hub) Publish(roomID uint, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[roomID] {
		select {
		case c.send <- payload:
		default:
			log.Printf("⚠️  hub: dropping broadcast for slow connection (user %d, room %d)", c.userID, roomID)
		}
	}
}

// RoomSize reports the number of live connections in a room.
func (h *Hub) RoomSize(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

type outboundFrame struct {
	Type    string                  `json:"type"`
	Message services.MessagePayload `json:"message"`
}

// BroadcastConsumer returns an event-bus handler that forwards created
// messages to the room's live connections.
func BroadcastConsumer(h *Hub) func(event interface{}) {
	return func(event interface{}) {
		e, ok := event.(services.MessageCreated)
		if !ok {
			return
		}
		frame, err := json.Marshal(outboundFrame{Type: "message", Message: e.Message})
		if err != nil {
			log.Printf("❌ hub: failed to encode outbound frame: %v", err)
			return
		}
		h.Publish(e.RoomID, frame)
	}
}
