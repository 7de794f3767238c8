package websocket

import (
	"encoding/json"
	"log"
	"time"

	"homehive-server/services"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendQueueSize  = 64
)

// Client is one live connection of a room participant. A participant may hold
// several at once (tabs, devices); each gets its own session.
type Client struct {
	hub    *Hub
	chat   *services.ChatService
	conn   *websocket.Conn
	send   chan []byte
	userID uint
	roomID uint
}

// inboundFrame is the wire shape clients send while joined.
type inboundFrame struct {
	Message string `json:"message"`
	ReplyTo *uint  `json:"reply_to"`
	Listing *uint  `json:"listing"`
}

// readPump consumes inbound frames until the connection drops. Malformed
// frames and empty messages are ignored without a reply; the inbound contract
// is fire-and-forget.
func (c *Client) readPump() {
	defer func() {
		c.hub.Leave(c.roomID, c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("⚠️  ws: user %d room %d read error: %v", c.userID, c.roomID, err)
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}

		// Persist then broadcast; the broadcast rides the event bus.
		// Every failure here is intentionally silent on this path.
		if _, err := c.chat.Send(services.SendMessageInput{
			RoomID:    c.roomID,
			SenderID:  c.userID,
			Content:   frame.Message,
			ReplyToID: frame.ReplyTo,
			ListingID: frame.Listing,
		}); err != nil && err != services.ErrEmptyContent {
			log.Printf("⚠️  ws: user %d room %d send failed: %v", c.userID, c.roomID, err)
		}
	}
}

// writePump drains the outbound queue onto the socket and keeps the
// connection alive with pings. One writer per connection; queue order is
// delivery order.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
