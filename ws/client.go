package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quillhq/quill/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// VotePayload is the inbound vote event body.
type VotePayload struct {
	PostID uint   `json:"post_id"`
	Action string `json:"action"`
}

// voteFunc applies a vote for the connection's authenticated user.
type voteFunc func(userID uint, payload VotePayload)

// Client is the middleman between one websocket connection and the hub. The
// session is established at the handshake; every vote on this connection is
// applied as that user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message
	userID uint
	onVote voteFunc
}

func newClient(hub *Hub, conn *websocket.Conn, userID uint, onVote voteFunc) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan Message, 256),
		userID: userID,
		onVote: onVote,
	}
}

// start registers the client with the hub and launches its pumps. A hub
// that already shut down just closes the connection.
func (c *Client) start() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		_ = c.conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// detach hands the client back to the hub, or gives up immediately when the
// hub has stopped running.
func (c *Client) detach() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// readPump dispatches inbound vote events until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.detach()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				utils.Sugar.Warnf("unexpected websocket close: %v", err)
			}
			break
		}
		if msg.Event != EventVote {
			continue
		}
		var payload VotePayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			utils.Sugar.Debugf("malformed vote payload: %v", err)
			continue
		}
		c.onVote(c.userID, payload)
	}
}

// writePump delivers hub messages and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// the hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
