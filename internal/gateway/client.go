package gateway

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 30 * time.Second
	actionWait   = 10 * time.Second
	maxReadBytes = 4096
)

// Client represents a single WebSocket peer.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte // replies and metrics
	view chan []byte // latest unsent view envelope only
	hub  *Hub
}

// offerView queues env, replacing any view the writer has not sent yet.
func (c *Client) offerView(env []byte) {
	select {
	case c.view <- env:
		return
	default:
	}
	select {
	case <-c.view:
	default:
	}
	select {
	case c.view <- env:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !c.write(msg) {
				return
			}
		case env := <-c.view:
			if !c.write(env) {
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

func (c *Client) write(msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, msg) == nil
}

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
		log.Printf("[api_gateway] ws client %s disconnected", c.id)
	}()

	c.conn.SetReadLimit(maxReadBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg ActionMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("", "invalid message: "+err.Error())
			continue
		}

		if msg.Type == "" && msg.Ping > 0 {
			c.sendJSON(PongResponse{Type: "pong", Ping: msg.Ping, ServerTS: time.Now().UnixMilli()})
			continue
		}

		c.handleAction(msg)
	}
}

func (c *Client) handleAction(msg ActionMsg) {
	ctx, cancel := context.WithTimeout(context.Background(), actionWait)
	defer cancel()

	if err := Apply(ctx, c.hub.session, msg); err != nil {
		log.Printf("[api_gateway] ws client %s action %q rejected: %v", c.id, msg.Type, err)
		c.sendError(msg.ReqID, err.Error())
		return
	}
	var seq uint64
	if v := c.hub.session.Snapshot(); v != nil {
		seq = v.Seq
	}
	c.sendJSON(AckResponse{Type: "ack", ReqID: msg.ReqID, Seq: seq})
}

func (c *Client) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[api_gateway] json marshal error: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Println("[api_gateway] client send buffer full, dropping message")
	}
}

func (c *Client) sendError(reqID, errMsg string) {
	c.sendJSON(ErrorResponse{Type: "error", ReqID: reqID, Error: errMsg})
}
