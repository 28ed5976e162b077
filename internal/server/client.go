package server

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jremy42/42-ft-transcendence/internal/game"
	"github.com/jremy42/42-ft-transcendence/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum inbound message size in bytes.
	maxMessageSize = 4096
)

// client binds one WebSocket connection to a validated user identity and a
// session handle. The handle is what the rest of the system sees; the
// websocket.Conn never leaves this file.
type client struct {
	srv    *Server
	user   game.User
	conn   *websocket.Conn
	handle *session.ChannelHandle
}

// readPump consumes inbound frames until the connection drops, then
// surfaces the disconnect to the cluster.
func (c *client) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.srv.logger.Debug("unexpected close", "userId", c.user.ID, "err", err)
			}
			return
		}
		var msg envelope
		if err := json.Unmarshal(data, &msg); err != nil {
			c.handle.Send(errorEvent{Code: "InvalidInput", Message: "malformed message"})
			continue
		}
		c.srv.dispatch(c, msg)
	}
}

// writePump serializes session events onto the wire and keeps the
// connection alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt := <-c.handle.Events():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(outEnvelope{Event: evt.EventName(), Data: evt}); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.handle.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
			return
		}
	}
}

// teardown runs once when the read side ends: evict the user from any
// match, drop presence, and release the session.
func (c *client) teardown() {
	c.conn.Close()
	c.handle.Close()
	c.srv.hub.Unregister(c.handle.ID())
	c.srv.cluster.Disconnect(c.user.ID)
	c.srv.logger.Info("session closed", "userId", c.user.ID, "session", c.handle.ID())
}
