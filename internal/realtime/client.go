// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package realtime

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gatherhub/gatherhub/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // 64 KB; client frames are tiny
)

// Client connection states. A client moves strictly forward:
// unregistered -> registered -> closed, except that a client may close
// without ever registering.
const (
	stateUnregistered int32 = iota
	stateRegistered
	stateClosed
)

// Client is the middleman between one websocket connection and its hub.
// The user id is fixed at handshake time from the authenticated session;
// the register frame only advances the lifecycle state.
type Client struct {
	id     string
	userID int64
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message
	state  atomic.Int32
}

// NewClient creates a client for an upgraded connection owned by hub.
func NewClient(hub *Hub, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan Message, 256),
	}
}

// ID returns the unique connection id.
func (c *Client) ID() string {
	return c.id
}

// UserID returns the authenticated user this connection belongs to.
func (c *Client) UserID() int64 {
	return c.userID
}

// Registered reports whether the register frame has been processed.
func (c *Client) Registered() bool {
	return c.state.Load() == stateRegistered
}

// readPump pumps frames from the websocket connection until it closes, then
// detaches the client from the hub.
func (c *Client) readPump() {
	defer func() {
		c.state.Store(stateClosed)
		c.hub.Detach(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Str("conn_id", c.id).Msg("unexpected websocket close error")
			}
			break
		}

		switch msg.Type {
		case FrameTypeRegister:
			c.handleRegister(msg)

		case FrameTypePing:
			pong := Message{Type: FrameTypePong}
			select {
			case c.send <- pong:
			default:
			}

		default:
			// Unknown frame types are ignored; clients only push the
			// register frame and keepalives.
			logging.Debug().
				Str("conn_id", c.id).
				Str("type", msg.Type).
				Msg("ignoring unexpected client frame")
		}
	}
}

// handleRegister advances the lifecycle state and binds the authenticated
// user in the registry. The userId the client asserts is compared against
// the session identity purely for diagnostics; it never overrides it.
func (c *Client) handleRegister(msg Message) {
	raw, err := json.Marshal(msg.Data)
	if err == nil {
		var frame registerFrame
		if err := json.Unmarshal(raw, &frame); err == nil && frame.UserID != 0 && frame.UserID != c.userID {
			logging.Warn().
				Str("gateway", c.hub.name).
				Str("conn_id", c.id).
				Int64("claimed_user_id", frame.UserID).
				Int64("authenticated_user_id", c.userID).
				Msg("register frame user id mismatch, using authenticated identity")
		}
	}

	if c.state.CompareAndSwap(stateUnregistered, stateRegistered) {
		c.hub.Activate(c)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Error().Err(err).Msg("failed to write close message")
				}
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Str("conn_id", c.id).Msg("failed to write JSON message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start attaches the client to its hub and begins the read and write pumps.
func (c *Client) Start() {
	c.hub.Attach(c)
	go c.writePump()
	go c.readPump()
}
