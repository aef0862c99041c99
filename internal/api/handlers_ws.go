// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gatherhub/gatherhub/internal/logging"
	"github.com/gatherhub/gatherhub/internal/realtime"
)

// EventsWebSocket handles GET /api/v1/events/ws: the events gateway
// websocket endpoint.
func (h *Handlers) EventsWebSocket(w http.ResponseWriter, r *http.Request) {
	h.serveWebSocket(w, r, h.eventsGW)
}

// ChatWebSocket handles GET /api/v1/chat/ws: the chat gateway websocket
// endpoint.
func (h *Handlers) ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	h.serveWebSocket(w, r, h.chatGW)
}

// serveWebSocket upgrades the connection and hands it to the gateway's hub.
// The auth middleware has already resolved the identity (browser clients
// pass the token as a query parameter since websockets cannot set an
// Authorization header); the connection's user is fixed here, at handshake
// time, and a later register frame cannot change it.
func (h *Handlers) serveWebSocket(w http.ResponseWriter, r *http.Request, gw *realtime.Gateway) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Str("gateway", gw.Name()).Msg("WebSocket upgrade error")
		return
	}

	client := realtime.NewClient(gw.Hub, conn, id.UserID)
	client.Start()

	logging.Debug().
		Str("gateway", gw.Name()).
		Int64("user_id", id.UserID).
		Msg("websocket connection established")
}

// upgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handlers) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates the connection's Origin header. Browser
// websockets always send Origin; non-browser clients (mobile apps, tests)
// omit it and are allowed through since they are not subject to CORS.
func (h *Handlers) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
