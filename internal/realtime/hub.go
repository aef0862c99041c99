// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package realtime

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/gatherhub/gatherhub/internal/logging"
	"github.com/gatherhub/gatherhub/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Frame types exchanged with clients. Server-to-client frames additionally
// use the notification kind constants from internal/models.
const (
	FrameTypeRegister = "register"
	FrameTypePing     = "ping"
	FrameTypePong     = "pong"
)

// Message is the wire envelope for a single websocket frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// registerFrame is the payload of a client register frame. The userId the
// client asserts is informational only; the identity bound in the registry
// always comes from the authenticated session.
type registerFrame struct {
	UserID int64 `json:"userId"`
}

// Send errors returned by Hub.Send. Callers treat both as per-connection
// delivery failures, never as fatal conditions.
var (
	ErrConnectionNotFound = errors.New("connection not attached to hub")
	ErrSendBufferFull     = errors.New("connection send buffer full")
)

// Hub owns the connection set of one gateway. Clients attach on handshake,
// activate when their register frame arrives, and detach on disconnect. The
// hub is the only writer of the client map and the registry, so dispatcher
// fan-out observes a consistent snapshot.
type Hub struct {
	name     string
	registry *Registry

	mu      sync.RWMutex
	clients map[string]*Client

	attach   chan *Client
	detach   chan *Client
	activate chan *Client

	// done is closed when the run loop exits so late Attach/Detach calls
	// from unwinding pumps return instead of blocking forever.
	done     chan struct{}
	doneOnce sync.Once
}

// NewHub creates a hub for the named gateway with an empty registry.
func NewHub(name string) *Hub {
	return &Hub{
		name:     name,
		registry: NewRegistry(),
		clients:  make(map[string]*Client),
		attach:   make(chan *Client),
		detach:   make(chan *Client),
		activate: make(chan *Client, 64),
		done:     make(chan struct{}),
	}
}

// Name returns the gateway name ("events" or "chat").
func (h *Hub) Name() string {
	return h.name
}

// Registry exposes the hub's connection registry for targeted dispatch.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Attach hands a freshly upgraded client to the hub run loop.
func (h *Hub) Attach(c *Client) {
	select {
	case h.attach <- c:
	case <-h.done:
	}
}

// Detach removes a client from the hub. Safe to call more than once for the
// same client; only the first call has any effect. After the run loop has
// exited, detach is a no-op — shutdown already closed every client.
func (h *Hub) Detach(c *Client) {
	select {
	case h.detach <- c:
	case <-h.done:
	}
}

// Activate binds the client's authenticated user in the registry. Called by
// the client read pump when the register frame arrives. Duplicate
// activations are harmless.
func (h *Hub) Activate(c *Client) {
	select {
	case h.activate <- c:
	default:
		// Activation backlog full; bind synchronously rather than lose the
		// registration.
		h.registry.Register(c.userID, c.id)
		metrics.SetGatewayRegisteredUsers(h.name, h.registry.UserCount())
	}
}

// RunWithContext runs the hub lifecycle loop until ctx is canceled. Designed
// for suture supervision; returns ctx.Err() after closing all clients.
//
// DETERMINISM: Uses priority-based selection to ensure predictable behavior:
// - Priority 1: Context cancellation (shutdown)
// - Priority 2: Client lifecycle events (attach/detach/activate)
// Go's select picks randomly among ready channels, so without the
// non-blocking pre-checks shutdown could lose to a busy lifecycle stream.
func (h *Hub) RunWithContext(ctx context.Context) error {
	defer h.doneOnce.Do(func() { close(h.done) })

	for {
		// Priority 1: Check for shutdown (highest priority, non-blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: Drain pending lifecycle events (non-blocking check)
		select {
		case c := <-h.attach:
			h.handleAttach(c)
			continue
		case c := <-h.detach:
			h.handleDetach(c)
			continue
		case c := <-h.activate:
			h.handleActivate(c)
			continue
		default:
		}

		// Blocking wait for the next event
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case c := <-h.attach:
			h.handleAttach(c)
		case c := <-h.detach:
			h.handleDetach(c)
		case c := <-h.activate:
			h.handleActivate(c)
		}
	}
}

// Serve implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	return h.RunWithContext(ctx)
}

func (h *Hub) String() string {
	return "realtime-hub-" + h.name
}

func (h *Hub) handleAttach(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	metrics.SetGatewayConnections(h.name, total)
	logging.Info().
		Str("gateway", h.name).
		Str("conn_id", c.id).
		Int64("user_id", c.userID).
		Int("total_connections", total).
		Msg("websocket client connected")
}

func (h *Hub) handleDetach(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	if ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}

	// Silent no-op when the client never sent a register frame.
	h.registry.Unregister(c.id)

	metrics.SetGatewayConnections(h.name, total)
	metrics.SetGatewayRegisteredUsers(h.name, h.registry.UserCount())
	logging.Info().
		Str("gateway", h.name).
		Str("conn_id", c.id).
		Int("total_connections", total).
		Msg("websocket client disconnected")
}

func (h *Hub) handleActivate(c *Client) {
	h.registry.Register(c.userID, c.id)
	metrics.SetGatewayRegisteredUsers(h.name, h.registry.UserCount())
	logging.Debug().
		Str("gateway", h.name).
		Str("conn_id", c.id).
		Int64("user_id", c.userID).
		Msg("websocket client registered")
}

// Send queues a message on one connection's outbound buffer without
// blocking. A full buffer or an unknown connection id is reported to the
// caller for per-connection failure accounting and never affects other
// connections.
func (h *Hub) Send(connID string, msg Message) error {
	// The write is queued while still holding the read lock: detach closes
	// c.send under the write lock, so a concurrent detach cannot close the
	// channel between the lookup and the send.
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[connID]
	if !ok {
		return ErrConnectionNotFound
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Connections returns a sorted snapshot of every attached connection id,
// registered or not. Broadcast fan-out uses this rather than the registry.
func (h *Hub) Connections() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ConnectionCount returns the number of attached connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// logGracefulShutdown closes all clients and logs structured shutdown
// information. ctx.Err() is not logged as an error because cancellation is
// expected behavior during graceful shutdown.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	closed := h.closeAllClients()

	logging.Info().
		Str("component", "realtime-hub").
		Str("gateway", h.name).
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", closed).
		Msg("realtime hub stopped")
}

// getShutdownReason determines the shutdown reason from the context error.
func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// closeAllClients closes every attached client in id order and clears the
// registry. Returns the number of clients closed.
func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		close(h.clients[id].send)
		h.registry.Unregister(id)
		delete(h.clients, id)
	}

	metrics.SetGatewayConnections(h.name, 0)
	metrics.SetGatewayRegisteredUsers(h.name, 0)
	return len(ids)
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
