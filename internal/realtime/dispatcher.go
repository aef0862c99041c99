// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package realtime

import (
	"github.com/gatherhub/gatherhub/internal/logging"
	"github.com/gatherhub/gatherhub/internal/metrics"
	"github.com/gatherhub/gatherhub/internal/models"
)

// ConnectionSink is the delivery surface the dispatcher fans out over. Hub
// satisfies it; tests substitute fakes.
type ConnectionSink interface {
	// Send queues a message on one connection without blocking.
	Send(connID string, msg Message) error
	// Connections returns a snapshot of every attached connection id.
	Connections() []string
}

// Dispatcher fans notifications out to connections. Delivery is best-effort
// and at-most-once: a failed or slow connection is skipped and logged, never
// retried, and never blocks delivery to other connections. Offline users are
// silently skipped.
type Dispatcher struct {
	name     string
	registry *Registry
	sink     ConnectionSink
}

// NewDispatcher creates a dispatcher fanning out over sink, targeting users
// through registry.
func NewDispatcher(name string, registry *Registry, sink ConnectionSink) *Dispatcher {
	return &Dispatcher{
		name:     name,
		registry: registry,
		sink:     sink,
	}
}

// NotifyUser delivers a notification to every registered connection of one
// user. A user with no registered connections is a silent no-op.
func (d *Dispatcher) NotifyUser(userID int64, n models.Notification) {
	conns := d.registry.ConnectionsFor(userID)
	if len(conns) == 0 {
		return
	}

	msg := Message{Type: n.Kind(), Data: n}
	for _, connID := range conns {
		d.deliver(connID, msg)
	}
}

// NotifyUsers delivers a notification to every registered connection of each
// listed user. Duplicate user ids fan out once per appearance; callers are
// expected to pass distinct recipients.
func (d *Dispatcher) NotifyUsers(userIDs []int64, n models.Notification) {
	for _, userID := range userIDs {
		d.NotifyUser(userID, n)
	}
}

// Broadcast delivers a notification to every attached connection, registered
// or not. The registry is not consulted.
func (d *Dispatcher) Broadcast(n models.Notification) {
	msg := Message{Type: n.Kind(), Data: n}
	for _, connID := range d.sink.Connections() {
		d.deliver(connID, msg)
	}
}

// deliver sends to one connection, isolating failures to that connection.
func (d *Dispatcher) deliver(connID string, msg Message) {
	if err := d.sink.Send(connID, msg); err != nil {
		metrics.RecordNotificationDropped(d.name, msg.Type)
		logging.Warn().
			Err(err).
			Str("gateway", d.name).
			Str("conn_id", connID).
			Str("kind", msg.Type).
			Msg("notification dropped")
		return
	}
	metrics.RecordNotificationDelivered(d.name, msg.Type)
}
