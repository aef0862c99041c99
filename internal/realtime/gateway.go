// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package realtime

// Gateway bundles one hub with its dispatcher. The server runs two
// gateways, "events" and "chat", each with fully independent state: a
// connection on one never receives notifications dispatched on the other.
type Gateway struct {
	Hub        *Hub
	Dispatcher *Dispatcher
}

// NewGateway creates a named gateway with an empty hub and a dispatcher
// wired to it.
func NewGateway(name string) *Gateway {
	hub := NewHub(name)
	return &Gateway{
		Hub:        hub,
		Dispatcher: NewDispatcher(name, hub.Registry(), hub),
	}
}

// Name returns the gateway name.
func (g *Gateway) Name() string {
	return g.Hub.Name()
}
