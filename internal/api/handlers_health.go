// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package api

import (
	"net/http"
	"time"

	"github.com/gatherhub/gatherhub/internal/realtime"
)

// Version is the build version, set via -ldflags at release time.
var Version = "dev"

var startTime = time.Now()

// GatewayStatus reports one real-time gateway's load.
type GatewayStatus struct {
	Connections     int `json:"connections"`
	RegisteredUsers int `json:"registered_users"`
}

// HealthStatus is the payload of GET /api/v1/health.
type HealthStatus struct {
	Status        string                   `json:"status"`
	Version       string                   `json:"version"`
	UptimeSeconds int64                    `json:"uptime_seconds"`
	Database      string                   `json:"database"`
	Gateways      map[string]GatewayStatus `json:"gateways"`
}

func gatewayStatus(g *realtime.Gateway) GatewayStatus {
	return GatewayStatus{
		Connections:     g.Hub.ConnectionCount(),
		RegisteredUsers: g.Hub.Registry().UserCount(),
	}
}

// Health handles GET /api/v1/health: full status including database
// reachability and per-gateway load.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := HealthStatus{
		Status:        "ok",
		Version:       Version,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		Database:      "ok",
		Gateways: map[string]GatewayStatus{
			h.eventsGW.Name(): gatewayStatus(h.eventsGW),
			h.chatGW.Name():   gatewayStatus(h.chatGW),
		},
	}
	if err := h.db.Ping(r.Context()); err != nil {
		status.Status = "degraded"
		status.Database = "unreachable"
	}
	rw.Success(status)
}

// HealthLive handles GET /api/v1/health/live: process liveness only.
func (h *Handlers) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady handles GET /api/v1/health/ready: the server is ready once
// the database answers.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.db.Ping(r.Context()); err != nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Database not ready")
		return
	}
	rw.Success(map[string]string{"status": "ready"})
}
