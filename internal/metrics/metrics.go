// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

// Package metrics provides Prometheus instrumentation for GatherHub:
// API endpoint latency and throughput, database query performance,
// real-time gateway connection counts, and notification fan-out outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Real-time Gateway Metrics
	GatewayConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_open_connections",
			Help: "Current number of open websocket connections per gateway",
		},
		[]string{"gateway"},
	)

	GatewayRegisteredUsers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_registered_users",
			Help: "Current number of users with at least one registered connection per gateway",
		},
		[]string{"gateway"},
	)

	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_notifications_delivered_total",
			Help: "Total notifications successfully handed to a connection send buffer",
		},
		[]string{"gateway", "kind"},
	)

	NotificationsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_notifications_dropped_total",
			Help: "Total notifications dropped (closed connection or full send buffer)",
		},
		[]string{"gateway", "kind"},
	)

	// Activity Pipeline Metrics
	ActivityPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_entries_published_total",
			Help: "Total activity entries published to the in-process pipeline",
		},
	)

	ActivityPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_persist_failures_total",
			Help: "Total activity entries that failed to persist",
		},
	)

	// Media Upload Metrics
	MediaUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploads_total",
			Help: "Total media upload attempts by outcome",
		},
		[]string{"outcome"}, // "ok", "error", "breaker_open"
	)
)

// RecordAPIRequest records metrics for an API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDBQuery records duration and outcome for a database query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// SetGatewayConnections updates the open connection gauge for a gateway.
func SetGatewayConnections(gateway string, n int) {
	GatewayConnections.WithLabelValues(gateway).Set(float64(n))
}

// SetGatewayRegisteredUsers updates the registered user gauge for a gateway.
func SetGatewayRegisteredUsers(gateway string, n int) {
	GatewayRegisteredUsers.WithLabelValues(gateway).Set(float64(n))
}

// RecordNotificationDelivered counts one successful notification hand-off.
func RecordNotificationDelivered(gateway, kind string) {
	NotificationsDelivered.WithLabelValues(gateway, kind).Inc()
}

// RecordNotificationDropped counts one dropped notification.
func RecordNotificationDropped(gateway, kind string) {
	NotificationsDropped.WithLabelValues(gateway, kind).Inc()
}

// RecordActivityPublished counts one activity entry handed to the pipeline.
func RecordActivityPublished() {
	ActivityPublished.Inc()
}

// RecordActivityPersistFailure counts one failed activity persist.
func RecordActivityPersistFailure() {
	ActivityPersistFailures.Inc()
}

// RecordMediaUpload counts one media upload attempt.
func RecordMediaUpload(outcome string) {
	MediaUploads.WithLabelValues(outcome).Inc()
}
