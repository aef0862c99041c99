// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ctxKey int

const (
	correlationIDKey ctxKey = iota
	requestIDKey
)

// GenerateCorrelationID returns a short id for correlating log lines across
// one request's handlers and services. Eight hex chars keep console output
// readable.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// GenerateRequestID returns a full UUID for the X-Request-ID header.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithNewCorrelationID stamps the context with a fresh correlation id.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return context.WithValue(ctx, correlationIDKey, GenerateCorrelationID())
}

// ContextWithRequestID stores the request id for later log enrichment.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the stored request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Ctx returns the global logger enriched with the request and correlation
// ids carried by ctx, when present.
func Ctx(ctx context.Context) zerolog.Logger {
	lctx := Logger().With()
	if id := RequestIDFromContext(ctx); id != "" {
		lctx = lctx.Str("request_id", id)
	}
	if id, _ := ctx.Value(correlationIDKey).(string); id != "" {
		lctx = lctx.Str("correlation_id", id)
	}
	return lctx.Logger()
}
