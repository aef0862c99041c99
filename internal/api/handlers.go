// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/gatherhub/gatherhub/internal/auth"
	"github.com/gatherhub/gatherhub/internal/config"
	"github.com/gatherhub/gatherhub/internal/database"
	"github.com/gatherhub/gatherhub/internal/media"
	"github.com/gatherhub/gatherhub/internal/realtime"
	"github.com/gatherhub/gatherhub/internal/service"
)

// Handlers bundles every HTTP handler with its dependencies. One instance
// serves all routes.
type Handlers struct {
	cfg      *config.Config
	db       *database.DB
	posts    *service.PostService
	events   *service.EventService
	chat     *service.ChatService
	jwt      *auth.JWTManager
	sessions auth.SessionStore
	authn    *auth.Authenticator
	hasher   *auth.PasswordHasher
	limiter  *auth.LoginLimiter
	uploader *media.Uploader

	// eventsGW and chatGW are the two real-time gateways. Notification
	// fanout happens in the services; the handlers only expose the
	// websocket endpoints and health counts.
	eventsGW *realtime.Gateway
	chatGW   *realtime.Gateway
}

// HandlerDeps carries the dependencies for NewHandlers.
type HandlerDeps struct {
	Config        *config.Config
	DB            *database.DB
	Posts         *service.PostService
	Events        *service.EventService
	Chat          *service.ChatService
	JWT           *auth.JWTManager
	Sessions      auth.SessionStore
	Authenticator *auth.Authenticator
	Hasher        *auth.PasswordHasher
	LoginLimiter  *auth.LoginLimiter
	Uploader      *media.Uploader
	EventsGateway *realtime.Gateway
	ChatGateway   *realtime.Gateway
}

// NewHandlers creates the handler set.
func NewHandlers(deps HandlerDeps) *Handlers {
	return &Handlers{
		cfg:      deps.Config,
		db:       deps.DB,
		posts:    deps.Posts,
		events:   deps.Events,
		chat:     deps.Chat,
		jwt:      deps.JWT,
		sessions: deps.Sessions,
		authn:    deps.Authenticator,
		hasher:   deps.Hasher,
		limiter:  deps.LoginLimiter,
		uploader: deps.Uploader,
		eventsGW: deps.EventsGateway,
		chatGW:   deps.ChatGateway,
	}
}

// identity returns the authenticated identity or writes a 401. The auth
// middleware guarantees presence on protected routes; this guards against
// wiring mistakes.
func (h *Handlers) identity(rw *ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		rw.Unauthorized("Authentication required")
		return nil, false
	}
	return id, true
}

// pathUUID parses a uuid path parameter or writes a 400.
func pathUUID(rw *ResponseWriter, value string) (uuid.UUID, bool) {
	id, err := uuid.Parse(value)
	if err != nil {
		rw.BadRequest("Invalid id: must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// pagination resolves limit/offset query parameters against the configured
// page size bounds.
func (h *Handlers) pagination(r *http.Request) (limit, offset int) {
	limit = getIntParam(r, "limit", h.cfg.API.DefaultPageSize)
	if limit < 1 || limit > h.cfg.API.MaxPageSize {
		limit = h.cfg.API.DefaultPageSize
	}
	offset = getIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// respondServiceError maps domain errors to HTTP responses.
func respondServiceError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		rw.NotFound("Resource not found")
	case errors.Is(err, database.ErrDuplicate):
		rw.Conflict("Resource already exists")
	case errors.Is(err, service.ErrForbidden):
		rw.Forbidden("You are not allowed to do that")
	case errors.Is(err, service.ErrEmptyMessage):
		rw.BadRequest("Message needs text or an image")
	default:
		rw.DatabaseError(err)
	}
}
