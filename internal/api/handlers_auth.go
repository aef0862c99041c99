// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package api

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gatherhub/gatherhub/internal/auth"
	"github.com/gatherhub/gatherhub/internal/database"
	"github.com/gatherhub/gatherhub/internal/logging"
	"github.com/gatherhub/gatherhub/internal/models"
)

// LoginResponse is the payload returned from register and login.
type LoginResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      models.PublicUser `json:"user"`
}

// Register handles POST /api/v1/auth/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("Invalid registration request", details)
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		rw.BadRequest("Password not usable")
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
	}
	if err := h.db.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			rw.Conflict("Username or email already taken")
			return
		}
		rw.DatabaseError(err)
		return
	}

	token, expiresAt, err := h.issueSession(r, user)
	if err != nil {
		rw.InternalError("Failed to create session")
		return
	}

	logging.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	rw.Created(LoginResponse{Token: token, ExpiresAt: expiresAt, User: user.Public()})
}

// Login handles POST /api/v1/auth/login. Failed attempts are rate limited
// per client address.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	addr := clientAddr(r)
	if h.limiter != nil && !h.limiter.Allow(addr) {
		rw.Error(http.StatusTooManyRequests, ErrCodeTooManyRequests, "Too many login attempts, try again later")
		return
	}

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("Invalid login request", details)
		return
	}

	user, err := h.db.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Same response as a wrong password so usernames stay unguessable.
			rw.Unauthorized("Invalid credentials")
			return
		}
		rw.DatabaseError(err)
		return
	}
	if err := h.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		logging.Warn().Str("username", req.Username).Str("addr", addr).Msg("failed login attempt")
		rw.Unauthorized("Invalid credentials")
		return
	}

	token, expiresAt, err := h.issueSession(r, user)
	if err != nil {
		rw.InternalError("Failed to create session")
		return
	}

	logging.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user logged in")
	rw.Success(LoginResponse{Token: token, ExpiresAt: expiresAt, User: user.Public()})
}

// issueSession generates a token and stores the backing session.
func (h *Handlers) issueSession(r *http.Request, user *models.User) (string, time.Time, error) {
	token, sessionID, err := h.jwt.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", time.Time{}, err
	}

	now := time.Now().UTC()
	expiresAt := now.Add(h.jwt.Timeout())
	session := &auth.Session{
		ID:             sessionID,
		UserID:         user.ID,
		CreatedAt:      now,
		ExpiresAt:      expiresAt,
		LastAccessedAt: now,
	}
	if err := h.sessions.Create(r.Context(), session); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Logout handles POST /api/v1/auth/logout: it revokes the current session,
// invalidating the token immediately.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}

	if err := h.sessions.Delete(r.Context(), id.SessionID); err != nil {
		rw.InternalError("Failed to revoke session")
		return
	}
	logging.Info().Int64("user_id", id.UserID).Msg("user logged out")
	rw.NoContent()
}

// Me handles GET /api/v1/users/me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}

	user, err := h.db.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(user)
}

// UpdateMe handles PUT /api/v1/users/me.
func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("Invalid profile update", details)
		return
	}

	if err := h.db.UpdateUserProfile(r.Context(), id.UserID, req.DisplayName, req.AvatarURL); err != nil {
		respondServiceError(rw, err)
		return
	}
	user, err := h.db.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(user)
}

// ListUsers handles GET /api/v1/users.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	limit, offset := h.pagination(r)

	users, err := h.db.ListUsers(r.Context(), limit, offset)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.SuccessWithPagination(users, &PaginationMeta{
		Count:   len(users),
		Offset:  offset,
		Limit:   limit,
		HasMore: len(users) == limit,
	})
}

// clientAddr strips the port from RemoteAddr. Behind the RealIP middleware
// this is the originating client address.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
