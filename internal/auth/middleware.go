// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package auth

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/gatherhub/gatherhub/internal/logging"
)

// Identity is the authenticated principal attached to a request context.
type Identity struct {
	UserID    int64
	Username  string
	Role      string
	SessionID string
}

type contextKey string

const identityKey contextKey = "auth_identity"

// IdentityFromContext returns the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}

// ContextWithIdentity attaches an identity to a context. Exported for
// handler tests.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Authenticator validates tokens and resolves request identities. A token
// is accepted only when its signature verifies AND its session is still
// live, so logout revokes the token immediately.
type Authenticator struct {
	jwt      *JWTManager
	sessions SessionStore
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(jwt *JWTManager, sessions SessionStore) *Authenticator {
	return &Authenticator{jwt: jwt, sessions: sessions}
}

// TokenFromRequest extracts the bearer token from the Authorization header,
// falling back to the "token" query parameter. The fallback exists for
// websocket handshakes, where browsers cannot set custom headers.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimPrefix(h, "Bearer ")
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// Authenticate resolves the identity for a request token.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Identity, error) {
	claims, err := a.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	if _, err := a.sessions.Get(ctx, claims.ID); err != nil {
		return nil, err
	}

	return &Identity{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		SessionID: claims.ID,
	}, nil
}

// RequireAuth rejects requests without a valid, unrevoked token and
// attaches the identity to the request context.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}

		identity, err := a.Authenticate(r.Context(), token)
		if err != nil {
			logging.Debug().Err(err).Str("path", r.URL.Path).Msg("authentication rejected")
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

// RequireAdmin rejects authenticated requests from non-admin users. Must be
// mounted inside RequireAuth.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok || identity.Role != "admin" {
			writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeAuthError writes the standard error envelope without importing the
// api package (which depends on this one).
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   map[string]string{"code": code, "message": message},
	})
}

// LoginLimiter rate-limits credential attempts per client IP to slow brute
// forcing. Limiters are dropped after a period of inactivity to bound
// memory.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*loginLimiterEntry
	rate     rate.Limit
	burst    int
}

type loginLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter creates a limiter allowing attempts per window with the
// given burst.
func NewLoginLimiter(attempts int, window time.Duration) *LoginLimiter {
	l := &LoginLimiter{
		limiters: make(map[string]*loginLimiterEntry),
		rate:     rate.Every(window / time.Duration(attempts)),
		burst:    attempts,
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether a login attempt from addr may proceed.
func (l *LoginLimiter) Allow(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[host]
	if !ok {
		entry = &loginLimiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[host] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

func (l *LoginLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-30 * time.Minute)
		l.mu.Lock()
		for host, entry := range l.limiters {
			if entry.lastSeen.Before(cutoff) {
				delete(l.limiters, host)
			}
		}
		l.mu.Unlock()
	}
}
