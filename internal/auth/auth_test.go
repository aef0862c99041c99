// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gatherhub/gatherhub/internal/config"
	"github.com/gatherhub/gatherhub/internal/logging"
	"github.com/gatherhub/gatherhub/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		JWTSecret:      "0123456789abcdef0123456789abcdef",
		SessionTimeout: time.Hour,
		BcryptCost:     10,
	}
}

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}
	return m
}

func newTestSessionStore(t *testing.T) *BadgerSessionStore {
	t.Helper()
	store, err := NewBadgerSessionStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerSessionStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestJWTManagerRejectsShortSecret(t *testing.T) {
	cfg := testSecurityConfig()
	cfg.JWTSecret = "short"
	if _, err := NewJWTManager(cfg); err == nil {
		t.Error("expected error for short secret")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestJWTManager(t)

	token, sessionID, err := m.GenerateToken(42, "alice", models.RoleUser)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if sessionID == "" {
		t.Fatal("expected non-empty session id")
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" || claims.Role != models.RoleUser {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.ID != sessionID {
		t.Errorf("jti %q does not match session id %q", claims.ID, sessionID)
	}
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	m := newTestJWTManager(t)
	token, _, _ := m.GenerateToken(1, "alice", models.RoleUser)

	if _, err := m.ValidateToken(token + "x"); err == nil {
		t.Error("expected error for tampered token")
	}
	if _, err := m.ValidateToken("not-a-token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestValidateTokenRejectsDifferentSecret(t *testing.T) {
	m1 := newTestJWTManager(t)

	cfg := testSecurityConfig()
	cfg.JWTSecret = "ffffffffffffffffffffffffffffffff"
	m2, _ := NewJWTManager(cfg)

	token, _, _ := m1.GenerateToken(1, "alice", models.RoleUser)
	if _, err := m2.ValidateToken(token); err == nil {
		t.Error("expected error for token signed with different secret")
	}
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(10)

	hash, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if err := h.Compare(hash, "correct horse battery staple"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := h.Compare(hash, "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("expected ErrWrongPassword, got %v", err)
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	store := newTestSessionStore(t)
	ctx := context.Background()

	session := &Session{
		ID:        "sess-1",
		UserID:    1,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.UserID != 1 {
		t.Errorf("unexpected session: %+v", got)
	}

	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "sess-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}

	// Deleting again is a no-op.
	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
}

func TestSessionStoreDeleteByUserID(t *testing.T) {
	store := newTestSessionStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := store.Create(ctx, &Session{ID: id, UserID: 7, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Create(ctx, &Session{ID: "c", UserID: 8, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}

	n, err := store.DeleteByUserID(ctx, 7)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deleted, got %d err=%v", n, err)
	}
	if _, err := store.Get(ctx, "c"); err != nil {
		t.Errorf("other user's session should survive: %v", err)
	}
}

func TestSessionStoreRejectsExpired(t *testing.T) {
	store := newTestSessionStore(t)
	ctx := context.Background()

	err := store.Create(ctx, &Session{ID: "old", UserID: 1, ExpiresAt: time.Now().Add(-time.Minute)})
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired on create, got %v", err)
	}
}

func TestAuthenticatorRevocation(t *testing.T) {
	m := newTestJWTManager(t)
	store := newTestSessionStore(t)
	a := NewAuthenticator(m, store)
	ctx := context.Background()

	token, sessionID, _ := m.GenerateToken(1, "alice", models.RoleUser)
	session := &Session{ID: sessionID, UserID: 1, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	if err := store.Create(ctx, session); err != nil {
		t.Fatal(err)
	}

	identity, err := a.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if identity.UserID != 1 || identity.SessionID != sessionID {
		t.Errorf("unexpected identity: %+v", identity)
	}

	// Logout deletes the session; the still-valid JWT is now rejected.
	if err := store.Delete(ctx, sessionID); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Authenticate(ctx, token); err == nil {
		t.Error("expected rejection after session revocation")
	}
}

func TestRequireAuthMiddleware(t *testing.T) {
	m := newTestJWTManager(t)
	store := newTestSessionStore(t)
	a := NewAuthenticator(m, store)
	ctx := context.Background()

	token, sessionID, _ := m.GenerateToken(9, "bob", models.RoleUser)
	if err := store.Create(ctx, &Session{ID: sessionID, UserID: 9, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}

	var gotIdentity *Identity
	handler := a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Missing token.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	// Bearer header.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if gotIdentity == nil || gotIdentity.UserID != 9 {
		t.Errorf("expected identity for user 9, got %+v", gotIdentity)
	}

	// Query parameter fallback (websocket handshake path).
	req = httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with query token, got %d", rec.Code)
	}
}

func TestRequireAdminMiddleware(t *testing.T) {
	a := NewAuthenticator(newTestJWTManager(t), newTestSessionStore(t))

	handler := a.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithIdentity(req.Context(), &Identity{UserID: 1, Role: models.RoleUser}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithIdentity(req.Context(), &Identity{UserID: 1, Role: models.RoleAdmin}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", rec.Code)
	}
}

func TestLoginLimiter(t *testing.T) {
	l := NewLoginLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1:1234") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1:1234") {
		t.Error("fourth rapid attempt should be limited")
	}

	// Other addresses are unaffected.
	if !l.Allow("10.0.0.2:1234") {
		t.Error("different address should have its own limiter")
	}
}
