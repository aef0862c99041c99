// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/gatherhub/gatherhub/internal/auth"
	"github.com/gatherhub/gatherhub/internal/config"
	"github.com/gatherhub/gatherhub/internal/database"
	"github.com/gatherhub/gatherhub/internal/logging"
	"github.com/gatherhub/gatherhub/internal/media"
	"github.com/gatherhub/gatherhub/internal/realtime"
	"github.com/gatherhub/gatherhub/internal/service"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

// testServer bundles the full HTTP stack for handler tests.
type testServer struct {
	srv      *httptest.Server
	db       *database.DB
	eventsGW *realtime.Gateway
	chatGW   *realtime.Gateway
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080, Timeout: 30 * time.Second, Environment: "test"},
		Database: config.DatabaseConfig{
			Path:      filepath.Join(dir, "test.duckdb"),
			MaxMemory: "256MB",
			Threads:   1,
		},
		Security: config.SecurityConfig{
			JWTSecret:         "0123456789abcdef0123456789abcdef",
			SessionTimeout:    time.Hour,
			SessionStorePath:  filepath.Join(dir, "sessions"),
			BcryptCost:        10,
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
		API:      config.APIConfig{DefaultPageSize: 20, MaxPageSize: 100},
		Media:    config.MediaConfig{MaxUploadBytes: 1 << 20, Timeout: time.Second, BreakerMaxFailures: 3, BreakerOpenInterval: time.Minute},
		Activity: config.ActivityConfig{BufferSize: 16, PersistWorker: 1},
		Logging:  config.LoggingConfig{Level: "error", Format: "console"},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := testConfig(t)

	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sessions, err := auth.NewBadgerSessionStore(cfg.Security.SessionStorePath)
	if err != nil {
		t.Fatalf("failed to open session store: %v", err)
	}
	t.Cleanup(func() { _ = sessions.Close() })

	jwtMgr, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("failed to create jwt manager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	eventsGW := realtime.NewGateway("events")
	chatGW := realtime.NewGateway("chat")
	go func() { _ = eventsGW.Hub.RunWithContext(ctx) }()
	go func() { _ = chatGW.Hub.RunWithContext(ctx) }()

	handlers := NewHandlers(HandlerDeps{
		Config:        cfg,
		DB:            db,
		Posts:         service.NewPostService(db, eventsGW.Dispatcher, nil),
		Events:        service.NewEventService(db, eventsGW.Dispatcher, nil),
		Chat:          service.NewChatService(db, chatGW.Dispatcher, nil),
		JWT:           jwtMgr,
		Sessions:      sessions,
		Authenticator: auth.NewAuthenticator(jwtMgr, sessions),
		Hasher:        auth.NewPasswordHasher(cfg.Security.BcryptCost),
		LoginLimiter:  auth.NewLoginLimiter(100, time.Minute),
		Uploader:      media.NewUploader(&cfg.Media),
		EventsGateway: eventsGW,
		ChatGateway:   chatGW,
	})

	srv := httptest.NewServer(NewRouter(cfg, handlers))
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, db: db, eventsGW: eventsGW, chatGW: chatGW}
}

// doJSON issues a request with an optional bearer token and decodes the
// envelope.
func (ts *testServer) doJSON(t *testing.T, method, path, token string, body interface{}) (int, *APIResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, &APIResponse{Success: true}
	}
	var envelope APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, &envelope
}

// registerUser registers a user and returns their token.
func (ts *testServer) registerUser(t *testing.T, username string) string {
	t.Helper()
	status, envelope := ts.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username":     username,
		"email":        username + "@example.com",
		"password":     "correct-horse-battery",
		"display_name": "Test " + username,
	})
	if status != http.StatusCreated {
		t.Fatalf("register returned %d: %+v", status, envelope.Error)
	}
	data := envelope.Data.(map[string]interface{})
	return data["token"].(string)
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	ts := newTestServer(t)

	token := ts.registerUser(t, "alice")

	// Duplicate username conflicts.
	status, envelope := ts.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username":     "alice",
		"email":        "alice2@example.com",
		"password":     "correct-horse-battery",
		"display_name": "Alice Again",
	})
	if status != http.StatusConflict || envelope.Error.Code != ErrCodeConflict {
		t.Errorf("expected 409 CONFLICT, got %d %+v", status, envelope.Error)
	}

	// The fresh token authenticates.
	status, envelope = ts.doJSON(t, http.MethodGet, "/api/v1/users/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("me returned %d: %+v", status, envelope.Error)
	}

	// Login with wrong password fails identically to unknown user.
	status, _ = ts.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong password, got %d", status)
	}
	status, _ = ts.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "nobody", "password": "wrong",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown user, got %d", status)
	}

	// Logout revokes the token immediately.
	status, _ = ts.doJSON(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("logout returned %d", status)
	}
	status, _ = ts.doJSON(t, http.MethodGet, "/api/v1/users/me", token, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", status)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/v1/posts", "/api/v1/events", "/api/v1/activity", "/api/v1/users/me"} {
		status, envelope := ts.doJSON(t, http.MethodGet, path, "", nil)
		if status != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, status)
		}
		if envelope.Error == nil || envelope.Error.Code != ErrCodeUnauthorized {
			t.Errorf("%s: expected UNAUTHORIZED error code, got %+v", path, envelope.Error)
		}
	}
}

func TestPostLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.registerUser(t, "alice")
	bob := ts.registerUser(t, "bob")

	status, envelope := ts.doJSON(t, http.MethodPost, "/api/v1/posts", alice, map[string]string{"text": "first post"})
	if status != http.StatusCreated {
		t.Fatalf("create post returned %d: %+v", status, envelope.Error)
	}
	post := envelope.Data.(map[string]interface{})
	postID := post["id"].(string)

	// Bob likes it.
	status, envelope = ts.doJSON(t, http.MethodPost, "/api/v1/posts/"+postID+"/like", bob, nil)
	if status != http.StatusOK {
		t.Fatalf("like returned %d: %+v", status, envelope.Error)
	}
	liked := envelope.Data.(map[string]interface{})
	if liked["like_count"].(float64) != 1 {
		t.Errorf("expected like_count 1, got %v", liked["like_count"])
	}

	// Bob cannot delete Alice's post.
	status, envelope = ts.doJSON(t, http.MethodDelete, "/api/v1/posts/"+postID, bob, nil)
	if status != http.StatusForbidden || envelope.Error.Code != ErrCodeForbidden {
		t.Errorf("expected 403 FORBIDDEN, got %d %+v", status, envelope.Error)
	}

	// Comments round-trip.
	status, envelope = ts.doJSON(t, http.MethodPost, "/api/v1/posts/"+postID+"/comments", bob, map[string]string{"text": "nice"})
	if status != http.StatusCreated {
		t.Fatalf("comment returned %d: %+v", status, envelope.Error)
	}
	status, envelope = ts.doJSON(t, http.MethodGet, "/api/v1/posts/"+postID+"/comments", alice, nil)
	if status != http.StatusOK {
		t.Fatalf("list comments returned %d", status)
	}
	comments := envelope.Data.([]interface{})
	if len(comments) != 1 {
		t.Errorf("expected 1 comment, got %d", len(comments))
	}
	if envelope.Meta == nil || envelope.Meta.Pagination == nil || envelope.Meta.Pagination.Count != 1 {
		t.Errorf("expected pagination meta with count 1, got %+v", envelope.Meta)
	}

	// Validation failures carry field details.
	status, envelope = ts.doJSON(t, http.MethodPost, "/api/v1/posts", alice, map[string]string{"text": ""})
	if status != http.StatusBadRequest || envelope.Error.Code != ErrCodeValidationFailed {
		t.Errorf("expected 400 VALIDATION_FAILED, got %d %+v", status, envelope.Error)
	}
}

func TestEventLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	organizer := ts.registerUser(t, "organizer")
	attendee := ts.registerUser(t, "attendee")

	startsAt := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	status, envelope := ts.doJSON(t, http.MethodPost, "/api/v1/events", organizer, map[string]interface{}{
		"title":     "Launch Party",
		"starts_at": startsAt,
	})
	if status != http.StatusCreated {
		t.Fatalf("create event returned %d: %+v", status, envelope.Error)
	}
	event := envelope.Data.(map[string]interface{})
	eventID := event["id"].(string)
	if event["published"].(bool) {
		t.Error("expected draft event")
	}

	// Drafts are hidden from others.
	status, _ = ts.doJSON(t, http.MethodGet, "/api/v1/events/"+eventID, attendee, nil)
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for stranger reading draft, got %d", status)
	}

	// Registration on a draft is rejected.
	status, _ = ts.doJSON(t, http.MethodPost, "/api/v1/events/"+eventID+"/register", attendee, nil)
	if status != http.StatusForbidden {
		t.Errorf("expected 403 registering for draft, got %d", status)
	}

	// Publish, then register.
	status, envelope = ts.doJSON(t, http.MethodPost, "/api/v1/events/"+eventID+"/publish", organizer, nil)
	if status != http.StatusOK {
		t.Fatalf("publish returned %d: %+v", status, envelope.Error)
	}
	status, envelope = ts.doJSON(t, http.MethodPost, "/api/v1/events/"+eventID+"/register", attendee, nil)
	if status != http.StatusOK {
		t.Fatalf("register returned %d: %+v", status, envelope.Error)
	}
	registered := envelope.Data.(map[string]interface{})
	if registered["attendee_count"].(float64) != 1 {
		t.Errorf("expected attendee_count 1, got %v", registered["attendee_count"])
	}

	// Double publish is a 404 (the draft predicate no longer matches).
	status, _ = ts.doJSON(t, http.MethodPost, "/api/v1/events/"+eventID+"/publish", organizer, nil)
	if status != http.StatusNotFound {
		t.Errorf("expected 404 on double publish, got %d", status)
	}

	// Public listing now shows the event.
	status, envelope = ts.doJSON(t, http.MethodGet, "/api/v1/events", attendee, nil)
	if status != http.StatusOK {
		t.Fatalf("list events returned %d", status)
	}
	if events := envelope.Data.([]interface{}); len(events) != 1 {
		t.Errorf("expected 1 published event, got %d", len(events))
	}
}

func TestChatOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.registerUser(t, "alice")
	bob := ts.registerUser(t, "bob")
	eve := ts.registerUser(t, "eve")

	// Resolve bob's numeric id from the users listing.
	status, envelope := ts.doJSON(t, http.MethodGet, "/api/v1/users", alice, nil)
	if status != http.StatusOK {
		t.Fatalf("list users returned %d", status)
	}
	var bobID float64
	for _, raw := range envelope.Data.([]interface{}) {
		u := raw.(map[string]interface{})
		if u["username"] == "bob" {
			bobID = u["id"].(float64)
		}
	}
	if bobID == 0 {
		t.Fatal("bob not found in users listing")
	}

	status, envelope = ts.doJSON(t, http.MethodPost, "/api/v1/chat/conversations", alice, map[string]interface{}{
		"direct":          true,
		"participant_ids": []int64{int64(bobID)},
	})
	if status != http.StatusCreated {
		t.Fatalf("create conversation returned %d: %+v", status, envelope.Error)
	}
	convID := envelope.Data.(map[string]interface{})["id"].(string)

	status, envelope = ts.doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/chat/conversations/%s/messages", convID), alice, map[string]string{
		"text": "hi bob", "temp_id": "tmp-9",
	})
	if status != http.StatusCreated {
		t.Fatalf("send message returned %d: %+v", status, envelope.Error)
	}
	msg := envelope.Data.(map[string]interface{})
	if msg["temp_id"] != "tmp-9" {
		t.Errorf("expected temp_id echoed, got %v", msg["temp_id"])
	}

	// Outsiders cannot read the conversation.
	status, _ = ts.doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/chat/conversations/%s/messages", convID), eve, nil)
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for outsider, got %d", status)
	}

	// Mark seen and verify the seen set.
	status, _ = ts.doJSON(t, http.MethodPut, fmt.Sprintf("/api/v1/chat/conversations/%s/seen", convID), bob, nil)
	if status != http.StatusNoContent {
		t.Fatalf("mark seen returned %d", status)
	}
	status, envelope = ts.doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/chat/conversations/%s/messages", convID), bob, nil)
	if status != http.StatusOK {
		t.Fatalf("list messages returned %d", status)
	}
	msgs := envelope.Data.([]interface{})
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	seenBy := msgs[0].(map[string]interface{})["seen_by"].([]interface{})
	if len(seenBy) != 1 || seenBy[0].(float64) != bobID {
		t.Errorf("expected seen_by [bob], got %v", seenBy)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	status, envelope := ts.doJSON(t, http.MethodGet, "/api/v1/health", "", nil)
	if status != http.StatusOK {
		t.Fatalf("health returned %d", status)
	}
	health := envelope.Data.(map[string]interface{})
	if health["status"] != "ok" || health["database"] != "ok" {
		t.Errorf("unexpected health payload: %+v", health)
	}
	gateways := health["gateways"].(map[string]interface{})
	for _, name := range []string{"events", "chat"} {
		gw, ok := gateways[name].(map[string]interface{})
		if !ok {
			t.Fatalf("gateway %q missing from health payload", name)
		}
		if gw["connections"].(float64) != 0 || gw["registered_users"].(float64) != 0 {
			t.Errorf("gateway %q: expected zero counts, got %+v", name, gw)
		}
	}

	status, _ = ts.doJSON(t, http.MethodGet, "/api/v1/health/live", "", nil)
	if status != http.StatusOK {
		t.Errorf("live returned %d", status)
	}
	status, _ = ts.doJSON(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	if status != http.StatusOK {
		t.Errorf("ready returned %d", status)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.srv.Client().Get(ts.srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics returned %d", resp.StatusCode)
	}
}
