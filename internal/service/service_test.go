// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package service

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gatherhub/gatherhub/internal/config"
	"github.com/gatherhub/gatherhub/internal/database"
	"github.com/gatherhub/gatherhub/internal/logging"
	"github.com/gatherhub/gatherhub/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

// recordedCall captures one dispatcher invocation.
type recordedCall struct {
	method  string // "user", "users", "broadcast"
	userIDs []int64
	payload models.Notification
}

// fakeNotifier records dispatch calls for assertions.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeNotifier) NotifyUser(userID int64, n models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{method: "user", userIDs: []int64{userID}, payload: n})
}

func (f *fakeNotifier) NotifyUsers(userIDs []int64, n models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{method: "users", userIDs: userIDs, payload: n})
}

func (f *fakeNotifier) Broadcast(n models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{method: "broadcast", payload: n})
}

func (f *fakeNotifier) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeNotifier) recorded() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

// fakeFeed records published activity entries.
type fakeFeed struct {
	mu      sync.Mutex
	entries []*models.ActivityEntry
}

func (f *fakeFeed) Publish(entry *models.ActivityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeFeed) verbs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	verbs := make([]string, len(f.entries))
	for i, e := range f.entries {
		verbs[i] = e.Verb
	}
	return verbs
}

// newTestStore opens a fresh database in a temp directory.
func newTestStore(t *testing.T) *database.DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "test.duckdb"),
		MaxMemory: "256MB",
		Threads:   1,
	}
	db, err := database.New(cfg)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// createTestUser inserts a user with a unique username.
func createTestUser(t *testing.T, db *database.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		DisplayName:  "Test " + username,
		PasswordHash: "x",
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return u
}
