// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package activity

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gatherhub/gatherhub/internal/config"
	"github.com/gatherhub/gatherhub/internal/logging"
	"github.com/gatherhub/gatherhub/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

// memStore collects persisted entries, optionally failing first.
type memStore struct {
	mu       sync.Mutex
	entries  []models.ActivityEntry
	failures int
}

func (s *memStore) InsertActivity(ctx context.Context, entry *models.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("simulated insert failure")
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func testPipeline(t *testing.T, store *memStore) *Pipeline {
	t.Helper()
	p := NewPipeline(&config.ActivityConfig{BufferSize: 16, PersistWorker: 1}, store)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = p.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = p.Close()
	})
	time.Sleep(20 * time.Millisecond)
	return p
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestPipelinePersistsEntries(t *testing.T) {
	store := &memStore{}
	p := testPipeline(t, store)

	entry := &models.ActivityEntry{
		ID:      uuid.New(),
		ActorID: 1,
		Verb:    "created",

		ObjectType: "post",
		ObjectID:   "p1",
		OccurredAt: time.Now().UTC(),
	}
	if err := p.Publish(entry); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	waitFor(t, time.Second, func() bool { return store.count() == 1 })

	store.mu.Lock()
	got := store.entries[0]
	store.mu.Unlock()
	if got.ID != entry.ID || got.Verb != "created" {
		t.Errorf("unexpected persisted entry: %+v", got)
	}
}

func TestPipelineSurvivesPersistFailure(t *testing.T) {
	store := &memStore{failures: 1}
	p := testPipeline(t, store)

	// First entry fails to persist; the pipeline keeps running.
	if err := p.Publish(&models.ActivityEntry{ID: uuid.New(), ActorID: 1, Verb: "a", ObjectType: "post", ObjectID: "1"}); err != nil {
		t.Fatal(err)
	}
	if err := p.Publish(&models.ActivityEntry{ID: uuid.New(), ActorID: 1, Verb: "b", ObjectType: "post", ObjectID: "2"}); err != nil {
		t.Fatal(err)
	}

	waitFor(t, time.Second, func() bool { return store.count() == 1 })

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.entries[0].Verb != "b" {
		t.Errorf("expected second entry persisted, got %+v", store.entries[0])
	}
}
