// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package realtime

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gatherhub/gatherhub/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	// Initialize logging for tests with discard output
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// setupHub creates a hub and runs its lifecycle loop under a test-scoped
// context.
func setupHub(t *testing.T, name string) *Hub {
	t.Helper()
	hub := NewHub(name)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.RunWithContext(ctx) }()
	time.Sleep(10 * time.Millisecond)
	return hub
}

// createTestClient creates a client without a real websocket connection.
func createTestClient(hub *Hub, userID int64) *Client {
	return NewClient(hub, nil, userID)
}

// attachClient attaches a client and waits for the run loop to process it.
func attachClient(hub *Hub, c *Client) {
	hub.Attach(c)
	time.Sleep(20 * time.Millisecond)
}

func TestNewHub(t *testing.T) {
	hub := NewHub("events")

	if hub.Name() != "events" {
		t.Errorf("expected name events, got %q", hub.Name())
	}
	if hub.Registry() == nil {
		t.Fatal("registry not initialized")
	}
	if hub.ConnectionCount() != 0 {
		t.Errorf("expected empty hub, got %d connections", hub.ConnectionCount())
	}
}

func TestHubAttachDetach(t *testing.T) {
	hub := setupHub(t, "events")

	c := createTestClient(hub, 1)
	attachClient(hub, c)

	if hub.ConnectionCount() != 1 {
		t.Fatalf("expected 1 connection after attach, got %d", hub.ConnectionCount())
	}
	conns := hub.Connections()
	if len(conns) != 1 || conns[0] != c.ID() {
		t.Errorf("expected connection snapshot [%s], got %v", c.ID(), conns)
	}

	hub.Detach(c)
	time.Sleep(20 * time.Millisecond)

	if hub.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections after detach, got %d", hub.ConnectionCount())
	}
}

func TestHubActivateBindsAuthenticatedUser(t *testing.T) {
	hub := setupHub(t, "events")

	c := createTestClient(hub, 7)
	attachClient(hub, c)

	// Attach alone leaves the connection unregistered.
	if got := hub.Registry().ConnectionsFor(7); len(got) != 0 {
		t.Fatalf("expected no registry binding before activation, got %v", got)
	}

	hub.Activate(c)
	time.Sleep(20 * time.Millisecond)

	got := hub.Registry().ConnectionsFor(7)
	if len(got) != 1 || got[0] != c.ID() {
		t.Errorf("expected registry binding [%s] for user 7, got %v", c.ID(), got)
	}
}

func TestHubDetachUnregisters(t *testing.T) {
	hub := setupHub(t, "chat")

	c := createTestClient(hub, 3)
	attachClient(hub, c)
	hub.Activate(c)
	time.Sleep(20 * time.Millisecond)

	hub.Detach(c)
	time.Sleep(20 * time.Millisecond)

	if got := hub.Registry().ConnectionsFor(3); len(got) != 0 {
		t.Errorf("expected registry cleared on detach, got %v", got)
	}
	if hub.Registry().UserCount() != 0 {
		t.Errorf("expected no registered users, got %d", hub.Registry().UserCount())
	}
}

func TestHubSend(t *testing.T) {
	hub := setupHub(t, "events")

	c := createTestClient(hub, 1)
	attachClient(hub, c)

	msg := Message{Type: "eventDeleted", Data: map[string]string{"eventId": "e1"}}
	if err := hub.Send(c.ID(), msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case got := <-c.send:
		if got.Type != "eventDeleted" {
			t.Errorf("expected eventDeleted frame, got %q", got.Type)
		}
	default:
		t.Fatal("message not queued on client send channel")
	}
}

func TestHubSendUnknownConnection(t *testing.T) {
	hub := setupHub(t, "events")

	err := hub.Send("no-such-conn", Message{Type: "ping"})
	if !errors.Is(err, ErrConnectionNotFound) {
		t.Errorf("expected ErrConnectionNotFound, got %v", err)
	}
}

func TestHubSendBufferFull(t *testing.T) {
	hub := setupHub(t, "events")

	c := createTestClient(hub, 1)
	c.send = make(chan Message) // unbuffered, nothing draining
	attachClient(hub, c)

	err := hub.Send(c.ID(), Message{Type: "ping"})
	if !errors.Is(err, ErrSendBufferFull) {
		t.Errorf("expected ErrSendBufferFull, got %v", err)
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub("events")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()
	time.Sleep(10 * time.Millisecond)

	c := createTestClient(hub, 1)
	attachClient(hub, c)
	hub.Activate(c)
	time.Sleep(20 * time.Millisecond)

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not stop within timeout")
	}

	if hub.ConnectionCount() != 0 {
		t.Errorf("expected all clients closed on shutdown, got %d", hub.ConnectionCount())
	}
	if hub.Registry().Len() != 0 {
		t.Errorf("expected registry cleared on shutdown, got %d", hub.Registry().Len())
	}

	// The send channel is closed so the write pump terminates.
	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected send channel closed")
		}
	default:
		t.Error("expected send channel closed, but it is still open and empty")
	}
}

// waitForConnections polls until the hub reports the wanted connection count.
func waitForConnections(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ConnectionCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("hub never reached %d connections, have %d", want, hub.ConnectionCount())
		}
		time.Sleep(time.Millisecond)
	}
}

// Send must keep queueing safely while connections detach underneath it: a
// detach closes the client's send channel, and a write racing that close
// would panic and abort a dispatcher fan-out mid-delivery.
func TestHubSendConcurrentWithDetach(t *testing.T) {
	hub := setupHub(t, "events")

	const n = 100
	clients := make([]*Client, n)
	for i := range clients {
		clients[i] = createTestClient(hub, int64(i+1))
		hub.Attach(clients[i])
	}
	waitForConnections(t, hub, n)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		msg := Message{Type: "eventUpdated"}
		for {
			select {
			case <-stop:
				return
			default:
			}
			for _, c := range clients {
				_ = hub.Send(c.ID(), msg)
			}
		}
	}()

	for _, c := range clients {
		hub.Detach(c)
	}
	waitForConnections(t, hub, 0)
	close(stop)
	wg.Wait()

	if err := hub.Send(clients[0].ID(), Message{Type: "ping"}); !errors.Is(err, ErrConnectionNotFound) {
		t.Errorf("expected ErrConnectionNotFound after detach, got %v", err)
	}
}

// A read pump unwinding after the run loop has exited must not block on the
// detach channel; shutdown already closed every client.
func TestHubDetachAfterShutdownReturns(t *testing.T) {
	hub := NewHub("events")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()
	time.Sleep(10 * time.Millisecond)

	c := createTestClient(hub, 1)
	attachClient(hub, c)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop within timeout")
	}

	finished := make(chan struct{})
	go func() {
		hub.Detach(c)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Detach blocked after hub shutdown")
	}
}

func TestGatewayIsolation(t *testing.T) {
	events := NewGateway("events")
	chat := NewGateway("chat")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = events.Hub.RunWithContext(ctx) }()
	go func() { _ = chat.Hub.RunWithContext(ctx) }()
	time.Sleep(10 * time.Millisecond)

	c := createTestClient(events.Hub, 1)
	attachClient(events.Hub, c)
	events.Hub.Activate(c)
	time.Sleep(20 * time.Millisecond)

	if got := chat.Hub.Registry().ConnectionsFor(1); len(got) != 0 {
		t.Errorf("chat gateway must not see events gateway registrations, got %v", got)
	}
	if chat.Hub.ConnectionCount() != 0 {
		t.Errorf("chat gateway must not see events gateway connections")
	}

	// Dispatch on chat reaches nobody even though the user is online on events.
	chat.Dispatcher.NotifyUser(1, testNotification())
	select {
	case msg := <-c.send:
		t.Errorf("events connection received chat-gateway notification: %v", msg)
	default:
	}
}
