// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package realtime

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()

	r.Register(1, "conn-a")
	r.Register(1, "conn-b")
	r.Register(2, "conn-c")

	conns := r.ConnectionsFor(1)
	if len(conns) != 2 {
		t.Fatalf("expected 2 connections for user 1, got %d", len(conns))
	}
	if conns[0] != "conn-a" || conns[1] != "conn-b" {
		t.Errorf("expected sorted [conn-a conn-b], got %v", conns)
	}

	if got := r.ConnectionsFor(2); len(got) != 1 || got[0] != "conn-c" {
		t.Errorf("expected [conn-c] for user 2, got %v", got)
	}

	if r.Len() != 3 {
		t.Errorf("expected 3 total connections, got %d", r.Len())
	}
	if r.UserCount() != 2 {
		t.Errorf("expected 2 users, got %d", r.UserCount())
	}
}

func TestRegistryRegisterIdempotent(t *testing.T) {
	r := NewRegistry()

	r.Register(1, "conn-a")
	r.Register(1, "conn-a")
	r.Register(1, "conn-a")

	if got := r.ConnectionsFor(1); len(got) != 1 {
		t.Errorf("expected 1 connection after duplicate registers, got %v", got)
	}
	if r.Len() != 1 {
		t.Errorf("expected Len 1, got %d", r.Len())
	}
}

func TestRegistryRebindMovesConnection(t *testing.T) {
	r := NewRegistry()

	r.Register(1, "conn-a")
	r.Register(2, "conn-a")

	if got := r.ConnectionsFor(1); len(got) != 0 {
		t.Errorf("expected no connections left for user 1, got %v", got)
	}
	if got := r.ConnectionsFor(2); len(got) != 1 || got[0] != "conn-a" {
		t.Errorf("expected [conn-a] for user 2, got %v", got)
	}
	if userID, ok := r.UserFor("conn-a"); !ok || userID != 2 {
		t.Errorf("expected conn-a bound to user 2, got %d ok=%v", userID, ok)
	}
	if r.UserCount() != 1 {
		t.Errorf("expected user 1 entry removed, UserCount=%d", r.UserCount())
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()

	r.Register(1, "conn-a")
	r.Register(1, "conn-b")

	r.Unregister("conn-a")
	if got := r.ConnectionsFor(1); len(got) != 1 || got[0] != "conn-b" {
		t.Errorf("expected [conn-b] after unregister, got %v", got)
	}

	// Last connection removes the user entry entirely.
	r.Unregister("conn-b")
	if got := r.ConnectionsFor(1); len(got) != 0 {
		t.Errorf("expected no connections, got %v", got)
	}
	if r.UserCount() != 0 {
		t.Errorf("expected 0 users after last unregister, got %d", r.UserCount())
	}
	if users := r.Users(); len(users) != 0 {
		t.Errorf("expected empty user list, got %v", users)
	}
}

func TestRegistryUnregisterUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Register(1, "conn-a")

	r.Unregister("never-registered")
	r.Unregister("conn-a")
	r.Unregister("conn-a") // double disconnect

	if r.Len() != 0 {
		t.Errorf("expected empty registry, Len=%d", r.Len())
	}
}

func TestRegistryConnectionsForReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.Register(1, "conn-a")

	conns := r.ConnectionsFor(1)
	conns[0] = "mutated"

	if got := r.ConnectionsFor(1); got[0] != "conn-a" {
		t.Errorf("mutating returned slice leaked into registry: %v", got)
	}
}

func TestRegistryUsersSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(30, "c")
	r.Register(10, "a")
	r.Register(20, "b")

	users := r.Users()
	if len(users) != 3 || users[0] != 10 || users[1] != 20 || users[2] != 30 {
		t.Errorf("expected sorted [10 20 30], got %v", users)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			connID := fmt.Sprintf("conn-%d", n)
			r.Register(int64(n%5), connID)
			r.ConnectionsFor(int64(n % 5))
			r.Users()
			if n%2 == 0 {
				r.Unregister(connID)
			}
		}(i)
	}
	wg.Wait()

	if r.Len() != 25 {
		t.Errorf("expected 25 surviving connections, got %d", r.Len())
	}
}
