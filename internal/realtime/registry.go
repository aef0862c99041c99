// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package realtime

import (
	"sort"
	"sync"
)

// Registry maps authenticated user ids to their open connection ids.
//
// The forward map holds one non-empty set per online user; the entry is
// removed entirely when the user's last connection unregisters, so
// enumerating Users() never reports a user with zero connections. A reverse
// index (connection id -> user id) keeps Unregister O(1) and enforces the
// invariant that a connection id is bound to at most one user at a time.
//
// All operations are defensive: unknown ids are silent no-ops. State is
// process-local and lost on restart by design.
type Registry struct {
	mu     sync.RWMutex
	byUser map[int64]map[string]struct{}
	byConn map[string]int64
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[int64]map[string]struct{}),
		byConn: make(map[string]int64),
	}
}

// Register binds connID to userID, creating the user's set if absent.
// Registering the same pair twice has no additional effect. If connID is
// currently bound to a different user it is moved, preserving the
// one-user-per-connection invariant.
func (r *Registry) Register(userID int64, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byConn[connID]; ok {
		if prev == userID {
			return
		}
		r.removeLocked(prev, connID)
	}

	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[string]struct{})
		r.byUser[userID] = set
	}
	set[connID] = struct{}{}
	r.byConn[connID] = userID
}

// Unregister removes connID from whichever user's set contains it, deleting
// the user's entry when the set becomes empty. No-op if the connection is
// not registered (double-disconnect guard).
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[connID]
	if !ok {
		return
	}
	r.removeLocked(userID, connID)
}

// removeLocked deletes the binding from both indexes. Caller holds mu.
func (r *Registry) removeLocked(userID int64, connID string) {
	delete(r.byConn, connID)
	if set, ok := r.byUser[userID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.byUser, userID)
		}
	}
}

// ConnectionsFor returns a copy of the user's current connection ids, sorted
// for deterministic fan-out order. Empty if the user has no open
// connections.
func (r *Registry) ConnectionsFor(userID int64) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.byUser[userID]
	if !ok {
		return nil
	}
	conns := make([]string, 0, len(set))
	for id := range set {
		conns = append(conns, id)
	}
	sort.Strings(conns)
	return conns
}

// UserFor returns the user id a connection is bound to, if any.
func (r *Registry) UserFor(connID string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.byConn[connID]
	return userID, ok
}

// Users returns the ids of all users with at least one registered
// connection, sorted.
func (r *Registry) Users() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]int64, 0, len(r.byUser))
	for id := range r.byUser {
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// UserCount returns the number of users with registered connections.
func (r *Registry) UserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Len returns the total number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
