// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

// Package realtime implements the real-time notification gateways.
//
// A Gateway bundles three collaborators:
//
//   - Registry: the process-local mapping from authenticated user id to the
//     set of that user's open websocket connections. A user may hold several
//     connections at once (tabs, devices). State is in-memory and volatile;
//     clients re-register after reconnecting.
//   - Hub: owns the websocket connections themselves, runs their read/write
//     pumps, and serializes connection lifecycle (attach, registration,
//     detach) on a single run loop.
//   - Dispatcher: resolves the audience of a domain notification (one user,
//     a list of users, or everyone) and pushes the typed payload to each
//     resolved connection, best effort.
//
// Two gateway instances exist, one per domain: "events" and "chat". Each
// owns an independent registry; nothing is shared across processes. Delivery
// is at-most-once with no acknowledgment, queueing, retry, or cross-
// connection ordering guarantee — a client that misses a notification
// reconciles by re-fetching state.
//
// A connection moves through three states: open-unregistered after the
// websocket upgrade, open-registered once the client sends its register
// frame, and closed on transport disconnect. Identity is taken from the
// authenticated handshake, never from the register frame; a client-declared
// user id that contradicts the token is logged and ignored.
package realtime
