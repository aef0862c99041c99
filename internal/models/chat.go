// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation represents a chat conversation, either a direct channel
// between two users or a named group.
//
// Participants holds the public profiles for ParticipantIDs so clients can
// render a conversation list without extra lookups.
type Conversation struct {
	ID             uuid.UUID    `json:"id"`
	Name           *string      `json:"name,omitempty"`
	Direct         bool         `json:"direct"`
	ParticipantIDs []int64      `json:"participant_ids"`
	Participants   []PublicUser `json:"participants"`
	CreatedAt      time.Time    `json:"created_at"`
}

// ChatMessage represents a persisted chat message.
//
// TempID echoes the client-generated identifier from the send request so the
// sender can reconcile an optimistic UI entry with the stored message; it is
// not persisted.
type ChatMessage struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	Text           string    `json:"text"`
	ImageURL       *string   `json:"image_url,omitempty"`
	TempID         string    `json:"temp_id,omitempty"`
	SeenBy         []int64   `json:"seen_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// ActivityEntry is one row of the platform activity feed. Entries are
// produced by the domain services and delivered to storage through the
// in-process activity pipeline.
type ActivityEntry struct {
	ID         uuid.UUID `json:"id"`
	ActorID    int64     `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	Verb       string    `json:"verb"`
	ObjectType string    `json:"object_type"`
	ObjectID   string    `json:"object_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
