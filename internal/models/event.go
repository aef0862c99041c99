// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package models

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a platform event (meetup, party, talk).
//
// Events start as drafts visible only to the organizer. Publishing makes an
// event visible to everyone and triggers a broadcast on the events gateway.
type Event struct {
	ID            uuid.UUID  `json:"id"`
	OrganizerID   int64      `json:"organizer_id"`
	OrganizerName string     `json:"organizer_name"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Location      string     `json:"location"`
	CoverURL      *string    `json:"cover_url,omitempty"`
	StartsAt      time.Time  `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
	Published     bool       `json:"published"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	AttendeeCount int        `json:"attendee_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Attendee represents a user registered for an event.
type Attendee struct {
	EventID      uuid.UUID `json:"event_id"`
	User         PublicUser `json:"user"`
	RegisteredAt time.Time `json:"registered_at"`
}
