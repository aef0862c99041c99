// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

// Package models defines data structures used throughout the GatherHub
// application: users, posts, events, chat conversations, the activity feed,
// and the typed notification payloads pushed over the real-time gateways.
package models

import "time"

// Roles assignable to a user account. Admins may moderate (delete) any
// post or comment; everything else is owner-only.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account.
//
// The numeric ID is the identity used everywhere else in the system: the
// connection registry keys on it, JWT claims carry it, and foreign keys in
// the database reference it. PasswordHash is never serialized.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`

	// PasswordHash is the bcrypt hash of the account password.
	PasswordHash string `json:"-"`
}

// PublicUser is the denormalized view of a user embedded in notification
// payloads and list responses: enough for a client to render a name and
// avatar without a second fetch.
type PublicUser struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// Public returns the user's public view.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}
