// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package models

import (
	"time"

	"github.com/google/uuid"
)

// Post represents a feed post.
//
// AuthorName is denormalized from the users table at read time so feed
// responses and notification payloads render without a join on the client.
type Post struct {
	ID           uuid.UUID `json:"id"`
	AuthorID     int64     `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	Text         string    `json:"text"`
	ImageURL     *string   `json:"image_url,omitempty"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`

	// LikedByViewer is set on reads performed for an authenticated user.
	LikedByViewer bool `json:"liked_by_viewer"`

	CreatedAt time.Time `json:"created_at"`
}

// Comment represents a comment on a post.
type Comment struct {
	ID         uuid.UUID `json:"id"`
	PostID     uuid.UUID `json:"post_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}
