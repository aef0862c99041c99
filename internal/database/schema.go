// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package database

import (
	"context"
	"fmt"
)

// schemaStatements creates all tables and sequences. Statements are
// idempotent so startup after an unclean shutdown is safe.
var schemaStatements = []string{
	`CREATE SEQUENCE IF NOT EXISTS user_id_seq START 1`,

	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY DEFAULT nextval('user_id_seq'),
		username VARCHAR NOT NULL UNIQUE,
		email VARCHAR NOT NULL UNIQUE,
		display_name VARCHAR NOT NULL,
		avatar_url VARCHAR,
		role VARCHAR NOT NULL DEFAULT 'user',
		password_hash VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY,
		author_id BIGINT NOT NULL,
		text VARCHAR NOT NULL,
		image_url VARCHAR,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS post_likes (
		post_id UUID NOT NULL,
		user_id BIGINT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (post_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS comments (
		id UUID PRIMARY KEY,
		post_id UUID NOT NULL,
		author_id BIGINT NOT NULL,
		text VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		organizer_id BIGINT NOT NULL,
		title VARCHAR NOT NULL,
		description VARCHAR NOT NULL,
		location VARCHAR NOT NULL,
		cover_url VARCHAR,
		starts_at TIMESTAMP NOT NULL,
		ends_at TIMESTAMP,
		published BOOLEAN NOT NULL DEFAULT false,
		published_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS event_attendees (
		event_id UUID NOT NULL,
		user_id BIGINT NOT NULL,
		registered_at TIMESTAMP NOT NULL,
		PRIMARY KEY (event_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS conversations (
		id UUID PRIMARY KEY,
		name VARCHAR,
		direct BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS conversation_participants (
		conversation_id UUID NOT NULL,
		user_id BIGINT NOT NULL,
		joined_at TIMESTAMP NOT NULL,
		PRIMARY KEY (conversation_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		conversation_id UUID NOT NULL,
		sender_id BIGINT NOT NULL,
		text VARCHAR NOT NULL,
		image_url VARCHAR,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS message_seen (
		message_id UUID NOT NULL,
		user_id BIGINT NOT NULL,
		seen_at TIMESTAMP NOT NULL,
		PRIMARY KEY (message_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS activity_entries (
		id UUID PRIMARY KEY,
		actor_id BIGINT NOT NULL,
		verb VARCHAR NOT NULL,
		object_type VARCHAR NOT NULL,
		object_id VARCHAR NOT NULL,
		occurred_at TIMESTAMP NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_posts_created ON posts (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post ON comments (post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_published ON events (published, starts_at)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_occurred ON activity_entries (occurred_at)`,
}

func (db *DB) createSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
