// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatherhub/gatherhub/internal/models"
)

// InsertActivity persists one activity feed entry. Duplicate ids are
// ignored so pipeline redelivery stays idempotent.
func (db *DB) InsertActivity(ctx context.Context, entry *models.ActivityEntry) (err error) {
	start := time.Now()
	defer func() { db.track("insert", "activity_entries", start, err) }()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO activity_entries (id, actor_id, verb, object_type, object_id, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		entry.ID, entry.ActorID, entry.Verb, entry.ObjectType, entry.ObjectID, entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}
	return nil
}

// ListActivity returns the activity feed, newest first, with actor names
// resolved.
func (db *DB) ListActivity(ctx context.Context, limit, offset int) (entries []models.ActivityEntry, err error) {
	start := time.Now()
	defer func() { db.track("select", "activity_entries", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT a.id, a.actor_id, u.display_name, a.verb, a.object_type, a.object_id, a.occurred_at
		FROM activity_entries a JOIN users u ON u.id = a.actor_id
		ORDER BY a.occurred_at DESC, a.id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries = []models.ActivityEntry{}
	for rows.Next() {
		var e models.ActivityEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorName, &e.Verb, &e.ObjectType, &e.ObjectID, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
