// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatherhub/gatherhub/internal/models"
)

const eventSelect = `SELECT
	e.id, e.organizer_id, u.display_name, e.title, e.description, e.location,
	e.cover_url, e.starts_at, e.ends_at, e.published, e.published_at,
	e.created_at, e.updated_at,
	(SELECT COUNT(*) FROM event_attendees a WHERE a.event_id = e.id) AS attendee_count
	FROM events e JOIN users u ON u.id = e.organizer_id`

// CreateEvent inserts a new draft event and fills in id and timestamps.
func (db *DB) CreateEvent(ctx context.Context, event *models.Event) (err error) {
	start := time.Now()
	defer func() { db.track("insert", "events", start, err) }()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = event.CreatedAt

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO events (id, organizer_id, title, description, location, cover_url,
			starts_at, ends_at, published, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, false, NULL, ?, ?)`,
		event.ID, event.OrganizerID, event.Title, event.Description, event.Location,
		event.CoverURL, event.StartsAt, event.EndsAt, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetEvent fetches one event with its attendee count.
func (db *DB) GetEvent(ctx context.Context, id uuid.UUID) (e *models.Event, err error) {
	start := time.Now()
	defer func() { db.track("select", "events", start, err) }()

	e = &models.Event{}
	err = db.conn.QueryRowContext(ctx, eventSelect+` WHERE e.id = ?`, id).Scan(
		&e.ID, &e.OrganizerID, &e.OrganizerName, &e.Title, &e.Description, &e.Location,
		&e.CoverURL, &e.StartsAt, &e.EndsAt, &e.Published, &e.PublishedAt,
		&e.CreatedAt, &e.UpdatedAt, &e.AttendeeCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	return e, nil
}

// ListEvents returns events ordered by start time. When publishedOnly is
// false the caller sees drafts too; handlers restrict that to organizers.
func (db *DB) ListEvents(ctx context.Context, publishedOnly bool, limit, offset int) (events []models.Event, err error) {
	start := time.Now()
	defer func() { db.track("select", "events", start, err) }()

	query := eventSelect
	if publishedOnly {
		query += ` WHERE e.published`
	}
	query += ` ORDER BY e.starts_at ASC, e.id ASC LIMIT ? OFFSET ?`

	rows, err := db.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events = []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.OrganizerID, &e.OrganizerName, &e.Title, &e.Description,
			&e.Location, &e.CoverURL, &e.StartsAt, &e.EndsAt, &e.Published, &e.PublishedAt,
			&e.CreatedAt, &e.UpdatedAt, &e.AttendeeCount); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListEventsByOrganizer returns all events owned by one organizer, drafts
// included.
func (db *DB) ListEventsByOrganizer(ctx context.Context, organizerID int64, limit, offset int) (events []models.Event, err error) {
	start := time.Now()
	defer func() { db.track("select", "events", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		eventSelect+` WHERE e.organizer_id = ? ORDER BY e.starts_at ASC, e.id ASC LIMIT ? OFFSET ?`,
		organizerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizer events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events = []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.OrganizerID, &e.OrganizerName, &e.Title, &e.Description,
			&e.Location, &e.CoverURL, &e.StartsAt, &e.EndsAt, &e.Published, &e.PublishedAt,
			&e.CreatedAt, &e.UpdatedAt, &e.AttendeeCount); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// UpdateEvent replaces the editable fields of an event and bumps
// updated_at.
func (db *DB) UpdateEvent(ctx context.Context, event *models.Event) (err error) {
	start := time.Now()
	defer func() { db.track("update", "events", start, err) }()

	event.UpdatedAt = time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE events SET title = ?, description = ?, location = ?, cover_url = ?,
			starts_at = ?, ends_at = ?, updated_at = ? WHERE id = ?`,
		event.Title, event.Description, event.Location, event.CoverURL,
		event.StartsAt, event.EndsAt, event.UpdatedAt, event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return requireRow(res)
}

// PublishEvent marks a draft as published. Publishing twice is ErrNotFound
// on the second call because the draft predicate no longer matches.
func (db *DB) PublishEvent(ctx context.Context, id uuid.UUID) (publishedAt time.Time, err error) {
	start := time.Now()
	defer func() { db.track("update", "events", start, err) }()

	publishedAt = time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE events SET published = true, published_at = ?, updated_at = ? WHERE id = ? AND NOT published`,
		publishedAt, publishedAt, id,
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to publish event: %w", err)
	}
	if err := requireRow(res); err != nil {
		return time.Time{}, err
	}
	return publishedAt, nil
}

// DeleteEvent removes an event and its attendee rows.
func (db *DB) DeleteEvent(ctx context.Context, id uuid.UUID) (err error) {
	start := time.Now()
	defer func() { db.track("delete", "events", start, err) }()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if _, err := db.conn.ExecContext(ctx, `DELETE FROM event_attendees WHERE event_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete event attendees: %w", err)
	}
	return nil
}

// RegisterAttendee adds a user to an event. Registering twice is idempotent
// and reports already=true.
func (db *DB) RegisterAttendee(ctx context.Context, eventID uuid.UUID, userID int64) (already bool, err error) {
	start := time.Now()
	defer func() { db.track("insert", "event_attendees", start, err) }()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO event_attendees (event_id, user_id, registered_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
		eventID, userID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to register attendee: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 0, nil
}

// UnregisterAttendee removes a user from an event. Unregistering a user who
// never registered is a silent no-op.
func (db *DB) UnregisterAttendee(ctx context.Context, eventID uuid.UUID, userID int64) (removed bool, err error) {
	start := time.Now()
	defer func() { db.track("delete", "event_attendees", start, err) }()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM event_attendees WHERE event_id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to unregister attendee: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// ListAttendees returns an event's attendees in registration order.
func (db *DB) ListAttendees(ctx context.Context, eventID uuid.UUID) (attendees []models.Attendee, err error) {
	start := time.Now()
	defer func() { db.track("select", "event_attendees", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT a.event_id, u.id, u.username, u.display_name, u.avatar_url, a.registered_at
		FROM event_attendees a JOIN users u ON u.id = a.user_id
		WHERE a.event_id = ? ORDER BY a.registered_at ASC, u.id ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendees: %w", err)
	}
	defer func() { _ = rows.Close() }()

	attendees = []models.Attendee{}
	for rows.Next() {
		var a models.Attendee
		if err := rows.Scan(&a.EventID, &a.User.ID, &a.User.Username, &a.User.DisplayName,
			&a.User.AvatarURL, &a.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendee row: %w", err)
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

// IsAttending reports whether a user is registered for an event.
func (db *DB) IsAttending(ctx context.Context, eventID uuid.UUID, userID int64) (attending bool, err error) {
	start := time.Now()
	defer func() { db.track("select", "event_attendees", start, err) }()

	err = db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_attendees WHERE event_id = ? AND user_id = ?)`,
		eventID, userID).Scan(&attending)
	if err != nil {
		return false, fmt.Errorf("failed to query attendance: %w", err)
	}
	return attending, nil
}
