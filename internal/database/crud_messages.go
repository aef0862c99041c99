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

// CreateConversation inserts a conversation with its participant rows.
func (db *DB) CreateConversation(ctx context.Context, conv *models.Conversation) (err error) {
	start := time.Now()
	defer func() { db.track("insert", "conversations", start, err) }()

	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO conversations (id, name, direct, created_at) VALUES (?, ?, ?, ?)`,
		conv.ID, conv.Name, conv.Direct, conv.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}

	for _, userID := range conv.ParticipantIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO conversation_participants (conversation_id, user_id, joined_at) VALUES (?, ?, ?)`,
			conv.ID, userID, conv.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit conversation: %w", err)
	}
	return nil
}

// GetConversation fetches one conversation with its participant ids.
func (db *DB) GetConversation(ctx context.Context, id uuid.UUID) (conv *models.Conversation, err error) {
	start := time.Now()
	defer func() { db.track("select", "conversations", start, err) }()

	conv = &models.Conversation{}
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, name, direct, created_at FROM conversations WHERE id = ?`, id).Scan(
		&conv.ID, &conv.Name, &conv.Direct, &conv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}

	conv.ParticipantIDs, err = db.participantIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = db.fillParticipants(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// fillParticipants resolves ParticipantIDs into public profiles, preserving
// the id ordering.
func (db *DB) fillParticipants(ctx context.Context, conv *models.Conversation) error {
	byID, err := db.publicUsersByID(ctx, conv.ParticipantIDs)
	if err != nil {
		return err
	}
	conv.Participants = make([]models.PublicUser, 0, len(conv.ParticipantIDs))
	for _, id := range conv.ParticipantIDs {
		if u, ok := byID[id]; ok {
			conv.Participants = append(conv.Participants, u)
		}
	}
	return nil
}

func (db *DB) participantIDs(ctx context.Context, conversationID uuid.UUID) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id FROM conversation_participants WHERE conversation_id = ? ORDER BY user_id ASC`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListConversationsForUser returns every conversation the user participates
// in, most recently created first.
func (db *DB) ListConversationsForUser(ctx context.Context, userID int64) (convs []models.Conversation, err error) {
	start := time.Now()
	defer func() { db.track("select", "conversations", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.name, c.direct, c.created_at
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE p.user_id = ? ORDER BY c.created_at DESC, c.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	convs = []models.Conversation{}
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.Name, &c.Direct, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range convs {
		convs[i].ParticipantIDs, err = db.participantIDs(ctx, convs[i].ID)
		if err != nil {
			return nil, err
		}
		if err = db.fillParticipants(ctx, &convs[i]); err != nil {
			return nil, err
		}
	}
	return convs, nil
}

// IsParticipant reports whether a user belongs to a conversation.
func (db *DB) IsParticipant(ctx context.Context, conversationID uuid.UUID, userID int64) (ok bool, err error) {
	start := time.Now()
	defer func() { db.track("select", "conversation_participants", start, err) }()

	err = db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = ? AND user_id = ?)`,
		conversationID, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to query participation: %w", err)
	}
	return ok, nil
}

// AddMessage inserts a message and fills in id and created_at.
func (db *DB) AddMessage(ctx context.Context, msg *models.ChatMessage) (err error) {
	start := time.Now()
	defer func() { db.track("insert", "messages", start, err) }()

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, text, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Text, msg.ImageURL, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	if msg.SeenBy == nil {
		msg.SeenBy = []int64{}
	}
	return nil
}

// ListMessages returns a conversation's messages, oldest first, with their
// seen-by sets.
func (db *DB) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) (msgs []models.ChatMessage, err error) {
	start := time.Now()
	defer func() { db.track("select", "messages", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, conversation_id, sender_id, text, image_url, created_at
		FROM messages WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`,
		conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	msgs = []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Text, &m.ImageURL, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range msgs {
		msgs[i].SeenBy, err = db.seenBy(ctx, msgs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

func (db *DB) seenBy(ctx context.Context, messageID uuid.UUID) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id FROM message_seen WHERE message_id = ? ORDER BY user_id ASC`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen set: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan seen row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkSeen records that a user has seen every message in a conversation up
// to now. Already-seen messages are skipped.
func (db *DB) MarkSeen(ctx context.Context, conversationID uuid.UUID, userID int64) (err error) {
	start := time.Now()
	defer func() { db.track("insert", "message_seen", start, err) }()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO message_seen (message_id, user_id, seen_at)
		SELECT m.id, ?, ? FROM messages m
		WHERE m.conversation_id = ? AND m.sender_id != ?
		ON CONFLICT DO NOTHING`,
		userID, time.Now().UTC(), conversationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark messages seen: %w", err)
	}
	return nil
}
