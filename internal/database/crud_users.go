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
	"strings"
	"time"

	"github.com/gatherhub/gatherhub/internal/models"
)

// CreateUser inserts a new account and fills in the generated id. Username
// and email uniqueness violations surface as ErrDuplicate.
func (db *DB) CreateUser(ctx context.Context, user *models.User) (err error) {
	start := time.Now()
	defer func() { db.track("insert", "users", start, err) }()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `INSERT INTO users (username, email, display_name, avatar_url, role, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`

	err = db.conn.QueryRowContext(ctx, query,
		user.Username, user.Email, user.DisplayName, user.AvatarURL,
		user.Role, user.PasswordHash, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByID fetches one user by id.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.getUser(ctx, `SELECT id, username, email, display_name, avatar_url, role, password_hash, created_at
		FROM users WHERE id = ?`, id)
}

// GetUserByUsername fetches one user by username. Used by login.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.getUser(ctx, `SELECT id, username, email, display_name, avatar_url, role, password_hash, created_at
		FROM users WHERE username = ?`, username)
}

func (db *DB) getUser(ctx context.Context, query string, arg interface{}) (u *models.User, err error) {
	start := time.Now()
	defer func() { db.track("select", "users", start, err) }()

	u = &models.User{}
	err = db.conn.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.DisplayName, &u.AvatarURL,
		&u.Role, &u.PasswordHash, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// UpdateUserProfile updates the mutable profile fields of an account.
func (db *DB) UpdateUserProfile(ctx context.Context, id int64, displayName string, avatarURL *string) (err error) {
	start := time.Now()
	defer func() { db.track("update", "users", start, err) }()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET display_name = ?, avatar_url = ? WHERE id = ?`,
		displayName, avatarURL, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireRow(res)
}

// ListUsers returns public views of accounts, newest first.
func (db *DB) ListUsers(ctx context.Context, limit, offset int) (users []models.PublicUser, err error) {
	start := time.Now()
	defer func() { db.track("select", "users", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, username, display_name, avatar_url FROM users
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users = []models.PublicUser{}
	for rows.Next() {
		var u models.PublicUser
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.AvatarURL); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// publicUsersByID fetches public views for a set of user ids.
func (db *DB) publicUsersByID(ctx context.Context, ids []int64) (map[int64]models.PublicUser, error) {
	out := make(map[int64]models.PublicUser, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, username, display_name, avatar_url FROM users WHERE id IN (%s)`, placeholders),
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var u models.PublicUser
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.AvatarURL); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

// requireRow converts a zero-row update/delete into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isConstraintViolation reports whether err is a DuckDB unique or primary
// key constraint failure. The driver does not expose typed errors for
// these, so the message text is inspected.
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Constraint Error") ||
		strings.Contains(msg, "Duplicate key") ||
		strings.Contains(msg, "violates unique constraint") ||
		strings.Contains(msg, "violates primary key constraint")
}
