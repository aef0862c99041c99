// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gatherhub/gatherhub/internal/logging"
	"github.com/gatherhub/gatherhub/internal/models"
)

// SeedDemoData inserts a small demo dataset for local development. Safe to
// call repeatedly: it is a no-op once the demo admin exists.
func (db *DB) SeedDemoData(ctx context.Context) error {
	if _, err := db.GetUserByUsername(ctx, "demo-admin"); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}

	users := []*models.User{
		{Username: "demo-admin", Email: "admin@gatherhub.local", DisplayName: "Demo Admin", Role: models.RoleAdmin, PasswordHash: string(hash)},
		{Username: "alice", Email: "alice@gatherhub.local", DisplayName: "Alice", Role: models.RoleUser, PasswordHash: string(hash)},
		{Username: "bob", Email: "bob@gatherhub.local", DisplayName: "Bob", Role: models.RoleUser, PasswordHash: string(hash)},
	}
	for _, u := range users {
		if err := db.CreateUser(ctx, u); err != nil && !errors.Is(err, ErrDuplicate) {
			return fmt.Errorf("failed to seed user %s: %w", u.Username, err)
		}
	}

	post := &models.Post{AuthorID: users[1].ID, Text: "Welcome to GatherHub!"}
	if err := db.CreatePost(ctx, post); err != nil {
		return fmt.Errorf("failed to seed post: %w", err)
	}

	event := &models.Event{
		OrganizerID: users[1].ID,
		Title:       "Kickoff Meetup",
		Description: "First community gathering.",
		Location:    "Community Hall",
		StartsAt:    time.Now().UTC().Add(7 * 24 * time.Hour),
	}
	if err := db.CreateEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to seed event: %w", err)
	}
	if _, err := db.PublishEvent(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to publish seed event: %w", err)
	}

	logging.Info().Int("users", len(users)).Msg("demo data seeded")
	return nil
}
