// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

// Package service implements the domain use cases: posts, events and chat.
// Services own the orchestration between persistence, real-time dispatch
// and the activity feed. Each mutation calls at most one dispatcher method;
// dispatch and feed publishing are best-effort and never fail the request.
package service

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gatherhub/gatherhub/internal/logging"
	"github.com/gatherhub/gatherhub/internal/models"
)

// ErrForbidden is returned when an actor is not permitted to perform an
// operation on a resource they do not own.
var ErrForbidden = errors.New("operation not permitted")

// Notifier is the dispatch surface services fan notifications out through.
// *realtime.Dispatcher satisfies it.
type Notifier interface {
	NotifyUser(userID int64, n models.Notification)
	NotifyUsers(userIDs []int64, n models.Notification)
	Broadcast(n models.Notification)
}

// FeedPublisher publishes activity entries. *activity.Pipeline satisfies
// it.
type FeedPublisher interface {
	Publish(entry *models.ActivityEntry) error
}

// publishActivity records an activity entry, logging instead of failing
// when the pipeline rejects it. The entry id is minted here so a redelivered
// bus message persists the same row instead of a duplicate.
func publishActivity(feed FeedPublisher, actorID int64, verb, objectType, objectID string) {
	if feed == nil {
		return
	}
	entry := &models.ActivityEntry{
		ID:         uuid.New(),
		ActorID:    actorID,
		Verb:       verb,
		ObjectType: objectType,
		ObjectID:   objectID,
		OccurredAt: time.Now().UTC(),
	}
	if err := feed.Publish(entry); err != nil {
		logging.Warn().
			Err(err).
			Str("verb", verb).
			Str("object_type", objectType).
			Msg("failed to publish activity entry")
	}
}

// canModerate reports whether an actor may modify a resource owned by
// ownerID: the owner themselves or an admin.
func canModerate(actorID int64, actorRole string, ownerID int64) bool {
	return actorID == ownerID || actorRole == models.RoleAdmin
}
