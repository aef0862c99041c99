// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatherhub/gatherhub/internal/models"
)

// EventStore is the persistence surface the event service needs.
// *database.DB satisfies it.
type EventStore interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListEvents(ctx context.Context, publishedOnly bool, limit, offset int) ([]models.Event, error)
	ListEventsByOrganizer(ctx context.Context, organizerID int64, limit, offset int) ([]models.Event, error)
	UpdateEvent(ctx context.Context, event *models.Event) error
	PublishEvent(ctx context.Context, id uuid.UUID) (time.Time, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	RegisterAttendee(ctx context.Context, eventID uuid.UUID, userID int64) (bool, error)
	UnregisterAttendee(ctx context.Context, eventID uuid.UUID, userID int64) (bool, error)
	ListAttendees(ctx context.Context, eventID uuid.UUID) ([]models.Attendee, error)
	IsAttending(ctx context.Context, eventID uuid.UUID, userID int64) (bool, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// EventInput carries the editable event fields from the API layer.
type EventInput struct {
	Title       string
	Description string
	Location    string
	CoverURL    *string
	StartsAt    time.Time
	EndsAt      *time.Time
}

// EventService implements the events module. Lifecycle notifications go out
// as broadcasts on the events gateway; registration notifications go to the
// organizer only.
type EventService struct {
	store    EventStore
	notifier Notifier
	feed     FeedPublisher
}

// NewEventService wires an event service.
func NewEventService(store EventStore, notifier Notifier, feed FeedPublisher) *EventService {
	return &EventService{store: store, notifier: notifier, feed: feed}
}

// Create inserts a new event. Events start as drafts; publish=true makes
// the event public immediately, announced as a single eventCreated
// broadcast rather than a separate publish step.
func (s *EventService) Create(ctx context.Context, organizerID int64, in EventInput, publish bool) (*models.Event, error) {
	event := &models.Event{
		OrganizerID: organizerID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		CoverURL:    in.CoverURL,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	if publish {
		if _, err := s.store.PublishEvent(ctx, event.ID); err != nil {
			return nil, fmt.Errorf("failed to publish created event: %w", err)
		}
	}

	stored, err := s.store.GetEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created event: %w", err)
	}
	if stored.Published {
		s.notifier.Broadcast(models.EventCreatedPayload{Event: stored})
	}
	publishActivity(s.feed, organizerID, "created", "event", event.ID.String())
	return stored, nil
}

// Get fetches one event. Drafts are visible only to their organizer and
// admins.
func (s *EventService) Get(ctx context.Context, viewerID int64, viewerRole string, id uuid.UUID) (*models.Event, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.Published && !canModerate(viewerID, viewerRole, event.OrganizerID) {
		return nil, ErrForbidden
	}
	return event, nil
}

// List returns published events, newest first.
func (s *EventService) List(ctx context.Context, limit, offset int) ([]models.Event, error) {
	return s.store.ListEvents(ctx, true, limit, offset)
}

// ListMine returns all of the organizer's events, drafts included.
func (s *EventService) ListMine(ctx context.Context, organizerID int64, limit, offset int) ([]models.Event, error) {
	return s.store.ListEventsByOrganizer(ctx, organizerID, limit, offset)
}

// Update replaces the editable fields. Updates to a published event are
// broadcast so clients refresh their local copy.
func (s *EventService) Update(ctx context.Context, actorID int64, actorRole string, id uuid.UUID, in EventInput) (*models.Event, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModerate(actorID, actorRole, event.OrganizerID) {
		return nil, ErrForbidden
	}

	event.Title = in.Title
	event.Description = in.Description
	event.Location = in.Location
	event.CoverURL = in.CoverURL
	event.StartsAt = in.StartsAt
	event.EndsAt = in.EndsAt
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	stored, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load updated event: %w", err)
	}
	if stored.Published {
		s.notifier.Broadcast(models.EventUpdatedPayload{Event: stored})
	}
	publishActivity(s.feed, actorID, "updated", "event", id.String())
	return stored, nil
}

// Publish flips a draft public and broadcasts the announcement. Publishing
// an already-published event returns database.ErrNotFound.
func (s *EventService) Publish(ctx context.Context, actorID int64, actorRole string, id uuid.UUID) (*models.Event, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModerate(actorID, actorRole, event.OrganizerID) {
		return nil, ErrForbidden
	}

	publishedAt, err := s.store.PublishEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load published event: %w", err)
	}
	s.notifier.Broadcast(models.EventPublishedPayload{
		Event:     stored,
		Message:   fmt.Sprintf("New event: %s", stored.Title),
		Timestamp: publishedAt,
	})
	publishActivity(s.feed, actorID, "published", "event", id.String())
	return stored, nil
}

// Delete removes an event. Deleting a published event is broadcast so
// clients drop it.
func (s *EventService) Delete(ctx context.Context, actorID int64, actorRole string, id uuid.UUID) error {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if !canModerate(actorID, actorRole, event.OrganizerID) {
		return ErrForbidden
	}

	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if event.Published {
		s.notifier.Broadcast(models.EventDeletedPayload{EventID: id})
	}
	publishActivity(s.feed, actorID, "deleted", "event", id.String())
	return nil
}

// Register adds the actor as an attendee and notifies the organizer.
// Registering twice is idempotent and sends no second notification; the
// organizer registering for their own event sends none either.
func (s *EventService) Register(ctx context.Context, actorID int64, id uuid.UUID) (*models.Event, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.Published {
		return nil, ErrForbidden
	}

	already, err := s.store.RegisterAttendee(ctx, id, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to register attendee: %w", err)
	}

	stored, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load event after registration: %w", err)
	}

	if !already && event.OrganizerID != actorID {
		user, err := s.store.GetUserByID(ctx, actorID)
		if err != nil {
			return nil, fmt.Errorf("failed to load registering user: %w", err)
		}
		now := time.Now().UTC()
		s.notifier.NotifyUser(event.OrganizerID, models.EventRegistrationPayload{
			Event: stored,
			Attendee: &models.Attendee{
				EventID:      id,
				User:         user.Public(),
				RegisteredAt: now,
			},
			Message:   fmt.Sprintf("%s registered for %s", user.DisplayName, stored.Title),
			Timestamp: now,
		})
	}
	if !already {
		publishActivity(s.feed, actorID, "registered", "event", id.String())
	}
	return stored, nil
}

// Unregister removes the actor from an event's attendee list and notifies
// the organizer. Unregistering when not registered is a silent no-op.
func (s *EventService) Unregister(ctx context.Context, actorID int64, id uuid.UUID) (*models.Event, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	removed, err := s.store.UnregisterAttendee(ctx, id, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to unregister attendee: %w", err)
	}

	if removed && event.OrganizerID != actorID {
		s.notifier.NotifyUser(event.OrganizerID, models.EventUnregistrationPayload{EventID: id})
	}
	if removed {
		publishActivity(s.feed, actorID, "unregistered", "event", id.String())
	}
	return s.store.GetEvent(ctx, id)
}

// Attendees lists an event's attendees in registration order.
func (s *EventService) Attendees(ctx context.Context, id uuid.UUID) ([]models.Attendee, error) {
	if _, err := s.store.GetEvent(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListAttendees(ctx, id)
}
