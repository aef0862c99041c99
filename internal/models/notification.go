// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds pushed over the real-time gateways. The kind string is
// the "type" field of the wire frame; each kind has exactly one payload
// shape below.
const (
	KindEventCreated        = "eventCreated"
	KindEventPublished      = "eventPublished"
	KindEventUpdated        = "eventUpdated"
	KindEventDeleted        = "eventDeleted"
	KindEventRegistration   = "eventRegistration"
	KindEventUnregistration = "eventUnregistration"
	KindNewMessage          = "newMessage"
	KindPostLiked           = "postLiked"
	KindCommentAdded        = "commentAdded"
)

// Notification is a tagged domain event payload. Each payload carries the
// minimal denormalized data a client needs to render the notification
// without a follow-up fetch.
type Notification interface {
	// Kind returns the discriminator written to the wire frame's "type" field.
	Kind() string
}

// EventCreatedPayload announces a newly created, already-published event.
type EventCreatedPayload struct {
	Event *Event `json:"event"`
}

// Kind implements Notification.
func (EventCreatedPayload) Kind() string { return KindEventCreated }

// EventPublishedPayload announces a draft event going public.
type EventPublishedPayload struct {
	Event     *Event    `json:"event"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Kind implements Notification.
func (EventPublishedPayload) Kind() string { return KindEventPublished }

// EventUpdatedPayload announces changes to a published event.
type EventUpdatedPayload struct {
	Event *Event `json:"event"`
}

// Kind implements Notification.
func (EventUpdatedPayload) Kind() string { return KindEventUpdated }

// EventDeletedPayload announces removal of a published event. Only the id is
// sent; clients drop the event from local state.
type EventDeletedPayload struct {
	EventID uuid.UUID `json:"eventId"`
}

// Kind implements Notification.
func (EventDeletedPayload) Kind() string { return KindEventDeleted }

// EventRegistrationPayload notifies an organizer of a new attendee.
type EventRegistrationPayload struct {
	Event     *Event    `json:"event"`
	Attendee  *Attendee `json:"attendee"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Kind implements Notification.
func (EventRegistrationPayload) Kind() string { return KindEventRegistration }

// EventUnregistrationPayload notifies an organizer that an attendee left.
type EventUnregistrationPayload struct {
	EventID uuid.UUID `json:"eventId"`
}

// Kind implements Notification.
func (EventUnregistrationPayload) Kind() string { return KindEventUnregistration }

// NewMessagePayload delivers a chat message to the other participants of a
// conversation.
type NewMessagePayload struct {
	ID             uuid.UUID `json:"id"`
	Text           string    `json:"text"`
	ImageURL       *string   `json:"imageUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	SenderID       int64     `json:"senderId"`
	ConversationID uuid.UUID `json:"conversationId"`
	TempID         string    `json:"tempId,omitempty"`
	SeenBy         []int64   `json:"seenBy"`
}

// Kind implements Notification.
func (NewMessagePayload) Kind() string { return KindNewMessage }

// PostLikedPayload notifies a post author that someone liked their post.
type PostLikedPayload struct {
	PostID    uuid.UUID  `json:"postId"`
	LikedBy   PublicUser `json:"likedBy"`
	Timestamp time.Time  `json:"timestamp"`
}

// Kind implements Notification.
func (PostLikedPayload) Kind() string { return KindPostLiked }

// CommentAddedPayload notifies a post author of a new comment.
type CommentAddedPayload struct {
	PostID  uuid.UUID `json:"postId"`
	Comment *Comment  `json:"comment"`
}

// Kind implements Notification.
func (CommentAddedPayload) Kind() string { return KindCommentAdded }
