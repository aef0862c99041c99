// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// validate is the shared validator instance. validator.Validate caches
// struct metadata, so a single instance serves all requests.
var validate = validator.New()

// ValidationErrorDetail describes one failed validation rule, returned in
// the error response details so clients can highlight the offending field.
type ValidationErrorDetail struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// validateRequest validates a struct using go-playground/validator and
// returns per-field details on failure.
func validateRequest(v interface{}) []ValidationErrorDetail {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationErrorDetail{{Field: "request", Rule: "invalid"}}
	}

	details := make([]ValidationErrorDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, ValidationErrorDetail{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return details
}

// decodeJSON decodes a request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=64"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=1"`
}

// UpdateProfileRequest is the body of PUT /users/me.
type UpdateProfileRequest struct {
	DisplayName string  `json:"display_name" validate:"required,min=1,max=64"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url"`
}

// CreatePostRequest is the body of POST /posts.
type CreatePostRequest struct {
	Text     string  `json:"text" validate:"required,min=1,max=4000"`
	ImageURL *string `json:"image_url" validate:"omitempty,url"`
}

// UpdatePostRequest is the body of PUT /posts/{id}.
type UpdatePostRequest struct {
	Text string `json:"text" validate:"required,min=1,max=4000"`
}

// AddCommentRequest is the body of POST /posts/{id}/comments.
type AddCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

// EventRequest is the body of POST /events and PUT /events/{id}.
type EventRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description string  `json:"description" validate:"max=8000"`
	Location    string  `json:"location" validate:"max=300"`
	CoverURL    *string `json:"cover_url" validate:"omitempty,url"`
	StartsAt    string  `json:"starts_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndsAt      *string `json:"ends_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`

	// Publish creates the event already public, skipping the draft stage.
	Publish bool `json:"publish"`
}

// times parses the validated RFC3339 timestamps.
func (req *EventRequest) times() (time.Time, *time.Time, error) {
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("invalid starts_at: %w", err)
	}
	var endsAt *time.Time
	if req.EndsAt != nil {
		t, err := time.Parse(time.RFC3339, *req.EndsAt)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("invalid ends_at: %w", err)
		}
		endsAt = &t
	}
	return startsAt, endsAt, nil
}

// CreateConversationRequest is the body of POST /chat/conversations.
type CreateConversationRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100"`
	Direct         bool    `json:"direct"`
	ParticipantIDs []int64 `json:"participant_ids" validate:"required,min=1,dive,gt=0"`
}

// SendMessageRequest is the body of POST /chat/conversations/{id}/messages.
type SendMessageRequest struct {
	Text     string  `json:"text" validate:"max=4000"`
	ImageURL *string `json:"image_url" validate:"omitempty,url"`
	TempID   string  `json:"temp_id" validate:"omitempty,max=64"`
}
