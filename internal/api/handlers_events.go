// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatherhub/gatherhub/internal/service"
)

// eventInput converts a validated request into the service input.
func eventInput(rw *ResponseWriter, req *EventRequest) (service.EventInput, bool) {
	startsAt, endsAt, err := req.times()
	if err != nil {
		rw.BadRequest(err.Error())
		return service.EventInput{}, false
	}
	return service.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		CoverURL:    req.CoverURL,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
	}, true
}

// CreateEvent handles POST /api/v1/events.
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}

	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("Invalid event", details)
		return
	}
	in, ok := eventInput(rw, &req)
	if !ok {
		return
	}

	event, err := h.events.Create(r.Context(), id.UserID, in, req.Publish)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Created(event)
}

// GetEvent handles GET /api/v1/events/{id}.
func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	eventID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	event, err := h.events.Get(r.Context(), id.UserID, id.Role, eventID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(event)
}

// ListEvents handles GET /api/v1/events. With ?mine=true the listing
// switches to the caller's own events, drafts included.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	limit, offset := h.pagination(r)

	var err error
	var events interface{}
	var count int
	if r.URL.Query().Get("mine") == "true" {
		list, listErr := h.events.ListMine(r.Context(), id.UserID, limit, offset)
		events, count, err = list, len(list), listErr
	} else {
		list, listErr := h.events.List(r.Context(), limit, offset)
		events, count, err = list, len(list), listErr
	}
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.SuccessWithPagination(events, &PaginationMeta{
		Count:   count,
		Offset:  offset,
		Limit:   limit,
		HasMore: count == limit,
	})
}

// UpdateEvent handles PUT /api/v1/events/{id}.
func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	eventID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("Invalid event update", details)
		return
	}
	in, ok := eventInput(rw, &req)
	if !ok {
		return
	}

	event, err := h.events.Update(r.Context(), id.UserID, id.Role, eventID, in)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(event)
}

// PublishEvent handles POST /api/v1/events/{id}/publish.
func (h *Handlers) PublishEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	eventID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	event, err := h.events.Publish(r.Context(), id.UserID, id.Role, eventID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(event)
}

// DeleteEvent handles DELETE /api/v1/events/{id}.
func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	eventID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.events.Delete(r.Context(), id.UserID, id.Role, eventID); err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.NoContent()
}

// RegisterForEvent handles POST /api/v1/events/{id}/register.
func (h *Handlers) RegisterForEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	eventID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	event, err := h.events.Register(r.Context(), id.UserID, eventID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(event)
}

// UnregisterFromEvent handles DELETE /api/v1/events/{id}/register.
func (h *Handlers) UnregisterFromEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	eventID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	event, err := h.events.Unregister(r.Context(), id.UserID, eventID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(event)
}

// ListAttendees handles GET /api/v1/events/{id}/attendees.
func (h *Handlers) ListAttendees(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	eventID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	attendees, err := h.events.Attendees(r.Context(), eventID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(attendees)
}
