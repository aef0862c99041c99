// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CreateConversation handles POST /api/v1/chat/conversations.
func (h *Handlers) CreateConversation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}

	var req CreateConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("Invalid conversation", details)
		return
	}

	conv, err := h.chat.CreateConversation(r.Context(), id.UserID, req.Name, req.Direct, req.ParticipantIDs)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Created(conv)
}

// ListConversations handles GET /api/v1/chat/conversations.
func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}

	convs, err := h.chat.ListConversations(r.Context(), id.UserID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(convs)
}

// GetConversation handles GET /api/v1/chat/conversations/{id}.
func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	convID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	conv, err := h.chat.GetConversation(r.Context(), id.UserID, convID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(conv)
}

// SendMessage handles POST /api/v1/chat/conversations/{id}/messages.
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	convID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("Invalid message", details)
		return
	}

	msg, err := h.chat.SendMessage(r.Context(), id.UserID, convID, req.Text, req.ImageURL, req.TempID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Created(msg)
}

// ListMessages handles GET /api/v1/chat/conversations/{id}/messages.
func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	convID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	limit, offset := h.pagination(r)

	msgs, err := h.chat.ListMessages(r.Context(), id.UserID, convID, limit, offset)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.SuccessWithPagination(msgs, &PaginationMeta{
		Count:   len(msgs),
		Offset:  offset,
		Limit:   limit,
		HasMore: len(msgs) == limit,
	})
}

// MarkSeen handles PUT /api/v1/chat/conversations/{id}/seen.
func (h *Handlers) MarkSeen(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	convID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.chat.MarkSeen(r.Context(), id.UserID, convID); err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.NoContent()
}
