// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CreatePost handles POST /api/v1/posts.
func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}

	var req CreatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("Invalid post", details)
		return
	}

	post, err := h.posts.Create(r.Context(), id.UserID, req.Text, req.ImageURL)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Created(post)
}

// GetPost handles GET /api/v1/posts/{id}.
func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	postID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	post, err := h.posts.Get(r.Context(), postID, id.UserID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(post)
}

// ListPosts handles GET /api/v1/posts.
func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	limit, offset := h.pagination(r)

	posts, err := h.posts.List(r.Context(), id.UserID, limit, offset)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.SuccessWithPagination(posts, &PaginationMeta{
		Count:   len(posts),
		Offset:  offset,
		Limit:   limit,
		HasMore: len(posts) == limit,
	})
}

// UpdatePost handles PUT /api/v1/posts/{id}.
func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	postID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("Invalid post update", details)
		return
	}

	post, err := h.posts.Update(r.Context(), id.UserID, id.Role, postID, req.Text)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(post)
}

// DeletePost handles DELETE /api/v1/posts/{id}.
func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	postID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), id.UserID, id.Role, postID); err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.NoContent()
}

// ToggleLike handles POST /api/v1/posts/{id}/like.
func (h *Handlers) ToggleLike(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	postID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	post, err := h.posts.ToggleLike(r.Context(), id.UserID, postID)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(post)
}

// AddComment handles POST /api/v1/posts/{id}/comments.
func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	postID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req AddCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if details := validateRequest(&req); details != nil {
		rw.ValidationError("Invalid comment", details)
		return
	}

	comment, err := h.posts.AddComment(r.Context(), id.UserID, postID, req.Text)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Created(comment)
}

// ListComments handles GET /api/v1/posts/{id}/comments.
func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	postID, ok := pathUUID(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	limit, offset := h.pagination(r)

	comments, err := h.posts.ListComments(r.Context(), postID, limit, offset)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.SuccessWithPagination(comments, &PaginationMeta{
		Count:   len(comments),
		Offset:  offset,
		Limit:   limit,
		HasMore: len(comments) == limit,
	})
}

// DeleteComment handles DELETE /api/v1/posts/{id}/comments/{commentId}.
func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := h.identity(rw, r)
	if !ok {
		return
	}
	commentID, ok := pathUUID(rw, chi.URLParam(r, "commentId"))
	if !ok {
		return
	}

	if err := h.posts.DeleteComment(r.Context(), id.UserID, id.Role, commentID); err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.NoContent()
}
