// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package api

import "net/http"

// ListActivity handles GET /api/v1/activity: the recent platform activity
// feed, newest first.
func (h *Handlers) ListActivity(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	limit, offset := h.pagination(r)

	entries, err := h.db.ListActivity(r.Context(), limit, offset)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.SuccessWithPagination(entries, &PaginationMeta{
		Count:   len(entries),
		Offset:  offset,
		Limit:   limit,
		HasMore: len(entries) == limit,
	})
}
