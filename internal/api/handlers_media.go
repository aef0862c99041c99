// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package api

import (
	"errors"
	"net/http"

	"github.com/gatherhub/gatherhub/internal/media"
)

// UploadMedia handles POST /api/v1/media/upload. The multipart "file" part
// is forwarded to the external image storage service; the circuit breaker
// inside the uploader turns a flapping upstream into fast 503s.
func (h *Handlers) UploadMedia(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if _, ok := h.identity(rw, r); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Media.MaxUploadBytes+4096)
	file, header, err := r.FormFile("file")
	if err != nil {
		rw.BadRequest("Multipart form must carry a \"file\" part")
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.uploader.Upload(r.Context(), header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrTooLarge):
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "File exceeds the upload size limit")
		case errors.Is(err, media.ErrNotConfigured):
			rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Media uploads are not configured")
		case errors.Is(err, media.ErrUnavailable):
			rw.Error(http.StatusServiceUnavailable, ErrCodeExternalServiceFail, "Media storage is temporarily unavailable")
		default:
			rw.ExternalServiceError("media-storage", err)
		}
		return
	}
	rw.Created(result)
}
