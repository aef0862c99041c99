// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

// Package media uploads user images to the configured upstream media
// service. Calls go through a circuit breaker so a degraded upstream fails
// fast instead of tying up request handlers; posting and chatting without
// images keeps working while the breaker is open.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/gatherhub/gatherhub/internal/config"
	"github.com/gatherhub/gatherhub/internal/logging"
	"github.com/gatherhub/gatherhub/internal/metrics"
)

// Upload errors.
var (
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("media upload temporarily unavailable")
	// ErrTooLarge is returned when the upload exceeds the size limit.
	ErrTooLarge = errors.New("upload exceeds size limit")
	// ErrNotConfigured is returned when no upstream is configured.
	ErrNotConfigured = errors.New("media upload not configured")
)

// UploadResult is the upstream's response for a stored image.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Uploader sends images to the upstream media service.
type Uploader struct {
	cfg     *config.MediaConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*UploadResult]
}

// NewUploader creates an uploader with its circuit breaker. The breaker
// opens after the configured number of consecutive failures and probes
// again after the open interval.
func NewUploader(cfg *config.MediaConfig) *Uploader {
	settings := gobreaker.Settings{
		Name:        "media-upload",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("media upload breaker state changed")
		},
	}

	return &Uploader{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[*UploadResult](settings),
	}
}

// Upload stores one image and returns its public URL. While the breaker is
// open the call fails immediately with ErrUnavailable.
func (u *Uploader) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	if u.cfg.UploadURL == "" {
		return nil, ErrNotConfigured
	}

	// Read up to the limit plus one byte to detect oversize payloads.
	data, err := io.ReadAll(io.LimitReader(r, u.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > u.cfg.MaxUploadBytes {
		return nil, ErrTooLarge
	}

	result, err := u.breaker.Execute(func() (*UploadResult, error) {
		return u.doUpload(ctx, filename, data)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordMediaUpload("rejected")
			return nil, ErrUnavailable
		}
		metrics.RecordMediaUpload("failure")
		return nil, err
	}

	metrics.RecordMediaUpload("success")
	return result, nil
}

func (u *Uploader) doUpload(ctx context.Context, filename string, data []byte) (*UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.cfg.UploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if u.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.cfg.APIKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.URL == "" {
		return nil, fmt.Errorf("upstream returned no url")
	}
	return &result, nil
}
