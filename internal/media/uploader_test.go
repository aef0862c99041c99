// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gatherhub/gatherhub/internal/config"
	"github.com/gatherhub/gatherhub/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

func testMediaConfig(url string) *config.MediaConfig {
	return &config.MediaConfig{
		UploadURL:           url,
		APIKey:              "test-key",
		Timeout:             5 * time.Second,
		MaxUploadBytes:      1024,
		BreakerMaxFailures:  2,
		BreakerOpenInterval: time.Minute,
	}
}

func TestUploadSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing api key header, got %q", got)
		}
		if err := r.ParseMultipartForm(4096); err != nil {
			t.Errorf("expected multipart body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://cdn.example.com/img.png","public_id":"img"}`))
	}))
	defer srv.Close()

	u := NewUploader(testMediaConfig(srv.URL))
	result, err := u.Upload(context.Background(), "img.png", strings.NewReader("fake-image-bytes"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if result.URL != "https://cdn.example.com/img.png" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestUploadTooLarge(t *testing.T) {
	u := NewUploader(testMediaConfig("http://unused.invalid"))
	_, err := u.Upload(context.Background(), "big.png", strings.NewReader(strings.Repeat("x", 2048)))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestUploadNotConfigured(t *testing.T) {
	cfg := testMediaConfig("")
	u := NewUploader(cfg)
	_, err := u.Upload(context.Background(), "img.png", strings.NewReader("x"))
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	u := NewUploader(testMediaConfig(srv.URL))
	ctx := context.Background()

	// Two consecutive failures trip the breaker.
	for i := 0; i < 2; i++ {
		if _, err := u.Upload(ctx, "img.png", strings.NewReader("x")); err == nil {
			t.Fatalf("attempt %d should fail", i+1)
		}
	}

	// Breaker now open: upstream must not be called again.
	before := calls
	_, err := u.Upload(ctx, "img.png", strings.NewReader("x"))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable while open, got %v", err)
	}
	if calls != before {
		t.Errorf("upstream called while breaker open")
	}
}
