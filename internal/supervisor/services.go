// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gatherhub/gatherhub/internal/logging"
)

// HTTPServer matches *http.Server's lifecycle methods, allowing tests to
// substitute a mock.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService wraps an HTTP server as a supervised service,
// translating the blocking ListenAndServe pattern into suture's
// context-aware Serve.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService creates the wrapper.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. http.ErrServerClosed is the expected
// result of a graceful shutdown and maps to nil.
func (s *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		return ctx.Err()
	}
}

// String implements suture's service naming.
func (s *HTTPServerService) String() string {
	return "http-server"
}

// SessionCleaner is the subset of the session store the cleanup service
// needs.
type SessionCleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// SessionCleanupService periodically sweeps expired sessions from the
// session store. Badger expires entries lazily, so the sweep keeps the
// reverse user index from accumulating dead keys.
type SessionCleanupService struct {
	store    SessionCleaner
	interval time.Duration
}

// NewSessionCleanupService creates the cleanup service.
func NewSessionCleanupService(store SessionCleaner, interval time.Duration) *SessionCleanupService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &SessionCleanupService{store: store, interval: interval}
}

// Serve implements suture.Service.
func (s *SessionCleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed, err := s.store.CleanupExpired(ctx)
			if err != nil {
				logging.Warn().Err(err).Msg("session cleanup sweep failed")
				continue
			}
			if removed > 0 {
				logging.Debug().Int("removed", removed).Msg("expired sessions cleaned up")
			}
		}
	}
}

// String implements suture's service naming.
func (s *SessionCleanupService) String() string {
	return "session-cleanup"
}
