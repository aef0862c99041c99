// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

// Package main is the entry point for the GatherHub server.
//
// GatherHub is a self-hosted social and event platform backend: a feed of
// posts with likes and comments, events with draft/publish lifecycle and
// attendee registration, and direct/group chat. Real-time notifications
// are pushed over two independent websocket gateways ("events" and
// "chat"), each pairing a connection registry with a notification
// dispatcher.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file and environment (koanf v2)
//  2. Database: DuckDB with the full relational schema
//  3. Sessions: BadgerDB-backed revocable session store
//  4. Authentication: JWT (HS256) bound to stored sessions
//  5. Gateways: the "events" and "chat" realtime hubs
//  6. Activity pipeline: watermill gochannel bus persisting the feed
//  7. HTTP server: chi-routed REST API plus the websocket endpoints
//
// Everything long-running is supervised by a suture tree; the HTTP layer
// and the messaging layer restart independently.
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, the hubs close their connections, and the database
// and session store close last.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatherhub/gatherhub/internal/activity"
	"github.com/gatherhub/gatherhub/internal/api"
	"github.com/gatherhub/gatherhub/internal/auth"
	"github.com/gatherhub/gatherhub/internal/config"
	"github.com/gatherhub/gatherhub/internal/database"
	"github.com/gatherhub/gatherhub/internal/logging"
	"github.com/gatherhub/gatherhub/internal/media"
	"github.com/gatherhub/gatherhub/internal/realtime"
	"github.com/gatherhub/gatherhub/internal/service"
	"github.com/gatherhub/gatherhub/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Str("addr", cfg.Addr()).
		Msg("Starting GatherHub")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	sessions, err := auth.NewBadgerSessionStore(cfg.Security.SessionStorePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()

	jwtMgr, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create JWT manager")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The two realtime gateways. Services dispatch through them; the HTTP
	// layer exposes their websocket endpoints.
	eventsGW := realtime.NewGateway("events")
	chatGW := realtime.NewGateway("chat")

	pipeline := activity.NewPipeline(&cfg.Activity, db)
	defer func() {
		if err := pipeline.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing activity pipeline")
		}
	}()

	handlers := api.NewHandlers(api.HandlerDeps{
		Config:        cfg,
		DB:            db,
		Posts:         service.NewPostService(db, eventsGW.Dispatcher, pipeline),
		Events:        service.NewEventService(db, eventsGW.Dispatcher, pipeline),
		Chat:          service.NewChatService(db, chatGW.Dispatcher, pipeline),
		JWT:           jwtMgr,
		Sessions:      sessions,
		Authenticator: auth.NewAuthenticator(jwtMgr, sessions),
		Hasher:        auth.NewPasswordHasher(cfg.Security.BcryptCost),
		LoginLimiter:  auth.NewLoginLimiter(5, 5*time.Minute),
		Uploader:      media.NewUploader(&cfg.Media),
		EventsGateway: eventsGW,
		ChatGateway:   chatGW,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(cfg, handlers),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(eventsGW.Hub)
	tree.AddMessagingService(chatGW.Hub)
	tree.AddMessagingService(pipeline)
	tree.AddMessagingService(supervisor.NewSessionCleanupService(sessions, 15*time.Minute))
	tree.AddAPIService(supervisor.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("GatherHub stopped gracefully")
}
