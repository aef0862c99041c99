// GatherHub - Social and Event Platform Backend
// Copyright 2026 GatherHub contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatherhub/gatherhub

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gatherhub/gatherhub/internal/config"
	"github.com/gatherhub/gatherhub/internal/middleware"
)

// NewRouter wires all routes. The route tree groups endpoints by rate
// limit tier: health endpoints get a permissive limit for monitoring, auth
// endpoints a strict one against brute force, everything else the
// configured default.
func NewRouter(cfg *config.Config, h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(httprate.LimitByIP(30, time.Minute))
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(h.authn.RequireAuth).Post("/logout", h.Logout)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if !cfg.Security.RateLimitDisabled {
			r.Use(httprate.LimitByIP(cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow))
		}
		r.Use(middleware.PrometheusMetrics)
		r.Use(h.authn.RequireAuth)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Get("/me", h.Me)
			r.Put("/me", h.UpdateMe)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.ListPosts)
			r.Post("/", h.CreatePost)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPost)
				r.Put("/", h.UpdatePost)
				r.Delete("/", h.DeletePost)
				r.Post("/like", h.ToggleLike)
				r.Get("/comments", h.ListComments)
				r.Post("/comments", h.AddComment)
				r.Delete("/comments/{commentId}", h.DeleteComment)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Post("/", h.CreateEvent)
			r.Get("/ws", h.EventsWebSocket)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetEvent)
				r.Put("/", h.UpdateEvent)
				r.Delete("/", h.DeleteEvent)
				r.Post("/publish", h.PublishEvent)
				r.Post("/register", h.RegisterForEvent)
				r.Delete("/register", h.UnregisterFromEvent)
				r.Get("/attendees", h.ListAttendees)
			})
		})

		r.Route("/chat", func(r chi.Router) {
			r.Get("/ws", h.ChatWebSocket)
			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", h.ListConversations)
				r.Post("/", h.CreateConversation)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetConversation)
					r.Get("/messages", h.ListMessages)
					r.Post("/messages", h.SendMessage)
					r.Put("/seen", h.MarkSeen)
				})
			})
		})

		r.Get("/activity", h.ListActivity)
		r.Post("/media/upload", h.UploadMedia)
	})

	return r
}
