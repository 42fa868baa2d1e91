// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/traveldesk-go/internal/middleware"
)

// Router assembles the /api/v1 route tree: public blog and enquiry
// routes, and the bearer-key protected admin surface.
func Router(h *Handler, db *sql.DB, submitRPS float64, submitBurst int) chi.Router {
	r := chi.NewRouter()

	r.Get("/status", h.Status)

	r.Route("/enquiries", func(r chi.Router) {
		r.With(middleware.IPRateLimit(submitRPS, submitBurst)).
			Post("/submit", h.SubmitEnquiry)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(db))
			r.Get("/all", h.ListEnquiries)
			r.Get("/stats", h.EnquiryStats)
			r.Get("/{id}", h.GetEnquiry)
			r.Put("/{id}", h.UpdateEnquiry)
			r.Delete("/{id}", h.DeleteEnquiry)
		})
	})

	r.Route("/blogs", func(r chi.Router) {
		r.With(middleware.OptionalAPIKeyAuth(db)).Get("/", h.ListBlogs)
		r.Get("/featured", h.GetFeaturedBlogs)
		r.Get("/slug/{slug}", h.GetBlogBySlug)

		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(db))
			r.Post("/", h.CreateBlog)
			r.Get("/{id}", h.GetBlog)
			r.Put("/{id}", h.UpdateBlog)
			r.Delete("/{id}", h.DeleteBlog)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(db))
		r.Get("/keys", h.ListAPIKeys)
		r.Post("/keys", h.CreateAPIKey)
		r.Delete("/keys/{id}", h.DeleteAPIKey)
		r.Get("/webhooks", h.ListWebhooks)
		r.Post("/webhooks", h.CreateWebhook)
		r.Delete("/webhooks/{id}", h.DeleteWebhook)
		r.Get("/events", h.ListEvents)
	})

	r.With(middleware.APIKeyAuth(db)).
		Post("/upload/image", h.UploadImage)

	return r
}
