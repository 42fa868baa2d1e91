// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/traveldesk-go/internal/handler"
	"github.com/olegiv/traveldesk-go/internal/service"
)

// ListBlogs returns published posts, optionally filtered by category.
// GET /api/v1/blogs?category&limit
func (h *Handler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	blogs, err := h.blogs.List(r.Context(), actor(r), service.ListBlogsInput{
		Category: q.Get("category"),
		Limit:    handler.ParseLimitParam(r, 0, 0),
		Status:   q.Get("status"),
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteList(w, blogs, len(blogs))
}

// GetFeaturedBlogs returns up to 3 featured published posts.
// GET /api/v1/blogs/featured
func (h *Handler) GetFeaturedBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.blogs.GetFeatured(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteList(w, blogs, len(blogs))
}

// GetBlogBySlug returns a published post by slug.
// GET /api/v1/blogs/slug/{slug}
func (h *Handler) GetBlogBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	blog, err := h.blogs.GetBySlug(r.Context(), slug)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteSuccess(w, "", blog)
}

// GetBlog returns a post regardless of status for admin editing.
// GET /api/v1/blogs/{id}
func (h *Handler) GetBlog(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}

	blog, err := h.blogs.GetByID(r.Context(), actor(r), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteSuccess(w, "", blog)
}

// CreateBlog persists a new blog document.
// POST /api/v1/blogs
func (h *Handler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	var input service.BlogInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	blog, err := h.blogs.Create(r.Context(), actor(r), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteCreated(w, "Blog created successfully", blog)
}

// UpdateBlog applies a partial update to a blog document.
// PUT /api/v1/blogs/{id}
func (h *Handler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}

	var input service.UpdateBlogInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	blog, err := h.blogs.Update(r.Context(), actor(r), id, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteSuccess(w, "Blog updated successfully", blog)
}

// DeleteBlog removes a blog post permanently.
// DELETE /api/v1/blogs/{id}
func (h *Handler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}

	if err := h.blogs.Delete(r.Context(), actor(r), id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteSuccess(w, "Blog deleted successfully", nil)
}
