// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"

	"github.com/olegiv/traveldesk-go/internal/handler"
	"github.com/olegiv/traveldesk-go/internal/middleware"
	"github.com/olegiv/traveldesk-go/internal/model"
	"github.com/olegiv/traveldesk-go/internal/service"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// actor builds the service actor for the current request. Requests that
// passed the API key middleware act as that key's named admin.
func actor(r *http.Request) service.Actor {
	if key := middleware.GetAPIKey(r); key != nil {
		return service.AdminActor(key.Name)
	}
	return service.Public
}

// SubmitEnquiry handles the public enquiry form submission.
// POST /api/v1/enquiries/submit
func (h *Handler) SubmitEnquiry(w http.ResponseWriter, r *http.Request) {
	var input model.EnquiryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	enquiry, err := h.enquiries.Submit(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteCreated(w, "Enquiry submitted successfully", enquiry)
}

// ListEnquiries returns a filtered, paginated admin listing.
// GET /api/v1/enquiries/admin/all?page&limit&status&search
func (h *Handler) ListEnquiries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	items, pagination, err := h.enquiries.List(r.Context(), actor(r), service.ListEnquiriesInput{
		Page:   handler.ParsePageParam(r),
		Limit:  handler.ParseLimitParam(r, defaultPageSize, maxPageSize),
		Status: q.Get("status"),
		Search: q.Get("search"),
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WritePaginated(w, items, pagination)
}

// EnquiryStats returns aggregate counts and the monthly trend.
// GET /api/v1/enquiries/admin/stats
func (h *Handler) EnquiryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.enquiries.Stats(r.Context(), actor(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteSuccess(w, "", stats)
}

// GetEnquiry returns a single enquiry.
// GET /api/v1/enquiries/admin/{id}
func (h *Handler) GetEnquiry(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid enquiry ID")
		return
	}

	enquiry, err := h.enquiries.GetByID(r.Context(), actor(r), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteSuccess(w, "", enquiry)
}

// UpdateEnquiry applies a partial update (status and/or admin notes).
// PUT /api/v1/enquiries/admin/{id}
func (h *Handler) UpdateEnquiry(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid enquiry ID")
		return
	}

	var input service.UpdateEnquiryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	enquiry, err := h.enquiries.Update(r.Context(), actor(r), id, input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteSuccess(w, "Enquiry updated successfully", enquiry)
}

// DeleteEnquiry removes an enquiry permanently.
// DELETE /api/v1/enquiries/admin/{id}
func (h *Handler) DeleteEnquiry(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid enquiry ID")
		return
	}

	if err := h.enquiries.Delete(r.Context(), actor(r), id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteSuccess(w, "Enquiry deleted successfully", nil)
}
