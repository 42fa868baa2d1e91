// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST handlers for the travel backend.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/traveldesk-go/internal/imaging"
	"github.com/olegiv/traveldesk-go/internal/service"
	"github.com/olegiv/traveldesk-go/internal/version"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	enquiries *service.Enquiries
	blogs     *service.Blogs
	admin     *service.Admin
	processor *imaging.Processor
	logger    *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(enquiries *service.Enquiries, blogs *service.Blogs, admin *service.Admin, processor *imaging.Processor, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		enquiries: enquiries,
		blogs:     blogs,
		admin:     admin,
		processor: processor,
		logger:    logger,
	}
}

// Response is the standard JSON envelope. List endpoints add Count or
// Pagination; error responses carry only Success and Error.
type Response struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message,omitempty"`
	Data       any                 `json:"data,omitempty"`
	Count      *int                `json:"count,omitempty"`
	Pagination *service.Pagination `json:"pagination,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 success envelope.
func WriteSuccess(w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// WriteCreated writes a 201 success envelope.
func WriteCreated(w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// WriteList writes a success envelope with a result count.
func WriteList(w http.ResponseWriter, data any, count int) {
	WriteJSON(w, http.StatusOK, Response{Success: true, Data: data, Count: &count})
}

// WritePaginated writes a success envelope with pagination metadata.
func WritePaginated(w http.ResponseWriter, data any, pagination service.Pagination) {
	WriteJSON(w, http.StatusOK, Response{Success: true, Data: data, Pagination: &pagination})
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, Response{Success: false, Error: message})
}

// writeServiceError maps service-level errors onto the error taxonomy.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrForbidden):
		WriteError(w, http.StatusForbidden, "Forbidden")
	default:
		h.logger.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Status returns the API health and version.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, "", StatusResponse{
		Status:  "ok",
		Version: version.Version,
	})
}
