// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"

	"github.com/olegiv/traveldesk-go/internal/handler"
	"github.com/olegiv/traveldesk-go/internal/model"
	"github.com/olegiv/traveldesk-go/internal/service"
)

// CreateAPIKey issues a new admin key. The raw key appears in this
// response only.
// POST /api/v1/admin/keys
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var input service.CreateAPIKeyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	key, rawKey, err := h.admin.CreateAPIKey(r.Context(), actor(r), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteCreated(w, "API key created successfully", struct {
		Key    string       `json:"key"`
		APIKey model.APIKey `json:"apiKey"`
	}{Key: rawKey, APIKey: key})
}

// ListAPIKeys returns all admin keys, newest first.
// GET /api/v1/admin/keys
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.admin.ListAPIKeys(r.Context(), actor(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteList(w, keys, len(keys))
}

// DeleteAPIKey revokes an admin key.
// DELETE /api/v1/admin/keys/{id}
func (h *Handler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid key ID")
		return
	}

	if err := h.admin.DeleteAPIKey(r.Context(), actor(r), id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteSuccess(w, "API key deleted successfully", nil)
}

// CreateWebhook registers a webhook endpoint. The signing secret appears
// in this response only.
// POST /api/v1/admin/webhooks
func (h *Handler) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	var input service.WebhookInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	hook, secret, err := h.admin.CreateWebhook(r.Context(), actor(r), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteCreated(w, "Webhook created successfully", struct {
		Secret  string        `json:"secret"`
		Webhook model.Webhook `json:"webhook"`
	}{Secret: secret, Webhook: hook})
}

// ListWebhooks returns all registered webhook endpoints.
// GET /api/v1/admin/webhooks
func (h *Handler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := h.admin.ListWebhooks(r.Context(), actor(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteList(w, hooks, len(hooks))
}

// DeleteWebhook unregisters a webhook endpoint.
// DELETE /api/v1/admin/webhooks/{id}
func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid webhook ID")
		return
	}

	if err := h.admin.DeleteWebhook(r.Context(), actor(r), id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteSuccess(w, "Webhook deleted successfully", nil)
}

// ListEvents returns the newest event log entries.
// GET /api/v1/admin/events?limit
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := handler.ParseLimitParam(r, service.DefaultEventLimit, service.MaxEventLimit)

	events, err := h.admin.RecentEvents(r.Context(), actor(r), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	WriteList(w, events, len(events))
}
