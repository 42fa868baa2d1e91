// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// rate limiting, and request context handling.
package middleware

import (
	"net/http"

	"github.com/olegiv/traveldesk-go/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys used by the middleware package.
const (
	ContextKeyAPIKey ContextKey = "api_key"
)

// GetAPIKey retrieves the authenticated API key from the request
// context. Returns nil when the request was not authenticated.
func GetAPIKey(r *http.Request) *store.ApiKey {
	apiKey, ok := r.Context().Value(ContextKeyAPIKey).(store.ApiKey)
	if !ok {
		return nil
	}
	return &apiKey
}
