// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/traveldesk-go/internal/model"
	"github.com/olegiv/traveldesk-go/internal/store"
)

// errorResponse is the JSON error envelope shared with the API handlers.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{Success: false, Error: message})
}

// APIKeyAuth validates the Authorization bearer token against the
// api_keys table and puts the key on the request context. Requests
// without a valid key are rejected with 401.
func APIKeyAuth(db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				writeError(w, http.StatusUnauthorized, "Invalid Authorization header format. Use: Bearer <api_key>")
				return
			}

			keyHash := model.HashAPIKey(parts[1])
			apiKey, err := queries.GetAPIKeyByHash(r.Context(), keyHash)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					writeError(w, http.StatusUnauthorized, "Invalid API key")
				} else {
					slog.Error("failed to validate API key", "error", err)
					writeError(w, http.StatusInternalServerError, "Failed to validate API key")
				}
				return
			}

			if !apiKey.IsActive {
				writeError(w, http.StatusUnauthorized, "API key is inactive")
				return
			}
			if apiKey.ExpiresAt.Valid && time.Now().After(apiKey.ExpiresAt.Time) {
				writeError(w, http.StatusUnauthorized, "API key has expired")
				return
			}

			touchAPIKey(queries, apiKey.ID)

			ctx := context.WithValue(r.Context(), ContextKeyAPIKey, apiKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAPIKeyAuth validates the bearer token when present but never
// rejects the request. Public endpoints use it so an admin key unlocks
// admin-only filters.
func OptionalAPIKeyAuth(db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				next.ServeHTTP(w, r)
				return
			}

			apiKey, err := queries.GetAPIKeyByHash(r.Context(), model.HashAPIKey(parts[1]))
			if err != nil || !apiKey.IsActive ||
				(apiKey.ExpiresAt.Valid && time.Now().After(apiKey.ExpiresAt.Time)) {
				next.ServeHTTP(w, r)
				return
			}

			touchAPIKey(queries, apiKey.ID)

			ctx := context.WithValue(r.Context(), ContextKeyAPIKey, apiKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// touchAPIKey records key usage out of the request path.
func touchAPIKey(queries *store.Queries, keyID int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queries.TouchAPIKey(ctx, store.TouchAPIKeyParams{
			ID:         keyID,
			LastUsedAt: time.Now(),
		})
	}()
}
