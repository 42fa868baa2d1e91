// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/olegiv/traveldesk-go/internal/model"
	"github.com/olegiv/traveldesk-go/internal/store"
)

// DefaultEventLimit bounds the admin event log listing.
const (
	DefaultEventLimit = 50
	MaxEventLimit     = 500
)

// Admin manages operator-facing resources: API keys, webhook endpoints,
// and the event log.
type Admin struct {
	queries *store.Queries
	logger  *slog.Logger
	now     func() time.Time
}

// NewAdmin creates the admin provisioning service.
func NewAdmin(db *sql.DB, logger *slog.Logger) *Admin {
	if logger == nil {
		logger = slog.Default()
	}
	return &Admin{
		queries: store.New(db),
		logger:  logger,
		now:     time.Now,
	}
}

func storeAPIKeyToModel(k store.ApiKey) model.APIKey {
	doc := model.APIKey{
		ID:        k.ID,
		Name:      k.Name,
		KeyPrefix: k.KeyPrefix,
		IsActive:  k.IsActive,
		CreatedAt: k.CreatedAt,
	}
	if k.LastUsedAt.Valid {
		t := k.LastUsedAt.Time
		doc.LastUsedAt = &t
	}
	if k.ExpiresAt.Valid {
		t := k.ExpiresAt.Time
		doc.ExpiresAt = &t
	}
	return doc
}

func storeWebhookToModel(w store.Webhook) model.Webhook {
	doc := model.Webhook{
		ID:        w.ID,
		Name:      w.Name,
		URL:       w.Url,
		Events:    []string{},
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt,
	}
	if w.Events != "" {
		_ = json.Unmarshal([]byte(w.Events), &doc.Events)
	}
	return doc
}

// CreateAPIKeyInput holds the fields of an API key creation request.
type CreateAPIKeyInput struct {
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// CreateAPIKey issues a new admin key. The raw key is returned exactly
// once; only its hash is stored.
func (s *Admin) CreateAPIKey(ctx context.Context, actor Actor, in CreateAPIKeyInput) (model.APIKey, string, error) {
	if !actor.Admin {
		return model.APIKey{}, "", ErrForbidden
	}
	if in.Name == "" {
		return model.APIKey{}, "", NewValidationError("name", "Name is required")
	}

	rawKey, prefix, err := model.GenerateAPIKey()
	if err != nil {
		return model.APIKey{}, "", fmt.Errorf("generating key: %w", err)
	}

	expiresAt := sql.NullTime{}
	if in.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *in.ExpiresAt, Valid: true}
	}

	now := s.now()
	created, err := s.queries.CreateAPIKey(ctx, store.CreateAPIKeyParams{
		Name:      in.Name,
		KeyHash:   model.HashAPIKey(rawKey),
		KeyPrefix: prefix,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return model.APIKey{}, "", fmt.Errorf("creating api key: %w", err)
	}

	s.logger.Info("api key created", "category", model.EventCategoryAuth,
		"key_id", created.ID, "name", created.Name, "actor", actor.Name)
	return storeAPIKeyToModel(created), rawKey, nil
}

// ListAPIKeys returns all keys, newest first, without hashes.
func (s *Admin) ListAPIKeys(ctx context.Context, actor Actor) ([]model.APIKey, error) {
	if !actor.Admin {
		return nil, ErrForbidden
	}

	rows, err := s.queries.ListAPIKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}

	keys := make([]model.APIKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, storeAPIKeyToModel(row))
	}
	return keys, nil
}

// DeleteAPIKey revokes a key permanently.
func (s *Admin) DeleteAPIKey(ctx context.Context, actor Actor, id int64) error {
	if !actor.Admin {
		return ErrForbidden
	}

	key, err := s.queries.GetAPIKeyByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("getting api key: %w", err)
	}
	if err := s.queries.DeleteAPIKey(ctx, id); err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}

	s.logger.Info("api key deleted", "category", model.EventCategoryAuth,
		"key_id", id, "name", key.Name, "actor", actor.Name)
	return nil
}

// WebhookInput holds the fields of a webhook registration request.
type WebhookInput struct {
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

func (in *WebhookInput) validate() *ValidationError {
	errs := make(map[string]string)

	if in.Name == "" {
		errs["name"] = "Name is required"
	}

	switch u, err := url.Parse(in.URL); {
	case in.URL == "":
		errs["url"] = "URL is required"
	case err != nil, u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		errs["url"] = "URL must be a valid http or https address"
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// CreateWebhook registers a webhook endpoint. A signing secret is
// generated and returned exactly once.
func (s *Admin) CreateWebhook(ctx context.Context, actor Actor, in WebhookInput) (model.Webhook, string, error) {
	if !actor.Admin {
		return model.Webhook{}, "", ErrForbidden
	}
	if verr := in.validate(); verr != nil {
		return model.Webhook{}, "", verr
	}

	secret, err := model.GenerateWebhookSecret()
	if err != nil {
		return model.Webhook{}, "", fmt.Errorf("generating secret: %w", err)
	}

	events, err := json.Marshal(in.Events)
	if err != nil {
		return model.Webhook{}, "", fmt.Errorf("encoding events: %w", err)
	}
	if string(events) == "null" {
		events = []byte("[]")
	}

	now := s.now()
	created, err := s.queries.CreateWebhook(ctx, store.CreateWebhookParams{
		Name:      in.Name,
		Url:       in.URL,
		Secret:    secret,
		Events:    string(events),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return model.Webhook{}, "", fmt.Errorf("creating webhook: %w", err)
	}

	s.logger.Info("webhook created", "category", model.EventCategoryWebhook,
		"webhook_id", created.ID, "url", created.Url, "actor", actor.Name)
	return storeWebhookToModel(created), secret, nil
}

// ListWebhooks returns all webhook endpoints without secrets.
func (s *Admin) ListWebhooks(ctx context.Context, actor Actor) ([]model.Webhook, error) {
	if !actor.Admin {
		return nil, ErrForbidden
	}

	rows, err := s.queries.ListWebhooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing webhooks: %w", err)
	}

	hooks := make([]model.Webhook, 0, len(rows))
	for _, row := range rows {
		hooks = append(hooks, storeWebhookToModel(row))
	}
	return hooks, nil
}

// DeleteWebhook unregisters a webhook endpoint.
func (s *Admin) DeleteWebhook(ctx context.Context, actor Actor, id int64) error {
	if !actor.Admin {
		return ErrForbidden
	}

	hook, err := s.queries.GetWebhookByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("getting webhook: %w", err)
	}
	if err := s.queries.DeleteWebhook(ctx, id); err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}

	s.logger.Info("webhook deleted", "category", model.EventCategoryWebhook,
		"webhook_id", id, "url", hook.Url, "actor", actor.Name)
	return nil
}

// RecentEvents returns the newest event log entries.
func (s *Admin) RecentEvents(ctx context.Context, actor Actor, limit int) ([]model.Event, error) {
	if !actor.Admin {
		return nil, ErrForbidden
	}

	if limit < 1 {
		limit = DefaultEventLimit
	}
	if limit > MaxEventLimit {
		limit = MaxEventLimit
	}

	rows, err := s.queries.ListRecentEvents(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	events := make([]model.Event, 0, len(rows))
	for _, row := range rows {
		e := model.Event{
			ID:        row.ID,
			Level:     row.Level,
			Category:  row.Category,
			Message:   row.Message,
			CreatedAt: row.CreatedAt,
		}
		if row.Metadata != "" {
			e.Metadata = json.RawMessage(row.Metadata)
		}
		events = append(events, e)
	}
	return events, nil
}
