// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/traveldesk-go/internal/model"
	"github.com/olegiv/traveldesk-go/internal/store"
	"github.com/olegiv/traveldesk-go/internal/testutil"
)

func newTestAdmin(t *testing.T) *Admin {
	t.Helper()
	return NewAdmin(testutil.TestDB(t), testutil.TestLogger())
}

func TestCreateAPIKey(t *testing.T) {
	svc := newTestAdmin(t)
	ctx := context.Background()
	admin := AdminActor("admin")

	key, rawKey, err := svc.CreateAPIKey(ctx, admin, CreateAPIKeyInput{Name: "deploy"})
	require.NoError(t, err)

	assert.NotZero(t, key.ID)
	assert.Equal(t, "deploy", key.Name)
	assert.True(t, key.IsActive)
	assert.Equal(t, rawKey[:8], key.KeyPrefix)

	// Only the hash is persisted, and the raw key resolves to it.
	stored, err := svc.queries.GetAPIKeyByHash(ctx, model.HashAPIKey(rawKey))
	require.NoError(t, err)
	assert.Equal(t, key.ID, stored.ID)
	assert.NotEqual(t, rawKey, stored.KeyHash)

	_, _, err = svc.CreateAPIKey(ctx, Public, CreateAPIKeyInput{Name: "nope"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = svc.CreateAPIKey(ctx, admin, CreateAPIKeyInput{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
}

func TestListAndDeleteAPIKeys(t *testing.T) {
	svc := newTestAdmin(t)
	ctx := context.Background()
	admin := AdminActor("admin")

	first, _, err := svc.CreateAPIKey(ctx, admin, CreateAPIKeyInput{Name: "first"})
	require.NoError(t, err)
	_, _, err = svc.CreateAPIKey(ctx, admin, CreateAPIKeyInput{Name: "second"})
	require.NoError(t, err)

	keys, err := svc.ListAPIKeys(ctx, admin)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "second", keys[0].Name, "newest key listed first")

	_, err = svc.ListAPIKeys(ctx, Public)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.DeleteAPIKey(ctx, admin, first.ID))
	assert.ErrorIs(t, svc.DeleteAPIKey(ctx, admin, first.ID), ErrNotFound)

	keys, err = svc.ListAPIKeys(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestCreateWebhook(t *testing.T) {
	svc := newTestAdmin(t)
	ctx := context.Background()
	admin := AdminActor("admin")

	hook, secret, err := svc.CreateWebhook(ctx, admin, WebhookInput{
		Name:   "crm",
		URL:    "https://crm.example.com/hooks",
		Events: []string{model.EventEnquirySubmitted},
	})
	require.NoError(t, err)

	assert.NotZero(t, hook.ID)
	assert.Len(t, secret, 64, "secret is 32 random bytes hex-encoded")
	assert.Equal(t, []string{model.EventEnquirySubmitted}, hook.Events)
	assert.True(t, hook.IsActive)

	// A webhook with no event filter stores an empty list, not null.
	all, _, err := svc.CreateWebhook(ctx, admin, WebhookInput{
		Name: "audit", URL: "https://audit.example.com/in",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{}, all.Events)

	_, _, err = svc.CreateWebhook(ctx, Public, WebhookInput{
		Name: "nope", URL: "https://example.com",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateWebhookValidation(t *testing.T) {
	svc := newTestAdmin(t)
	ctx := context.Background()
	admin := AdminActor("admin")

	tests := []struct {
		name  string
		input WebhookInput
		field string
	}{
		{"missing name", WebhookInput{URL: "https://example.com"}, "name"},
		{"missing url", WebhookInput{Name: "hook"}, "url"},
		{"relative url", WebhookInput{Name: "hook", URL: "not-a-url"}, "url"},
		{"bad scheme", WebhookInput{Name: "hook", URL: "ftp://example.com"}, "url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.CreateWebhook(ctx, admin, tt.input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestListAndDeleteWebhooks(t *testing.T) {
	svc := newTestAdmin(t)
	ctx := context.Background()
	admin := AdminActor("admin")

	hook, _, err := svc.CreateWebhook(ctx, admin, WebhookInput{
		Name: "crm", URL: "https://crm.example.com/hooks",
	})
	require.NoError(t, err)

	hooks, err := svc.ListWebhooks(ctx, admin)
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	assert.Equal(t, "crm", hooks[0].Name)

	require.NoError(t, svc.DeleteWebhook(ctx, admin, hook.ID))
	assert.ErrorIs(t, svc.DeleteWebhook(ctx, admin, hook.ID), ErrNotFound)
}

func TestRecentEvents(t *testing.T) {
	svc := newTestAdmin(t)
	ctx := context.Background()
	admin := AdminActor("admin")

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 5; i++ {
		_, err := svc.queries.CreateEvent(ctx, store.CreateEventParams{
			Level:     model.EventLevelInfo,
			Category:  model.EventCategorySystem,
			Message:   fmt.Sprintf("entry %d", i),
			Metadata:  `{"n":1}`,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	events, err := svc.RecentEvents(ctx, admin, 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "entry 4", events[0].Message, "newest entry first")
	assert.JSONEq(t, `{"n":1}`, string(events[0].Metadata))

	// A non-positive limit falls back to the default.
	events, err = svc.RecentEvents(ctx, admin, 0)
	require.NoError(t, err)
	assert.Len(t, events, 5)

	_, err = svc.RecentEvents(ctx, Public, 10)
	assert.ErrorIs(t, err, ErrForbidden)
}
