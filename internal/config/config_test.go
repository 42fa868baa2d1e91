// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data/traveldesk.db", cfg.DBPath)
	assert.Equal(t, "localhost:8080", cfg.ServerAddr())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.UseRedisCache())
	assert.Equal(t, 90, cfg.EventRetentionDays)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TDESK_SERVER_HOST", "0.0.0.0")
	t.Setenv("TDESK_SERVER_PORT", "9090")
	t.Setenv("TDESK_ENV", "production")
	t.Setenv("TDESK_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.ServerAddr())
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.UseRedisCache())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("TDESK_SUBMIT_RPS", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadRetention(t *testing.T) {
	t.Setenv("TDESK_EVENT_RETENTION_DAYS", "0")
	_, err := Load()
	assert.Error(t, err)
}
