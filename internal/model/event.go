// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"
)

// Event is the API representation of an event log entry.
type Event struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Event log levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event log categories
const (
	EventCategoryAuth    = "auth"
	EventCategoryEnquiry = "enquiry"
	EventCategoryBlog    = "blog"
	EventCategoryUpload  = "upload"
	EventCategoryWebhook = "webhook"
	EventCategorySystem  = "system"
)

// Webhook event types dispatched to configured endpoints.
const (
	EventEnquirySubmitted = "enquiry.submitted"
)
