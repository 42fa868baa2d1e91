// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the application's business logic. Every
// operation takes an explicit Actor so authorization is enforced and
// testable without an HTTP harness.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Actor identifies the caller of a service operation.
type Actor struct {
	Name  string
	Admin bool
}

// Public is the anonymous caller used for unauthenticated requests.
var Public = Actor{Name: "public"}

// AdminActor returns an authenticated admin actor.
func AdminActor(name string) Actor {
	return Actor{Name: name, Admin: true}
}

// Service-level sentinel errors.
var (
	// ErrNotFound indicates no record matches the given identifier or slug.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the actor lacks permission for the operation.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports invalid caller input with per-field messages.
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface. Field messages are joined in
// field order for a stable, human-readable summary.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return strings.Join(parts, "; ")
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Pagination describes the position of a page within a filtered listing.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// NewPagination computes pagination metadata for a page of a listing.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// Dispatcher delivers domain events to external subscribers. The webhook
// dispatcher satisfies this; a nil dispatcher disables notifications.
type Dispatcher interface {
	Dispatch(ctx context.Context, event string, payload any)
}
