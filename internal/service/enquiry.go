// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/traveldesk-go/internal/model"
	"github.com/olegiv/traveldesk-go/internal/store"
)

// Listing defaults for admin enquiry queries.
const (
	DefaultEnquiryPage  = 1
	DefaultEnquiryLimit = 10
	MaxEnquiryLimit     = 100
)

// recentWindow is the lookback used for the "recent" stats counter.
const recentWindow = 7 * 24 * time.Hour

// trendMonths is the number of calendar months covered by the stats trend.
const trendMonths = 6

// Enquiries implements the customer enquiry workflow: public submission,
// admin listing, status updates, and aggregate statistics.
type Enquiries struct {
	queries    *store.Queries
	logger     *slog.Logger
	dispatcher Dispatcher
	now        func() time.Time
}

// NewEnquiries creates the enquiry service. dispatcher may be nil to
// disable submission notifications.
func NewEnquiries(db *sql.DB, logger *slog.Logger, dispatcher Dispatcher) *Enquiries {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enquiries{
		queries:    store.New(db),
		logger:     logger,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// storeEnquiryToModel converts a stored row into the API document.
func storeEnquiryToModel(e store.Enquiry) model.Enquiry {
	return model.Enquiry{
		ID:         e.ID,
		Name:       e.Name,
		Phone:      e.Phone,
		Email:      e.Email,
		Message:    e.Message,
		Status:     e.Status,
		AdminNotes: e.AdminNotes.String,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// Submit validates and persists a public enquiry submission. On success the
// stored record has status pending; nothing is persisted on validation
// failure.
func (s *Enquiries) Submit(ctx context.Context, in model.EnquiryInput) (model.Enquiry, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return model.Enquiry{}, &ValidationError{Fields: errs}
	}

	now := s.now()
	enquiry, err := s.queries.CreateEnquiry(ctx, store.CreateEnquiryParams{
		Name:      in.Name,
		Phone:     in.Phone,
		Email:     in.Email,
		Message:   in.Message,
		Status:    model.EnquiryStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return model.Enquiry{}, fmt.Errorf("creating enquiry: %w", err)
	}

	s.logger.Info("enquiry submitted", "category", model.EventCategoryEnquiry,
		"enquiry_id", enquiry.ID, "email", enquiry.Email)

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, model.EventEnquirySubmitted, map[string]any{
			"id":          enquiry.ID,
			"name":        enquiry.Name,
			"email":       enquiry.Email,
			"phoneNumber": enquiry.Phone,
			"submittedAt": enquiry.CreatedAt,
		})
	}

	return storeEnquiryToModel(enquiry), nil
}

// ListEnquiriesInput holds admin listing parameters. Zero values fall back
// to defaults; Status "all" (or empty) disables status filtering.
type ListEnquiriesInput struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// List returns a page of enquiries for an admin, newest first, with
// pagination metadata.
func (s *Enquiries) List(ctx context.Context, actor Actor, in ListEnquiriesInput) ([]model.Enquiry, Pagination, error) {
	if !actor.Admin {
		return nil, Pagination{}, ErrForbidden
	}

	if in.Page < 1 {
		in.Page = DefaultEnquiryPage
	}
	if in.Limit < 1 {
		in.Limit = DefaultEnquiryLimit
	}
	if in.Limit > MaxEnquiryLimit {
		in.Limit = MaxEnquiryLimit
	}

	status := in.Status
	if status == model.EnquiryStatusAll {
		status = ""
	}

	params := store.ListEnquiriesParams{
		Status: status,
		Search: in.Search,
		Limit:  int64(in.Limit),
		Offset: int64((in.Page - 1) * in.Limit),
	}

	rows, err := s.queries.ListEnquiries(ctx, params)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("listing enquiries: %w", err)
	}
	total, err := s.queries.CountEnquiries(ctx, params)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("counting enquiries: %w", err)
	}

	items := make([]model.Enquiry, 0, len(rows))
	for _, row := range rows {
		items = append(items, storeEnquiryToModel(row))
	}
	return items, NewPagination(in.Page, in.Limit, total), nil
}

// GetByID returns a single enquiry for an admin.
func (s *Enquiries) GetByID(ctx context.Context, actor Actor, id int64) (model.Enquiry, error) {
	if !actor.Admin {
		return model.Enquiry{}, ErrForbidden
	}

	enquiry, err := s.queries.GetEnquiryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Enquiry{}, ErrNotFound
		}
		return model.Enquiry{}, fmt.Errorf("getting enquiry: %w", err)
	}
	return storeEnquiryToModel(enquiry), nil
}

// UpdateEnquiryInput holds the admin-mutable enquiry fields. Nil fields
// are left unchanged.
type UpdateEnquiryInput struct {
	Status     *string `json:"status,omitempty"`
	AdminNotes *string `json:"adminNotes,omitempty"`
}

// Update applies a partial update to an enquiry. Status values are
// re-validated against the enum.
func (s *Enquiries) Update(ctx context.Context, actor Actor, id int64, in UpdateEnquiryInput) (model.Enquiry, error) {
	if !actor.Admin {
		return model.Enquiry{}, ErrForbidden
	}

	existing, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return model.Enquiry{}, err
	}

	params := store.UpdateEnquiryParams{
		ID:         existing.ID,
		Status:     existing.Status,
		AdminNotes: existing.AdminNotes,
		UpdatedAt:  s.now(),
	}

	if in.Status != nil {
		if !model.IsValidEnquiryStatus(*in.Status) {
			return model.Enquiry{}, NewValidationError("status",
				"Status must be one of: pending, contacted, resolved, spam")
		}
		params.Status = *in.Status
	}
	if in.AdminNotes != nil {
		params.AdminNotes = *in.AdminNotes
	}

	updated, err := s.queries.UpdateEnquiry(ctx, params)
	if err != nil {
		return model.Enquiry{}, fmt.Errorf("updating enquiry: %w", err)
	}
	return storeEnquiryToModel(updated), nil
}

// Delete removes an enquiry permanently.
func (s *Enquiries) Delete(ctx context.Context, actor Actor, id int64) error {
	if !actor.Admin {
		return ErrForbidden
	}

	if _, err := s.GetByID(ctx, actor, id); err != nil {
		return err
	}
	if err := s.queries.DeleteEnquiry(ctx, id); err != nil {
		return fmt.Errorf("deleting enquiry: %w", err)
	}
	return nil
}

// MonthCount is one entry of the monthly enquiry trend.
type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// EnquiryStats aggregates enquiry counters for the admin dashboard.
type EnquiryStats struct {
	Total        int64        `json:"total"`
	Pending      int64        `json:"pending"`
	Contacted    int64        `json:"contacted"`
	Resolved     int64        `json:"resolved"`
	Spam         int64        `json:"spam"`
	Recent       int64        `json:"recent"`
	MonthlyTrend []MonthCount `json:"monthlyTrend"`
}

// Stats returns total and per-status counts, the count of enquiries from
// the last 7 days, and a 6-entry calendar-month trend ordered oldest to
// newest with the current month last.
func (s *Enquiries) Stats(ctx context.Context, actor Actor) (EnquiryStats, error) {
	if !actor.Admin {
		return EnquiryStats{}, ErrForbidden
	}

	var stats EnquiryStats
	var err error

	if stats.Total, err = s.queries.CountAllEnquiries(ctx); err != nil {
		return EnquiryStats{}, fmt.Errorf("counting enquiries: %w", err)
	}

	counters := []struct {
		status string
		dst    *int64
	}{
		{model.EnquiryStatusPending, &stats.Pending},
		{model.EnquiryStatusContacted, &stats.Contacted},
		{model.EnquiryStatusResolved, &stats.Resolved},
		{model.EnquiryStatusSpam, &stats.Spam},
	}
	for _, c := range counters {
		if *c.dst, err = s.queries.CountEnquiriesByStatus(ctx, c.status); err != nil {
			return EnquiryStats{}, fmt.Errorf("counting %s enquiries: %w", c.status, err)
		}
	}

	now := s.now()
	if stats.Recent, err = s.queries.CountEnquiriesSince(ctx, now.Add(-recentWindow)); err != nil {
		return EnquiryStats{}, fmt.Errorf("counting recent enquiries: %w", err)
	}

	stats.MonthlyTrend = make([]MonthCount, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0).Add(-time.Second)

		count, err := s.queries.CountEnquiriesBetween(ctx, store.CountEnquiriesBetweenParams{
			Start: start,
			End:   end,
		})
		if err != nil {
			return EnquiryStats{}, fmt.Errorf("counting monthly enquiries: %w", err)
		}
		stats.MonthlyTrend = append(stats.MonthlyTrend, MonthCount{
			Month: start.Format("Jan"),
			Count: count,
		})
	}

	return stats, nil
}
