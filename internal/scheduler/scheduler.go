// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the background jobs: publishing scheduled blog
// posts and pruning old event log entries.
package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/traveldesk-go/internal/model"
	"github.com/olegiv/traveldesk-go/internal/service"
	"github.com/olegiv/traveldesk-go/internal/store"
)

// Scheduler drives the cron jobs.
type Scheduler struct {
	queries       *store.Queries
	blogs         *service.Blogs
	cron          *cron.Cron
	logger        *slog.Logger
	retentionDays int
}

// New creates a scheduler. Publishing goes through the blog service so
// cached reads are invalidated along with the status flip. retentionDays
// controls how long event log entries are kept; zero disables pruning.
func New(db *sql.DB, logger *slog.Logger, retentionDays int, blogs *service.Blogs) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		queries:       store.New(db),
		blogs:         blogs,
		cron:          cron.New(),
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// Start registers the jobs and begins the cron loop. Scheduled posts
// are checked every minute; event pruning runs daily at 03:00.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("* * * * *", func() {
		if err := s.publishScheduled(); err != nil {
			s.logger.Error("failed to publish scheduled blogs", "error", err)
		}
	})
	if err != nil {
		return err
	}

	if s.retentionDays > 0 {
		_, err = s.cron.AddFunc("0 3 * * *", func() {
			if err := s.pruneEvents(); err != nil {
				s.logger.Error("failed to prune event log", "error", err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// publishScheduled flips draft posts whose publish time has arrived.
func (s *Scheduler) publishScheduled() error {
	ctx := context.Background()
	now := time.Now()

	published, err := s.blogs.PublishDue(ctx)
	if err != nil {
		return err
	}

	for _, blog := range published {
		s.logPublishEvent(ctx, blog, now)
		s.logger.Info("published scheduled blog",
			"blog_id", blog.ID,
			"slug", blog.Slug)
	}
	return nil
}

func (s *Scheduler) logPublishEvent(ctx context.Context, blog model.Blog, now time.Time) {
	scheduledAt := ""
	if blog.PublishedAt != nil {
		scheduledAt = blog.PublishedAt.Format(time.RFC3339)
	}
	metadata, _ := json.Marshal(map[string]any{
		"blog_id":      blog.ID,
		"slug":         blog.Slug,
		"scheduled_at": scheduledAt,
		"published_at": now.Format(time.RFC3339),
	})

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     model.EventLevelInfo,
		Category:  model.EventCategoryBlog,
		Message:   "Blog published automatically by scheduler: " + blog.Title,
		Metadata:  string(metadata),
		CreatedAt: now,
	})
	if err != nil {
		s.logger.Warn("failed to log scheduled publish event", "error", err)
	}
}

// pruneEvents deletes event log entries older than the retention window.
func (s *Scheduler) pruneEvents() error {
	ctx := context.Background()
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)

	deleted, err := s.queries.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("pruned event log", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}
