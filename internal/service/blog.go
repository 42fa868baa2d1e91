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
	"time"
	"unicode/utf8"

	"github.com/olegiv/traveldesk-go/internal/cache"
	"github.com/olegiv/traveldesk-go/internal/model"
	"github.com/olegiv/traveldesk-go/internal/render"
	"github.com/olegiv/traveldesk-go/internal/store"
	"github.com/olegiv/traveldesk-go/internal/util"
)

const (
	cacheKeyFeatured   = "blogs:featured"
	cacheKeySlugPrefix = "blog:slug:"
)

// DefaultAuthor is used when a blog document omits the author.
const DefaultAuthor = "Admin"

// Blogs implements blog content management: admin CRUD plus the public
// published-only queries.
type Blogs struct {
	queries *store.Queries
	logger  *slog.Logger
	cache   cache.Cache
	now     func() time.Time
}

// NewBlogs creates the blog service. c may be nil to disable read caching.
func NewBlogs(db *sql.DB, logger *slog.Logger, c cache.Cache) *Blogs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Blogs{
		queries: store.New(db),
		logger:  logger,
		cache:   c,
		now:     time.Now,
	}
}

// storeBlogToModel converts a stored row into the API document.
func storeBlogToModel(b store.Blog) (model.Blog, error) {
	doc := model.Blog{
		ID:        b.ID,
		Title:     b.Title,
		Slug:      b.Slug,
		Author:    b.Author,
		Category:  b.Category,
		Status:    b.Status,
		Featured:  b.Featured,
		ReadTime:  int(b.ReadTime),
		HeroImage: model.HeroImage{URL: b.HeroUrl, Alt: b.HeroAlt},
		SEO: model.SEOMeta{
			Title:       b.SeoTitle,
			Description: b.SeoDescription,
		},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if b.PublishAt.Valid {
		t := b.PublishAt.Time
		doc.PublishedAt = &t
	}

	for _, col := range []struct {
		src string
		dst any
	}{
		{b.Content, &doc.Content},
		{b.Faqs, &doc.FAQs},
		{b.Tags, &doc.Tags},
		{b.RelatedIds, &doc.RelatedPosts},
		{b.SeoKeywords, &doc.SEO.Keywords},
	} {
		if col.src == "" {
			continue
		}
		if err := json.Unmarshal([]byte(col.src), col.dst); err != nil {
			return model.Blog{}, fmt.Errorf("decoding blog %d document: %w", b.ID, err)
		}
	}

	return doc, nil
}

// marshalList marshals a possibly-nil slice as a JSON array, never null.
func marshalList(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}

// renderBlocks fills the HTML field of paragraph and quote blocks,
// recursing into sections.
func renderBlocks(blocks []model.ContentBlock) {
	for i := range blocks {
		switch blocks[i].Type {
		case model.BlockParagraph, model.BlockQuote:
			blocks[i].HTML = render.Markdown(blocks[i].Text)
		case model.BlockSection, model.BlockSubsection:
			renderBlocks(blocks[i].Children)
		}
	}
}

// BlogInput holds the fields of a blog create request.
type BlogInput struct {
	Title        string               `json:"title"`
	Slug         string               `json:"slug"`
	Author       string               `json:"author"`
	Category     string               `json:"category"`
	Status       string               `json:"status"`
	Featured     bool                 `json:"featured"`
	ReadTime     int                  `json:"readTime"`
	HeroImage    model.HeroImage      `json:"heroImage"`
	Content      []model.ContentBlock `json:"content"`
	FAQs         []model.FAQ          `json:"faqs"`
	Tags         []string             `json:"tags"`
	RelatedPosts []int64              `json:"relatedPosts"`
	SEO          model.SEOMeta        `json:"seo"`
	PublishedAt  *time.Time           `json:"publishedAt,omitempty"`
}

// validate checks schema-level constraints and normalizes defaults.
func (in *BlogInput) validate() *ValidationError {
	errs := make(map[string]string)

	if in.Title == "" {
		errs["title"] = "Title is required"
	} else if utf8.RuneCountInString(in.Title) > model.MaxTitleLength {
		errs["title"] = fmt.Sprintf("Title must be at most %d characters", model.MaxTitleLength)
	}

	if in.Slug == "" && in.Title != "" {
		in.Slug = util.Slugify(in.Title)
	}
	if in.Slug == "" {
		errs["slug"] = "Slug is required"
	} else if !util.IsValidSlug(in.Slug) {
		errs["slug"] = "Invalid slug format (use lowercase letters, numbers, and hyphens)"
	}

	if in.Status == "" {
		in.Status = model.BlogStatusDraft
	}
	if !model.IsValidBlogStatus(in.Status) {
		errs["status"] = "Status must be one of: Draft, Published, Archived"
	}

	if in.Author == "" {
		in.Author = DefaultAuthor
	}
	if in.ReadTime < 1 {
		in.ReadTime = 1
	}

	if err := model.ValidateContentBlocks(in.Content); err != nil {
		errs["content"] = err.Error()
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// Create persists a new blog document. The service performs schema-level
// validation only: required title and slug, slug uniqueness, the closed
// content-block type set, and the status enum.
func (s *Blogs) Create(ctx context.Context, actor Actor, in BlogInput) (model.Blog, error) {
	if !actor.Admin {
		return model.Blog{}, ErrForbidden
	}

	if verr := in.validate(); verr != nil {
		return model.Blog{}, verr
	}

	exists, err := s.queries.BlogSlugExists(ctx, in.Slug)
	if err != nil {
		return model.Blog{}, fmt.Errorf("checking slug: %w", err)
	}
	if exists != 0 {
		return model.Blog{}, NewValidationError("slug", "Slug already exists")
	}

	now := s.now()
	publishAt := sql.NullTime{}
	if in.PublishedAt != nil {
		publishAt = sql.NullTime{Time: *in.PublishedAt, Valid: true}
	} else if in.Status == model.BlogStatusPublished {
		// publish timestamp is set the moment a post goes public
		publishAt = sql.NullTime{Time: now, Valid: true}
	}

	params := store.CreateBlogParams{
		Title:          in.Title,
		Slug:           in.Slug,
		Author:         in.Author,
		Category:       in.Category,
		Status:         in.Status,
		Featured:       in.Featured,
		ReadTime:       int64(in.ReadTime),
		HeroUrl:        in.HeroImage.URL,
		HeroAlt:        in.HeroImage.Alt,
		SeoTitle:       in.SEO.Title,
		SeoDescription: in.SEO.Description,
		PublishAt:      publishAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for _, col := range []struct {
		src any
		dst *string
	}{
		{in.Content, &params.Content},
		{in.FAQs, &params.Faqs},
		{in.Tags, &params.Tags},
		{in.RelatedPosts, &params.RelatedIds},
		{in.SEO.Keywords, &params.SeoKeywords},
	} {
		if *col.dst, err = marshalList(col.src); err != nil {
			return model.Blog{}, fmt.Errorf("encoding blog document: %w", err)
		}
	}

	created, err := s.queries.CreateBlog(ctx, params)
	if err != nil {
		return model.Blog{}, fmt.Errorf("creating blog: %w", err)
	}

	s.logger.Info("blog created", "category", model.EventCategoryBlog,
		"blog_id", created.ID, "slug", created.Slug, "actor", actor.Name)
	s.invalidate(ctx, created.Slug)

	return storeBlogToModel(created)
}

// ListBlogsInput holds public/admin listing parameters. Status defaults to
// Published; Category "all" (or empty) disables category filtering. Limit 0
// means no limit.
type ListBlogsInput struct {
	Category string
	Limit    int
	Status   string
}

// List returns blogs matching the filters, newest first. Non-admin actors
// can only see published posts regardless of the requested status.
func (s *Blogs) List(ctx context.Context, actor Actor, in ListBlogsInput) ([]model.Blog, error) {
	status := in.Status
	if status == "" || !actor.Admin {
		status = model.BlogStatusPublished
	}

	category := in.Category
	if category == model.BlogCategoryAll {
		category = ""
	}

	limit := int64(in.Limit)
	if limit < 1 {
		limit = -1 // no limit
	}

	rows, err := s.queries.ListBlogs(ctx, store.ListBlogsParams{
		Status:   status,
		Category: category,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing blogs: %w", err)
	}

	public := status == model.BlogStatusPublished
	docs := make([]model.Blog, 0, len(rows))
	for _, row := range rows {
		doc, err := storeBlogToModel(row)
		if err != nil {
			return nil, err
		}
		if public {
			renderBlocks(doc.Content)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// GetByID returns a post regardless of status; used by admin editing flows.
func (s *Blogs) GetByID(ctx context.Context, actor Actor, id int64) (model.Blog, error) {
	if !actor.Admin {
		return model.Blog{}, ErrForbidden
	}

	row, err := s.queries.GetBlogByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Blog{}, ErrNotFound
		}
		return model.Blog{}, fmt.Errorf("getting blog: %w", err)
	}
	return storeBlogToModel(row)
}

// GetBySlug returns a published post by slug. Draft and archived posts are
// indistinguishable from missing ones so the existence of unpublished
// content does not leak.
func (s *Blogs) GetBySlug(ctx context.Context, slug string) (model.Blog, error) {
	if doc, ok := s.cachedBlog(ctx, cacheKeySlugPrefix+slug); ok {
		return doc, nil
	}

	row, err := s.queries.GetPublishedBlogBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Blog{}, ErrNotFound
		}
		return model.Blog{}, fmt.Errorf("getting blog by slug: %w", err)
	}

	doc, err := storeBlogToModel(row)
	if err != nil {
		return model.Blog{}, err
	}
	renderBlocks(doc.Content)

	s.cacheBlob(ctx, cacheKeySlugPrefix+slug, doc)
	return doc, nil
}

// GetFeatured returns up to 3 featured published posts, most recently
// published first.
func (s *Blogs) GetFeatured(ctx context.Context) ([]model.Blog, error) {
	if docs, ok := s.cachedBlogs(ctx, cacheKeyFeatured); ok {
		return docs, nil
	}

	rows, err := s.queries.ListFeaturedBlogs(ctx, model.MaxFeatured)
	if err != nil {
		return nil, fmt.Errorf("listing featured blogs: %w", err)
	}

	docs := make([]model.Blog, 0, len(rows))
	for _, row := range rows {
		doc, err := storeBlogToModel(row)
		if err != nil {
			return nil, err
		}
		renderBlocks(doc.Content)
		docs = append(docs, doc)
	}

	s.cacheBlob(ctx, cacheKeyFeatured, docs)
	return docs, nil
}

// UpdateBlogInput holds a partial blog update. Nil fields are left
// unchanged; provided fields replace the stored values entirely.
type UpdateBlogInput struct {
	Title        *string               `json:"title,omitempty"`
	Slug         *string               `json:"slug,omitempty"`
	Author       *string               `json:"author,omitempty"`
	Category     *string               `json:"category,omitempty"`
	Status       *string               `json:"status,omitempty"`
	Featured     *bool                 `json:"featured,omitempty"`
	ReadTime     *int                  `json:"readTime,omitempty"`
	HeroImage    *model.HeroImage      `json:"heroImage,omitempty"`
	Content      *[]model.ContentBlock `json:"content,omitempty"`
	FAQs         *[]model.FAQ          `json:"faqs,omitempty"`
	Tags         *[]string             `json:"tags,omitempty"`
	RelatedPosts *[]int64              `json:"relatedPosts,omitempty"`
	SEO          *model.SEOMeta        `json:"seo,omitempty"`
	PublishedAt  *time.Time            `json:"publishedAt,omitempty"`
}

// Update applies a partial update to a blog post, re-running schema
// validators on the fields provided.
func (s *Blogs) Update(ctx context.Context, actor Actor, id int64, in UpdateBlogInput) (model.Blog, error) {
	if !actor.Admin {
		return model.Blog{}, ErrForbidden
	}

	existing, err := s.queries.GetBlogByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Blog{}, ErrNotFound
		}
		return model.Blog{}, fmt.Errorf("getting blog: %w", err)
	}

	params := store.UpdateBlogParams{
		ID:             existing.ID,
		Title:          existing.Title,
		Slug:           existing.Slug,
		Author:         existing.Author,
		Category:       existing.Category,
		Status:         existing.Status,
		Featured:       existing.Featured,
		ReadTime:       existing.ReadTime,
		HeroUrl:        existing.HeroUrl,
		HeroAlt:        existing.HeroAlt,
		Content:        existing.Content,
		Faqs:           existing.Faqs,
		Tags:           existing.Tags,
		RelatedIds:     existing.RelatedIds,
		SeoTitle:       existing.SeoTitle,
		SeoDescription: existing.SeoDescription,
		SeoKeywords:    existing.SeoKeywords,
		PublishAt:      existing.PublishAt,
		UpdatedAt:      s.now(),
	}

	if in.Title != nil {
		if *in.Title == "" {
			return model.Blog{}, NewValidationError("title", "Title is required")
		}
		if utf8.RuneCountInString(*in.Title) > model.MaxTitleLength {
			return model.Blog{}, NewValidationError("title",
				fmt.Sprintf("Title must be at most %d characters", model.MaxTitleLength))
		}
		params.Title = *in.Title
	}

	if in.Slug != nil && *in.Slug != existing.Slug {
		if !util.IsValidSlug(*in.Slug) {
			return model.Blog{}, NewValidationError("slug",
				"Invalid slug format (use lowercase letters, numbers, and hyphens)")
		}
		exists, err := s.queries.BlogSlugExistsExcluding(ctx, store.BlogSlugExistsExcludingParams{
			Slug: *in.Slug,
			ID:   existing.ID,
		})
		if err != nil {
			return model.Blog{}, fmt.Errorf("checking slug: %w", err)
		}
		if exists != 0 {
			return model.Blog{}, NewValidationError("slug", "Slug already exists")
		}
		params.Slug = *in.Slug
	}

	if in.Status != nil {
		if !model.IsValidBlogStatus(*in.Status) {
			return model.Blog{}, NewValidationError("status",
				"Status must be one of: Draft, Published, Archived")
		}
		params.Status = *in.Status
		if *in.Status == model.BlogStatusPublished && !params.PublishAt.Valid {
			params.PublishAt = sql.NullTime{Time: s.now(), Valid: true}
		}
	}

	if in.Author != nil {
		params.Author = *in.Author
	}
	if in.Category != nil {
		params.Category = *in.Category
	}
	if in.Featured != nil {
		params.Featured = *in.Featured
	}
	if in.ReadTime != nil {
		rt := *in.ReadTime
		if rt < 1 {
			rt = 1
		}
		params.ReadTime = int64(rt)
	}
	if in.HeroImage != nil {
		params.HeroUrl = in.HeroImage.URL
		params.HeroAlt = in.HeroImage.Alt
	}
	if in.PublishedAt != nil {
		params.PublishAt = sql.NullTime{Time: *in.PublishedAt, Valid: true}
	}

	if in.Content != nil {
		if err := model.ValidateContentBlocks(*in.Content); err != nil {
			return model.Blog{}, NewValidationError("content", err.Error())
		}
		if params.Content, err = marshalList(*in.Content); err != nil {
			return model.Blog{}, fmt.Errorf("encoding content: %w", err)
		}
	}
	if in.FAQs != nil {
		if params.Faqs, err = marshalList(*in.FAQs); err != nil {
			return model.Blog{}, fmt.Errorf("encoding faqs: %w", err)
		}
	}
	if in.Tags != nil {
		if params.Tags, err = marshalList(*in.Tags); err != nil {
			return model.Blog{}, fmt.Errorf("encoding tags: %w", err)
		}
	}
	if in.RelatedPosts != nil {
		if params.RelatedIds, err = marshalList(*in.RelatedPosts); err != nil {
			return model.Blog{}, fmt.Errorf("encoding related posts: %w", err)
		}
	}
	if in.SEO != nil {
		params.SeoTitle = in.SEO.Title
		params.SeoDescription = in.SEO.Description
		if params.SeoKeywords, err = marshalList(in.SEO.Keywords); err != nil {
			return model.Blog{}, fmt.Errorf("encoding seo keywords: %w", err)
		}
	}

	updated, err := s.queries.UpdateBlog(ctx, params)
	if err != nil {
		return model.Blog{}, fmt.Errorf("updating blog: %w", err)
	}

	s.invalidate(ctx, existing.Slug)
	if updated.Slug != existing.Slug {
		s.invalidate(ctx, updated.Slug)
	}

	return storeBlogToModel(updated)
}

// PublishDue flips scheduled drafts whose publish time has arrived to
// Published and drops their cached copies, so the posts surface in slug
// and featured reads immediately. Returns the published posts.
func (s *Blogs) PublishDue(ctx context.Context) ([]model.Blog, error) {
	now := s.now()
	rows, err := s.queries.ListScheduledBlogs(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled blogs: %w", err)
	}

	published := make([]model.Blog, 0, len(rows))
	for _, row := range rows {
		err := s.queries.PublishBlog(ctx, store.PublishBlogParams{
			ID:        row.ID,
			UpdatedAt: now,
		})
		if err != nil {
			s.logger.Error("failed to publish scheduled blog",
				"blog_id", row.ID, "slug", row.Slug, "error", err)
			continue
		}
		s.invalidate(ctx, row.Slug)

		row.Status = model.BlogStatusPublished
		row.UpdatedAt = now
		doc, err := storeBlogToModel(row)
		if err != nil {
			s.logger.Error("decoding published blog", "blog_id", row.ID, "error", err)
			continue
		}
		published = append(published, doc)
	}
	return published, nil
}

// Delete removes a blog post permanently.
func (s *Blogs) Delete(ctx context.Context, actor Actor, id int64) error {
	if !actor.Admin {
		return ErrForbidden
	}

	existing, err := s.queries.GetBlogByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("getting blog: %w", err)
	}

	if err := s.queries.DeleteBlog(ctx, id); err != nil {
		return fmt.Errorf("deleting blog: %w", err)
	}

	s.logger.Info("blog deleted", "category", model.EventCategoryBlog,
		"blog_id", id, "slug", existing.Slug, "actor", actor.Name)
	s.invalidate(ctx, existing.Slug)
	return nil
}

// cachedBlog loads a single cached document; a decode failure is treated
// as a miss.
func (s *Blogs) cachedBlog(ctx context.Context, key string) (model.Blog, bool) {
	if s.cache == nil {
		return model.Blog{}, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return model.Blog{}, false
	}
	var doc model.Blog
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.Blog{}, false
	}
	return doc, true
}

// cachedBlogs loads a cached document list; a decode failure is a miss.
func (s *Blogs) cachedBlogs(ctx context.Context, key string) ([]model.Blog, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var docs []model.Blog
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, false
	}
	return docs, true
}

// cacheBlob stores a value under key; cache errors are logged, not returned.
func (s *Blogs) cacheBlob(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, 0); err != nil {
		s.logger.Debug("blog cache set failed", "key", key, "error", err)
	}
}

// invalidate drops cached entries affected by a blog mutation.
func (s *Blogs) invalidate(ctx context.Context, slug string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, cacheKeySlugPrefix+slug)
	_ = s.cache.Delete(ctx, cacheKeyFeatured)
}
