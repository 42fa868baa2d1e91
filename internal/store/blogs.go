package store

import (
	"context"
	"database/sql"
	"time"
)

const blogColumns = `id, title, slug, author, category, status, featured, read_time,
	hero_url, hero_alt, content, faqs, tags, related_ids,
	seo_title, seo_description, seo_keywords, publish_at, created_at, updated_at`

func scanBlog(row interface{ Scan(...any) error }) (Blog, error) {
	var b Blog
	err := row.Scan(&b.ID, &b.Title, &b.Slug, &b.Author, &b.Category, &b.Status,
		&b.Featured, &b.ReadTime, &b.HeroUrl, &b.HeroAlt, &b.Content, &b.Faqs,
		&b.Tags, &b.RelatedIds, &b.SeoTitle, &b.SeoDescription, &b.SeoKeywords,
		&b.PublishAt, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func collectBlogs(rows *sql.Rows) ([]Blog, error) {
	defer rows.Close()
	var items []Blog
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// CreateBlogParams holds arguments for CreateBlog.
type CreateBlogParams struct {
	Title          string
	Slug           string
	Author         string
	Category       string
	Status         string
	Featured       bool
	ReadTime       int64
	HeroUrl        string
	HeroAlt        string
	Content        string
	Faqs           string
	Tags           string
	RelatedIds     string
	SeoTitle       string
	SeoDescription string
	SeoKeywords    string
	PublishAt      sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateBlog inserts a new blog post and returns the stored row.
func (q *Queries) CreateBlog(ctx context.Context, arg CreateBlogParams) (Blog, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO blogs (title, slug, author, category, status, featured, read_time,
			hero_url, hero_alt, content, faqs, tags, related_ids,
			seo_title, seo_description, seo_keywords, publish_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+blogColumns,
		arg.Title, arg.Slug, arg.Author, arg.Category, arg.Status, arg.Featured,
		arg.ReadTime, arg.HeroUrl, arg.HeroAlt, arg.Content, arg.Faqs, arg.Tags,
		arg.RelatedIds, arg.SeoTitle, arg.SeoDescription, arg.SeoKeywords,
		arg.PublishAt, arg.CreatedAt, arg.UpdatedAt)
	return scanBlog(row)
}

// GetBlogByID returns the blog with the given ID regardless of status.
func (q *Queries) GetBlogByID(ctx context.Context, id int64) (Blog, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE id = ?`, id)
	return scanBlog(row)
}

// GetBlogBySlug returns the blog with the given slug regardless of status.
func (q *Queries) GetBlogBySlug(ctx context.Context, slug string) (Blog, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE slug = ?`, slug)
	return scanBlog(row)
}

// GetPublishedBlogBySlug returns the published blog with the given slug.
// Draft and archived posts are indistinguishable from missing ones.
func (q *Queries) GetPublishedBlogBySlug(ctx context.Context, slug string) (Blog, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE slug = ? AND status = 'Published'`, slug)
	return scanBlog(row)
}

// ListBlogsParams holds arguments for ListBlogs. Status and Category filter
// to exact matches when non-empty. Limit of -1 means no limit.
type ListBlogsParams struct {
	Status   string
	Category string
	Limit    int64
}

// ListBlogs returns blogs matching the filters, newest first.
func (q *Queries) ListBlogs(ctx context.Context, arg ListBlogsParams) ([]Blog, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+blogColumns+`
		FROM blogs
		WHERE (?1 = '' OR status = ?1)
		  AND (?2 = '' OR category = ?2)
		ORDER BY created_at DESC, id DESC
		LIMIT ?3`,
		arg.Status, arg.Category, arg.Limit)
	if err != nil {
		return nil, err
	}
	return collectBlogs(rows)
}

// ListFeaturedBlogs returns up to limit featured published blogs, most
// recently published first.
func (q *Queries) ListFeaturedBlogs(ctx context.Context, limit int64) ([]Blog, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+blogColumns+`
		FROM blogs
		WHERE featured = 1 AND status = 'Published'
		ORDER BY publish_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return collectBlogs(rows)
}

// BlogSlugExists returns 1 if any blog uses the given slug.
func (q *Queries) BlogSlugExists(ctx context.Context, slug string) (int64, error) {
	var exists int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blogs WHERE slug = ?`, slug).Scan(&exists)
	return exists, err
}

// BlogSlugExistsExcludingParams holds arguments for BlogSlugExistsExcluding.
type BlogSlugExistsExcludingParams struct {
	Slug string
	ID   int64
}

// BlogSlugExistsExcluding returns 1 if any blog other than ID uses the slug.
func (q *Queries) BlogSlugExistsExcluding(ctx context.Context, arg BlogSlugExistsExcludingParams) (int64, error) {
	var exists int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blogs WHERE slug = ? AND id != ?`,
		arg.Slug, arg.ID).Scan(&exists)
	return exists, err
}

// UpdateBlogParams holds arguments for UpdateBlog. The caller starts from
// the existing row and overwrites the fields it wants to change.
type UpdateBlogParams struct {
	ID             int64
	Title          string
	Slug           string
	Author         string
	Category       string
	Status         string
	Featured       bool
	ReadTime       int64
	HeroUrl        string
	HeroAlt        string
	Content        string
	Faqs           string
	Tags           string
	RelatedIds     string
	SeoTitle       string
	SeoDescription string
	SeoKeywords    string
	PublishAt      sql.NullTime
	UpdatedAt      time.Time
}

// UpdateBlog replaces the mutable fields of a blog and returns the updated row.
func (q *Queries) UpdateBlog(ctx context.Context, arg UpdateBlogParams) (Blog, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE blogs
		SET title = ?, slug = ?, author = ?, category = ?, status = ?, featured = ?,
			read_time = ?, hero_url = ?, hero_alt = ?, content = ?, faqs = ?,
			tags = ?, related_ids = ?, seo_title = ?, seo_description = ?,
			seo_keywords = ?, publish_at = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+blogColumns,
		arg.Title, arg.Slug, arg.Author, arg.Category, arg.Status, arg.Featured,
		arg.ReadTime, arg.HeroUrl, arg.HeroAlt, arg.Content, arg.Faqs, arg.Tags,
		arg.RelatedIds, arg.SeoTitle, arg.SeoDescription, arg.SeoKeywords,
		arg.PublishAt, arg.UpdatedAt, arg.ID)
	return scanBlog(row)
}

// DeleteBlog removes a blog permanently.
func (q *Queries) DeleteBlog(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id)
	return err
}

// ListScheduledBlogs returns draft blogs whose publish time has arrived.
func (q *Queries) ListScheduledBlogs(ctx context.Context, now time.Time) ([]Blog, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+blogColumns+`
		FROM blogs
		WHERE status = 'Draft' AND publish_at IS NOT NULL AND publish_at <= ?
		ORDER BY publish_at ASC`, now)
	if err != nil {
		return nil, err
	}
	return collectBlogs(rows)
}

// PublishBlogParams holds arguments for PublishBlog.
type PublishBlogParams struct {
	ID        int64
	UpdatedAt time.Time
}

// PublishBlog flips a blog to the published status.
func (q *Queries) PublishBlog(ctx context.Context, arg PublishBlogParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE blogs SET status = 'Published', updated_at = ? WHERE id = ?`,
		arg.UpdatedAt, arg.ID)
	return err
}
