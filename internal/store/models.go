// Package store provides database access for the application. Query
// methods follow the sqlc conventions used elsewhere in the codebase:
// context-first signatures, Params structs for multi-argument queries,
// and row structs mirroring table columns.
package store

import (
	"database/sql"
	"time"
)

// Enquiry mirrors a row of the enquiries table.
type Enquiry struct {
	ID         int64
	Name       string
	Phone      string
	Email      string
	Message    string
	Status     string
	AdminNotes sql.NullString
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Blog mirrors a row of the blogs table. Content, Faqs, Tags, RelatedIds
// and SeoKeywords hold JSON documents; the service layer owns their shape.
type Blog struct {
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
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ApiKey mirrors a row of the api_keys table.
type ApiKey struct {
	ID         int64
	Name       string
	KeyHash    string
	KeyPrefix  string
	IsActive   bool
	LastUsedAt sql.NullTime
	ExpiresAt  sql.NullTime
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Event mirrors a row of the events table.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

// Webhook mirrors a row of the webhooks table. Events holds a JSON array
// of subscribed event names.
type Webhook struct {
	ID        int64
	Name      string
	Url       string
	Secret    string
	Events    string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
