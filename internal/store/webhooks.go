package store

import (
	"context"
	"time"
)

const webhookColumns = `id, name, url, secret, events, is_active, created_at, updated_at`

func scanWebhook(row interface{ Scan(...any) error }) (Webhook, error) {
	var w Webhook
	err := row.Scan(&w.ID, &w.Name, &w.Url, &w.Secret, &w.Events, &w.IsActive,
		&w.CreatedAt, &w.UpdatedAt)
	return w, err
}

// CreateWebhookParams holds arguments for CreateWebhook.
type CreateWebhookParams struct {
	Name      string
	Url       string
	Secret    string
	Events    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateWebhook inserts a new webhook endpoint and returns the stored row.
func (q *Queries) CreateWebhook(ctx context.Context, arg CreateWebhookParams) (Webhook, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO webhooks (name, url, secret, events, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		RETURNING `+webhookColumns,
		arg.Name, arg.Url, arg.Secret, arg.Events, arg.CreatedAt, arg.UpdatedAt)
	return scanWebhook(row)
}

// GetWebhookByID returns the webhook with the given id.
func (q *Queries) GetWebhookByID(ctx context.Context, id int64) (Webhook, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+webhookColumns+` FROM webhooks WHERE id = ?`, id)
	return scanWebhook(row)
}

// ListWebhooks returns all webhook endpoints, active or not, newest first.
func (q *Queries) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+webhookColumns+` FROM webhooks ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

// ListActiveWebhooks returns all active webhook endpoints.
func (q *Queries) ListActiveWebhooks(ctx context.Context) ([]Webhook, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+webhookColumns+` FROM webhooks WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

// DeleteWebhook removes a webhook endpoint.
func (q *Queries) DeleteWebhook(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ?`, id)
	return err
}
