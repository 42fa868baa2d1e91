package store

import (
	"context"
	"database/sql"
	"time"
)

const apiKeyColumns = `id, name, key_hash, key_prefix, is_active, last_used_at, expires_at, created_at, updated_at`

func scanAPIKey(row interface{ Scan(...any) error }) (ApiKey, error) {
	var k ApiKey
	err := row.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.IsActive,
		&k.LastUsedAt, &k.ExpiresAt, &k.CreatedAt, &k.UpdatedAt)
	return k, err
}

// CreateAPIKeyParams holds arguments for CreateAPIKey.
type CreateAPIKeyParams struct {
	Name      string
	KeyHash   string
	KeyPrefix string
	ExpiresAt sql.NullTime
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateAPIKey inserts a new admin API key and returns the stored row.
func (q *Queries) CreateAPIKey(ctx context.Context, arg CreateAPIKeyParams) (ApiKey, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO api_keys (name, key_hash, key_prefix, is_active, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?, ?)
		RETURNING `+apiKeyColumns,
		arg.Name, arg.KeyHash, arg.KeyPrefix, arg.ExpiresAt, arg.CreatedAt, arg.UpdatedAt)
	return scanAPIKey(row)
}

// GetAPIKeyByID returns the API key with the given id.
func (q *Queries) GetAPIKeyByID(ctx context.Context, id int64) (ApiKey, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = ?`, id)
	return scanAPIKey(row)
}

// ListAPIKeys returns all API keys, newest first.
func (q *Queries) ListAPIKeys(ctx context.Context) ([]ApiKey, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ApiKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, k)
	}
	return items, rows.Err()
}

// DeleteAPIKey removes an API key.
func (q *Queries) DeleteAPIKey(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	return err
}

// GetAPIKeyByHash returns the API key with the given hash.
func (q *Queries) GetAPIKeyByHash(ctx context.Context, keyHash string) (ApiKey, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = ?`, keyHash)
	return scanAPIKey(row)
}

// TouchAPIKeyParams holds arguments for TouchAPIKey.
type TouchAPIKeyParams struct {
	ID         int64
	LastUsedAt time.Time
}

// TouchAPIKey records the time an API key was last used.
func (q *Queries) TouchAPIKey(ctx context.Context, arg TouchAPIKeyParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = ? WHERE id = ?`, arg.LastUsedAt, arg.ID)
	return err
}
