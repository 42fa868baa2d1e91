package store

import (
	"context"
	"strings"
	"time"
)

const enquiryColumns = `id, name, phone, email, message, status, admin_notes, created_at, updated_at`

func scanEnquiry(row interface{ Scan(...any) error }) (Enquiry, error) {
	var e Enquiry
	err := row.Scan(&e.ID, &e.Name, &e.Phone, &e.Email, &e.Message, &e.Status,
		&e.AdminNotes, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// CreateEnquiryParams holds arguments for CreateEnquiry.
type CreateEnquiryParams struct {
	Name      string
	Phone     string
	Email     string
	Message   string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateEnquiry inserts a new enquiry and returns the stored row.
func (q *Queries) CreateEnquiry(ctx context.Context, arg CreateEnquiryParams) (Enquiry, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO enquiries (name, phone, email, message, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+enquiryColumns,
		arg.Name, arg.Phone, arg.Email, arg.Message, arg.Status, arg.CreatedAt, arg.UpdatedAt)
	return scanEnquiry(row)
}

// GetEnquiryByID returns the enquiry with the given ID.
func (q *Queries) GetEnquiryByID(ctx context.Context, id int64) (Enquiry, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+enquiryColumns+` FROM enquiries WHERE id = ?`, id)
	return scanEnquiry(row)
}

// ListEnquiriesParams holds arguments for ListEnquiries and CountEnquiries.
// Status filters to an exact match when non-empty. Search matches
// case-insensitively against name, email or phone when non-empty.
type ListEnquiriesParams struct {
	Status string
	Search string
	Limit  int64
	Offset int64
}

// searchPattern converts a raw search term to a lowercase LIKE pattern,
// or returns "" when no search is requested.
func searchPattern(search string) string {
	if search == "" {
		return ""
	}
	return "%" + strings.ToLower(search) + "%"
}

// ListEnquiries returns a page of enquiries, newest first.
func (q *Queries) ListEnquiries(ctx context.Context, arg ListEnquiriesParams) ([]Enquiry, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+enquiryColumns+`
		FROM enquiries
		WHERE (?1 = '' OR status = ?1)
		  AND (?2 = '' OR lower(name) LIKE ?2 OR lower(email) LIKE ?2 OR lower(phone) LIKE ?2)
		ORDER BY created_at DESC, id DESC
		LIMIT ?3 OFFSET ?4`,
		arg.Status, searchPattern(arg.Search), arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Enquiry
	for rows.Next() {
		e, err := scanEnquiry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// CountEnquiries returns the number of enquiries matching the same filters
// as ListEnquiries.
func (q *Queries) CountEnquiries(ctx context.Context, arg ListEnquiriesParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM enquiries
		WHERE (?1 = '' OR status = ?1)
		  AND (?2 = '' OR lower(name) LIKE ?2 OR lower(email) LIKE ?2 OR lower(phone) LIKE ?2)`,
		arg.Status, searchPattern(arg.Search)).Scan(&count)
	return count, err
}

// UpdateEnquiryParams holds arguments for UpdateEnquiry. The caller is
// expected to start from the existing row and overwrite the fields it
// wants to change.
type UpdateEnquiryParams struct {
	ID         int64
	Status     string
	AdminNotes string
	UpdatedAt  time.Time
}

// UpdateEnquiry updates the admin-mutable fields of an enquiry and returns
// the updated row.
func (q *Queries) UpdateEnquiry(ctx context.Context, arg UpdateEnquiryParams) (Enquiry, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE enquiries
		SET status = ?, admin_notes = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+enquiryColumns,
		arg.Status, arg.AdminNotes, arg.UpdatedAt, arg.ID)
	return scanEnquiry(row)
}

// DeleteEnquiry removes an enquiry permanently.
func (q *Queries) DeleteEnquiry(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM enquiries WHERE id = ?`, id)
	return err
}

// CountEnquiriesByStatus returns the number of enquiries with the given status.
func (q *Queries) CountEnquiriesByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enquiries WHERE status = ?`, status).Scan(&count)
	return count, err
}

// CountAllEnquiries returns the total number of enquiries.
func (q *Queries) CountAllEnquiries(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM enquiries`).Scan(&count)
	return count, err
}

// CountEnquiriesSince returns the number of enquiries created at or after t.
func (q *Queries) CountEnquiriesSince(ctx context.Context, t time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enquiries WHERE created_at >= ?`, t).Scan(&count)
	return count, err
}

// CountEnquiriesBetweenParams holds arguments for CountEnquiriesBetween.
type CountEnquiriesBetweenParams struct {
	Start time.Time
	End   time.Time
}

// CountEnquiriesBetween returns the number of enquiries created within
// [Start, End].
func (q *Queries) CountEnquiriesBetween(ctx context.Context, arg CountEnquiriesBetweenParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enquiries WHERE created_at >= ? AND created_at <= ?`,
		arg.Start, arg.End).Scan(&count)
	return count, err
}
