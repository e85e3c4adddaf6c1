package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// EntryFilters defines list filters.
type EntryFilters struct {
	CategoryID string
	Month      time.Time // any day in the month; zero time = no month filter
	Search     string
}

// EntryRepo handles ledger entries.
type EntryRepo struct {
	db DBTX
}

func NewEntryRepo(db DBTX) *EntryRepo { return &EntryRepo{db: db} }

const entryColumns = "id, date, amount, description, category_id, source_hash, created_at"

func (r *EntryRepo) Insert(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO entries(id, date, amount, description, category_id, source_hash, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?);
	`, e.ID, e.Date, e.AmountCents, e.Description, e.CategoryID, e.SourceHash, e.CreatedAt)
	return err
}

// Delete removes the entry and reports whether it existed.
func (r *EntryRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *EntryRepo) UpdateCategory(ctx context.Context, id string, categoryID *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE entries SET category_id = ? WHERE id = ?`, categoryID, id)
	return err
}

func (r *EntryRepo) Get(ctx context.Context, id string) (*Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *EntryRepo) List(ctx context.Context, f EntryFilters) ([]Entry, error) {
	var where []string
	var args []any

	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if !f.Month.IsZero() {
		start, end := MonthBounds(f.Month)
		where = append(where, "date >= ? AND date < ?")
		args = append(args, start, end)
	}
	if f.Search != "" {
		where = append(where, "description LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}

	query := "SELECT " + entryColumns + " FROM entries"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Categorized returns entries that carry a category, newest first.
func (r *EntryRepo) Categorized(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE category_id IS NOT NULL ORDER BY date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MonthBounds returns the UTC half-open interval covering t's month.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// scanEntry handles nullable fields for both Row and Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var category, source sql.NullString
	if err := row.Scan(&e.ID, &e.Date, &e.AmountCents, &e.Description, &category, &source, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	if category.Valid {
		e.CategoryID = &category.String
	}
	if source.Valid {
		e.SourceHash = &source.String
	}
	return e, nil
}
