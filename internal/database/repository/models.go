package repository

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Category represents a category row.
type Category struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	SortOrder int    `yaml:"sort_order"`
}

// Entry represents a ledger entry row.
type Entry struct {
	ID          string    `yaml:"id"`
	Date        time.Time `yaml:"date"`
	AmountCents int64     `yaml:"amount_cents"`
	Description string    `yaml:"description"`
	CategoryID  *string   `yaml:"category_id,omitempty"`
	SourceHash  *string   `yaml:"-"`
	CreatedAt   time.Time `yaml:"created_at"`
}
