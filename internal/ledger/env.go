package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jask/mvu/internal/database"
	"github.com/jask/mvu/internal/database/repository"
	"github.com/jask/mvu/internal/service"
)

// Store is what the env needs from a database handle. *sql.DB and
// *sql.Conn both qualify.
type Store interface {
	repository.DBTX
	database.TxBeginner
}

// Env is the execution context shared by the commands of one invocation.
type Env struct {
	DB          Store
	Entries     *repository.EntryRepo
	Categories  *repository.CategoryRepo
	Ingest      *service.IngestService
	Reconciler  *service.Reconciler
	Categorizer *service.CategorizerService
	Maintenance *service.MaintenanceService
	Exporter    service.Exporter
	Location    *time.Location
	Now         func() time.Time

	conn *sql.Conn
}

// NewEnv wires repositories and services over db.
func NewEnv(db Store, loc *time.Location, now func() time.Time) *Env {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = database.Now
	}
	entries := repository.NewEntryRepo(db)
	categories := repository.NewCategoryRepo(db)
	return &Env{
		DB:          db,
		Entries:     entries,
		Categories:  categories,
		Ingest:      &service.IngestService{Entries: entries, Categories: categories, Now: now},
		Reconciler:  &service.Reconciler{Entries: entries},
		Categorizer: &service.CategorizerService{Entries: entries},
		Maintenance: &service.MaintenanceService{DB: db},
		Location:    loc,
		Now:         now,
	}
}

// Close returns the connection checked out by EnvFactory.
func (e *Env) Close() error {
	if e == nil || e.conn == nil {
		return nil
	}
	return e.conn.Close()
}

// EnvFactory checks out one pooled connection per invocation so that every
// command of a dispatch chain reuses it.
type EnvFactory struct {
	DB       *sql.DB
	Location *time.Location
	Now      func() time.Time
}

func (f *EnvFactory) NewEnv(ctx context.Context) (*Env, error) {
	conn, err := f.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: checkout conn: %w", err)
	}
	env := NewEnv(conn, f.Location, f.Now)
	env.conn = conn
	return env, nil
}
