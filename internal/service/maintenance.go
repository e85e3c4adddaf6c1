package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jask/mvu/internal/database"
)

// MaintenanceService houses destructive actions surfaced through the ledger.
type MaintenanceService struct {
	DB database.TxBeginner
}

// Reset wipes all entries and re-seeds the default categories. The schema
// is kept so the program can continue running.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("maintenance: db not configured")
	}
	return database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		for _, t := range []string{"entries", "categories"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return fmt.Errorf("reset table %s: %w", t, err)
			}
		}
		return database.SeedDefaults(ctx, tx)
	})
}
