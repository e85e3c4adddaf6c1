package database

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/mvu/internal/database/repository"
)

// DefaultCategories are seeded into empty databases.
var DefaultCategories = []string{
	"Income",
	"Groceries",
	"Restaurants",
	"Transport",
	"Shopping",
	"Utilities",
	"Subscriptions",
	"Health",
	"Entertainment",
}

// CategoryID derives the stable id used for a category name.
func CategoryID(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("cat:"+key)).String()
}

// SeedDefaults ensures baseline categories exist for new databases.
// It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db repository.DBTX) error {
	catRepo := repository.NewCategoryRepo(db)
	existing, err := catRepo.List(ctx)
	if err == nil && len(existing) > 0 {
		return nil
	}
	for idx, name := range DefaultCategories {
		cat := repository.Category{ID: CategoryID(name), Name: name, SortOrder: idx}
		if err := catRepo.Upsert(ctx, cat); err != nil {
			return err
		}
	}
	return nil
}
