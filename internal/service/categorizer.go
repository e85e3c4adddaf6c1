package service

import (
	"context"
	"strings"

	"github.com/jask/mvu/internal/database/repository"
)

const (
	suggestionThreshold = 0.35
	suggestionWindow    = 500
)

// CategorizerService guesses categories from previously categorized entries.
type CategorizerService struct {
	Entries *repository.EntryRepo
}

// Suggest returns the category of the most similar recent description, or
// nil when nothing is close enough.
func (s *CategorizerService) Suggest(ctx context.Context, description string) (*string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, nil
	}
	known, err := s.Entries.Categorized(ctx, suggestionWindow)
	if err != nil {
		return nil, err
	}
	var best *string
	bestRatio := suggestionThreshold
	for _, e := range known {
		if r := distanceRatio(description, e.Description); r < bestRatio {
			id := *e.CategoryID
			best, bestRatio = &id, r
		}
	}
	return best, nil
}
