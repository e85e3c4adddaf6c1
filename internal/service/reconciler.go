package service

import (
	"context"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/jask/mvu/internal/database/repository"
)

// DuplicatePair is a likely double entry.
type DuplicatePair struct {
	A          repository.Entry
	B          repository.Entry
	Similarity float64
}

// Reconciler implements duplicate detection.
type Reconciler struct {
	Entries *repository.EntryRepo
}

// FindDuplicates compares every pair of entries in month (all entries when
// month is zero). Pairs match on equal amount, dates at most 7 days apart
// and descriptions within a normalized edit distance of 0.4.
func (r *Reconciler) FindDuplicates(ctx context.Context, month time.Time) ([]DuplicatePair, error) {
	entries, err := r.Entries.List(ctx, repository.EntryFilters{Month: month})
	if err != nil {
		return nil, err
	}
	var out []DuplicatePair
	for i := 0; i < len(entries); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if !matchFuzzyCandidate(a, b) {
				continue
			}
			out = append(out, DuplicatePair{A: a, B: b, Similarity: similarity(a, b)})
		}
	}
	return out, nil
}

func matchFuzzyCandidate(a, b repository.Entry) bool {
	if a.AmountCents != b.AmountCents {
		return false
	}
	if daysApart(a.Date, b.Date) > 7 {
		return false
	}
	return distanceRatio(a.Description, b.Description) < 0.4
}

// distanceRatio is the case-insensitive edit distance scaled by the longer
// string; 0 means equal.
func distanceRatio(a, b string) float64 {
	a, b = strings.ToUpper(a), strings.ToUpper(b)
	longest := max(len(a), len(b))
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}

func daysApart(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

func similarity(a, b repository.Entry) float64 {
	if a.AmountCents != b.AmountCents {
		return 0
	}
	return 1 - distanceRatio(a.Description, b.Description)
}
