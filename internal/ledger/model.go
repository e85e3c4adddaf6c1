// Package ledger is the component the ledger program runs: a month of
// entries, the categories they use and any suspected duplicates.
package ledger

import (
	"time"

	"github.com/jask/mvu/internal/database/repository"
	"github.com/jask/mvu/internal/service"
	"github.com/jask/mvu/pkg/mvu"
)

// Cmd is a ledger command; the zero value is no command.
type Cmd = mvu.Cmd[*Env, Msg]

// Program runs the ledger component.
type Program = mvu.Program[Args, Model, Msg, *Env]

// Args seeds Init. A zero Month shows every entry.
type Args struct {
	Month time.Time
}

// Filter narrows the listed entries. Category is a category name matched
// case-insensitively; Search matches part of the description. Zero fields
// do not filter.
type Filter struct {
	Category string
	Search   string
}

// Model is an immutable snapshot. Update never modifies a Model or the
// slices it holds; it copies.
type Model struct {
	Month      time.Time
	Filter     Filter
	Entries    []repository.Entry
	Categories []repository.Category
	Duplicates []service.DuplicatePair
	LastImport *service.IngestResult
	Loading    bool
	Status     string
	Err        string
	Revision   int
}

func (m *Model) next() *Model {
	c := *m
	c.Revision++
	return &c
}

// Totals sums incoming and outgoing amounts in cents. Spend is negative.
func (m *Model) Totals() (income, spend int64) {
	for _, e := range m.Entries {
		if e.AmountCents >= 0 {
			income += e.AmountCents
		} else {
			spend += e.AmountCents
		}
	}
	return income, spend
}

// CategoryName resolves id against the loaded categories.
func (m *Model) CategoryName(id *string) string {
	if id == nil {
		return ""
	}
	for _, c := range m.Categories {
		if c.ID == *id {
			return c.Name
		}
	}
	return *id
}

// inMonth reports whether t falls in the model's month filter.
func (m *Model) inMonth(t time.Time) bool {
	if m.Month.IsZero() {
		return true
	}
	start, end := repository.MonthBounds(m.Month)
	return !t.Before(start) && t.Before(end)
}
