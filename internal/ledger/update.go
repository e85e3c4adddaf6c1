package ledger

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jask/mvu/internal/database/repository"
	"github.com/jask/mvu/pkg/mvu"
)

var errEmptyDescription = errors.New("description required")

// Component implements mvu.Component for the ledger.
type Component struct {
	// Refresh limits how often reloads hit the database. Nil means no limit.
	Refresh *rate.Limiter
}

// NewProgram binds c to its view and env factory.
func NewProgram(c *Component, view mvu.ArgsProvider[Args], factory mvu.EnvFactory[*Env], opts ...mvu.Option) *Program {
	return mvu.New[Args, Model, Msg, *Env](c, view, factory, opts...)
}

func (c *Component) Init(args Args) (*Model, Cmd) {
	m := &Model{Month: monthStart(args.Month), Loading: true, Status: "loading"}
	return m, load(m.Month, m.Filter)
}

func (c *Component) Update(m *Model, msg Msg) (*Model, Cmd) {
	switch msg := msg.(type) {
	case LoadRequested:
		n := m.next()
		n.Loading, n.Status = true, "loading"
		return n, mvu.Throttle(c.Refresh, load(n.Month, n.Filter))

	case EntriesLoaded:
		if !msg.Month.Equal(m.Month) || msg.Filter != m.Filter {
			// a reload for a month or filter we already left
			return m, Cmd{}
		}
		n := m.next()
		n.Entries = msg.Entries
		n.Loading = false
		n.Status = fmt.Sprintf("%d entries", len(msg.Entries))
		return n, Cmd{}

	case CategoriesLoaded:
		n := m.next()
		n.Categories = msg.Categories
		return n, Cmd{}

	case AddEntry:
		n := m.next()
		n.Err = ""
		if strings.TrimSpace(msg.Description) == "" {
			n.Err = errEmptyDescription.Error()
			return n, Cmd{}
		}
		n.Status = "saving " + strings.TrimSpace(msg.Description)
		return n, addEntry(msg)

	case EntryAdded:
		n := m.next()
		n.Status = "added " + msg.Entry.Description
		if m.inMonth(msg.Entry.Date) {
			n.Entries = insertSorted(m.Entries, msg.Entry)
		}
		return n, Cmd{}

	case DeleteEntry:
		n := m.next()
		n.Err = ""
		n.Status = "deleting"
		return n, deleteEntry(msg.ID)

	case EntryDeleted:
		n := m.next()
		n.Status = "deleted"
		n.Entries = slices.DeleteFunc(slices.Clone(m.Entries), func(e repository.Entry) bool { return e.ID == msg.ID })
		n.Duplicates = nil
		return n, Cmd{}

	case Recategorize:
		n := m.next()
		n.Err = ""
		n.Status = "categorizing"
		return n, recategorize(msg)

	case EntryRecategorized:
		n := m.next()
		n.Status = "categorized " + msg.Entry.Description
		n.Entries = make([]repository.Entry, 0, len(m.Entries))
		for _, e := range m.Entries {
			if e.ID == msg.Entry.ID {
				e = msg.Entry
				if m.Filter.Category != "" && !strings.EqualFold(m.CategoryName(e.CategoryID), m.Filter.Category) {
					continue
				}
			}
			n.Entries = append(n.Entries, e)
		}
		return n, Cmd{}

	case FilterChanged:
		if msg.Filter == m.Filter {
			return m, Cmd{}
		}
		n := m.next()
		n.Filter = msg.Filter
		n.Err = ""
		n.Entries, n.Duplicates = nil, nil
		n.Loading, n.Status = true, "loading"
		return n, mvu.Throttle(c.Refresh, load(n.Month, n.Filter))

	case ImportCSV:
		n := m.next()
		n.Err = ""
		n.Status = "importing " + msg.Path
		return n, importCSV(msg.Path)

	case ImportFinished:
		n := m.next()
		res := msg.Result
		n.LastImport = &res
		n.Status = fmt.Sprintf("imported %d, skipped %d, %d errors", res.Imported, res.Skipped, len(res.Errors))
		return n, mvu.Send[*Env, Msg](LoadRequested{})

	case DetectDuplicates:
		n := m.next()
		n.Err = ""
		n.Status = "scanning for duplicates"
		return n, detectDuplicates(m.Month)

	case DuplicatesFound:
		n := m.next()
		n.Duplicates = msg.Pairs
		n.Status = fmt.Sprintf("%d possible duplicates", len(msg.Pairs))
		return n, Cmd{}

	case ExportRequested:
		n := m.next()
		n.Err = ""
		n.Status = "exporting to " + msg.Path
		return n, export(msg.Path)

	case ExportFinished:
		n := m.next()
		n.Status = fmt.Sprintf("exported %d entries to %s", msg.Entries, msg.Path)
		return n, Cmd{}

	case ResetRequested:
		n := m.next()
		n.Err = ""
		n.Status = "resetting"
		return n, reset()

	case ResetDone:
		n := m.next()
		n.Entries, n.Duplicates, n.LastImport = nil, nil, nil
		n.Status = "ledger reset"
		return n, mvu.Send[*Env, Msg](LoadRequested{})

	case MonthShifted:
		if m.Month.IsZero() || msg.Delta == 0 {
			return m, Cmd{}
		}
		n := m.next()
		n.Month = m.Month.AddDate(0, msg.Delta, 0)
		n.Entries, n.Duplicates = nil, nil
		n.Loading, n.Status = true, "loading"
		return n, mvu.Throttle(c.Refresh, load(n.Month, n.Filter))

	case Failed:
		n := m.next()
		n.Loading = false
		n.Err = fmt.Sprintf("%s: %v", msg.Op, msg.Err)
		return n, Cmd{}
	}
	return m, Cmd{}
}

// insertSorted returns a copy of entries with e placed in date-descending
// order, ahead of entries of the same date like the newest row in a reload.
func insertSorted(entries []repository.Entry, e repository.Entry) []repository.Entry {
	i, _ := slices.BinarySearchFunc(entries, e, func(have, want repository.Entry) int {
		if have.Date.After(want.Date) {
			return -1
		}
		return 1
	})
	out := make([]repository.Entry, 0, len(entries)+1)
	out = append(out, entries[:i]...)
	out = append(out, e)
	return append(out, entries[i:]...)
}

func monthStart(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	start, _ := repository.MonthBounds(t)
	return start
}
