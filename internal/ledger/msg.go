package ledger

import (
	"time"

	"github.com/jask/mvu/internal/database/repository"
	"github.com/jask/mvu/internal/service"
)

// Msg is any message the ledger understands. Unknown messages are ignored.
type Msg interface{}

// LoadRequested reloads entries and categories for the current month.
type LoadRequested struct{}

type EntriesLoaded struct {
	Month   time.Time
	Filter  Filter
	Entries []repository.Entry
}

type CategoriesLoaded struct {
	Categories []repository.Category
}

// AddEntry records a manual entry. Only the calendar day of Date is kept; a
// zero Date means today in the env's location. An empty Category asks for a
// suggestion based on similar descriptions.
type AddEntry struct {
	Date        time.Time
	AmountCents int64
	Description string
	Category    string
}

type EntryAdded struct {
	Entry repository.Entry
}

type DeleteEntry struct {
	ID string
}

type EntryDeleted struct {
	ID string
}

// Recategorize moves an entry to the named category. An empty Category
// clears it.
type Recategorize struct {
	ID       string
	Category string
}

type EntryRecategorized struct {
	Entry repository.Entry
}

// FilterChanged replaces the filter and reloads the month.
type FilterChanged struct {
	Filter Filter
}

type ImportCSV struct {
	Path string
}

type ImportFinished struct {
	Path   string
	Result service.IngestResult
}

type DetectDuplicates struct{}

type DuplicatesFound struct {
	Pairs []service.DuplicatePair
}

type ExportRequested struct {
	Path string
}

type ExportFinished struct {
	Path    string
	Entries int
}

type ResetRequested struct{}

type ResetDone struct{}

// MonthShifted moves the month filter by Delta months.
type MonthShifted struct {
	Delta int
}

// Failed reports a command that could not complete.
type Failed struct {
	Op  string
	Err error
}
