package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/jask/mvu/internal/database/repository"
	"github.com/jask/mvu/internal/service"
)

var march = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func day(d int) time.Time { return march.AddDate(0, 0, d-1) }

func entry(id string, d int, cents int64) repository.Entry {
	return repository.Entry{ID: id, Date: day(d), AmountCents: cents, Description: id}
}

func loaded(t *testing.T, entries ...repository.Entry) *Model {
	t.Helper()
	c := &Component{}
	m, cmd := c.Init(Args{Month: day(17)})
	require.False(t, cmd.IsNone())
	require.Equal(t, march, m.Month, "month is normalized to its first day")
	m, cmd = c.Update(m, EntriesLoaded{Month: march, Entries: entries})
	require.True(t, cmd.IsNone())
	return m
}

func TestInitLoads(t *testing.T) {
	t.Parallel()
	m, cmd := (&Component{}).Init(Args{})
	require.True(t, m.Loading)
	require.True(t, m.Month.IsZero())
	require.False(t, cmd.IsNone())
}

func TestEntriesLoaded(t *testing.T) {
	t.Parallel()
	m := loaded(t, entry("b", 2, -100), entry("a", 1, 500))

	want := &Model{
		Month:    march,
		Entries:  []repository.Entry{entry("b", 2, -100), entry("a", 1, 500)},
		Status:   "2 entries",
		Revision: 1,
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}

	income, spend := m.Totals()
	require.Equal(t, int64(500), income)
	require.Equal(t, int64(-100), spend)
}

func TestStaleLoadIgnored(t *testing.T) {
	t.Parallel()
	m := loaded(t)
	next, cmd := (&Component{}).Update(m, EntriesLoaded{Month: march.AddDate(0, -1, 0), Entries: []repository.Entry{entry("x", 1, 1)}})
	require.Same(t, m, next)
	require.True(t, cmd.IsNone())
}

func TestAddEntry(t *testing.T) {
	t.Parallel()
	c := &Component{}
	m := loaded(t, entry("b", 5, -100), entry("a", 1, 500))

	blank, cmd := c.Update(m, AddEntry{Description: "  "})
	require.True(t, cmd.IsNone())
	require.Equal(t, "description required", blank.Err)

	saving, cmd := c.Update(blank, AddEntry{Description: "coffee", AmountCents: -450})
	require.False(t, cmd.IsNone())
	require.Empty(t, saving.Err)
	require.Equal(t, "saving coffee", saving.Status)

	added, _ := c.Update(saving, EntryAdded{Entry: entry("c", 3, -450)})
	require.Equal(t, []string{"b", "c", "a"}, ids(added.Entries))
	require.Equal(t, []string{"b", "a"}, ids(saving.Entries), "earlier snapshots are untouched")

	same, _ := c.Update(added, EntryAdded{Entry: entry("d", 5, 1)})
	require.Equal(t, []string{"d", "b", "c", "a"}, ids(same.Entries), "newest first among equal dates")

	other, _ := c.Update(added, EntryAdded{Entry: repository.Entry{ID: "x", Date: march.AddDate(0, 1, 0), Description: "april rent"}})
	require.Equal(t, []string{"b", "c", "a"}, ids(other.Entries), "entries outside the month are not shown")
	require.Equal(t, "added april rent", other.Status)
}

func TestEntryDeleted(t *testing.T) {
	t.Parallel()
	c := &Component{}
	m := loaded(t, entry("b", 2, -100), entry("a", 1, 500))
	m.Duplicates = []service.DuplicatePair{{}}

	_, cmd := c.Update(m, DeleteEntry{ID: "a"})
	require.False(t, cmd.IsNone())

	n, _ := c.Update(m, EntryDeleted{ID: "a"})
	require.Equal(t, []string{"b"}, ids(n.Entries))
	require.Equal(t, []string{"b", "a"}, ids(m.Entries))
	require.Nil(t, n.Duplicates)
}

func TestMonthShifted(t *testing.T) {
	t.Parallel()
	c := &Component{}
	m := loaded(t, entry("a", 1, 1))

	n, cmd := c.Update(m, MonthShifted{Delta: -1})
	require.False(t, cmd.IsNone())
	require.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), n.Month)
	require.Nil(t, n.Entries)
	require.True(t, n.Loading)

	same, cmd := c.Update(m, MonthShifted{})
	require.Same(t, m, same)
	require.True(t, cmd.IsNone())

	all, _ := c.Init(Args{})
	same, _ = c.Update(all, MonthShifted{Delta: 1})
	require.Same(t, all, same, "the unfiltered view has no month to move")
}

func TestFailedAndFinished(t *testing.T) {
	t.Parallel()
	c := &Component{}
	m := loaded(t)

	n, _ := c.Update(m, Failed{Op: "import", Err: errors.New("no such file")})
	require.Equal(t, "import: no such file", n.Err)
	require.False(t, n.Loading)

	res := service.IngestResult{Imported: 2, Skipped: 1}
	n, cmd := c.Update(n, ImportFinished{Path: "x.csv", Result: res})
	require.Equal(t, "imported 2, skipped 1, 0 errors", n.Status)
	require.Equal(t, &res, n.LastImport)
	require.False(t, cmd.IsNone(), "a finished import reloads")

	var emitted []Msg
	require.NoError(t, cmd.Run(context.Background(), nil, func(m Msg) { emitted = append(emitted, m) }))
	require.Equal(t, []Msg{LoadRequested{}}, emitted)

	n, _ = c.Update(n, DuplicatesFound{Pairs: make([]service.DuplicatePair, 3)})
	require.Equal(t, "3 possible duplicates", n.Status)

	n, _ = c.Update(n, ExportFinished{Path: "out.yaml", Entries: 4})
	require.Equal(t, "exported 4 entries to out.yaml", n.Status)

	n, cmd = c.Update(n, ResetDone{})
	require.Nil(t, n.Duplicates)
	require.Nil(t, n.LastImport)
	require.False(t, cmd.IsNone())
}

func TestFilterChanged(t *testing.T) {
	t.Parallel()
	c := &Component{}
	m := loaded(t, entry("a", 1, 1))

	same, cmd := c.Update(m, FilterChanged{})
	require.Same(t, m, same)
	require.True(t, cmd.IsNone())

	f := Filter{Category: "Groceries", Search: "WOOL"}
	n, cmd := c.Update(m, FilterChanged{Filter: f})
	require.False(t, cmd.IsNone())
	require.Equal(t, f, n.Filter)
	require.True(t, n.Loading)
	require.Empty(t, n.Entries)
	require.Len(t, m.Entries, 1, "the previous snapshot is untouched")

	stale, _ := c.Update(n, EntriesLoaded{Month: march, Entries: []repository.Entry{entry("x", 1, 1)}})
	require.Same(t, n, stale, "a load for the old filter is ignored")

	fresh, _ := c.Update(n, EntriesLoaded{Month: march, Filter: f, Entries: []repository.Entry{entry("w", 1, 1)}})
	require.Equal(t, []string{"w"}, ids(fresh.Entries))
}

func TestEntryRecategorized(t *testing.T) {
	t.Parallel()
	c := &Component{}
	m := loaded(t, entry("a", 2, -1), entry("b", 1, -2))
	m.Categories = []repository.Category{{ID: "g", Name: "Groceries"}, {ID: "t", Name: "Transport"}}

	n, cmd := c.Update(m, Recategorize{ID: "a", Category: "Groceries"})
	require.False(t, cmd.IsNone())
	require.Equal(t, "categorizing", n.Status)

	g := "g"
	moved := entry("a", 2, -1)
	moved.CategoryID = &g
	n, _ = c.Update(n, EntryRecategorized{Entry: moved})
	require.Equal(t, []string{"a", "b"}, ids(n.Entries))
	require.Equal(t, "Groceries", n.CategoryName(n.Entries[0].CategoryID))
	require.Nil(t, m.Entries[0].CategoryID, "the previous snapshot is untouched")

	filtered := n.next()
	filtered.Filter = Filter{Category: "transport"}
	tr := "t"
	away := entry("b", 1, -2)
	away.CategoryID = &g
	stays := moved
	stays.CategoryID = &tr
	filtered.Entries = []repository.Entry{stays, entry("b", 1, -2)}
	out, _ := c.Update(filtered, EntryRecategorized{Entry: away})
	require.Equal(t, []string{"a"}, ids(out.Entries), "an entry moved out of the filtered category leaves the list")
}

func TestUnknownMessageKeepsSnapshot(t *testing.T) {
	t.Parallel()
	m := loaded(t)
	n, cmd := (&Component{}).Update(m, struct{}{})
	require.Same(t, m, n)
	require.True(t, cmd.IsNone())
}

func TestCategoryName(t *testing.T) {
	t.Parallel()
	m := &Model{Categories: []repository.Category{{ID: "c1", Name: "Food"}}}
	id, unknown := "c1", "zz"
	require.Equal(t, "Food", m.CategoryName(&id))
	require.Equal(t, "zz", m.CategoryName(&unknown))
	require.Empty(t, m.CategoryName(nil))
}

func ids(entries []repository.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
