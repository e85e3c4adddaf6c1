package ledger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jask/mvu/internal/database"
	"github.com/jask/mvu/internal/database/repository"
	"github.com/jask/mvu/internal/service"
	"github.com/jask/mvu/pkg/mvu"
)

var fixedNow = time.Date(2026, 3, 20, 9, 30, 0, 0, time.UTC)

type harness struct {
	program *Program
	dir     string
	factory *EnvFactory
}

func newHarness(t *testing.T, month time.Time) harness {
	t.Helper()
	return newHarnessAt(t, month, time.UTC, fixedNow)
}

func newHarnessAt(t *testing.T, month time.Time, loc *time.Location, now time.Time) harness {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")
	require.NoError(t, database.RunMigrations(path))
	db, err := database.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.SeedDefaults(context.Background(), db))

	metrics, err := mvu.NewMetrics(prometheus.NewRegistry(), "ledger")
	require.NoError(t, err)
	factory := &EnvFactory{DB: db, Location: loc, Now: func() time.Time { return now }}
	p := NewProgram(&Component{}, mvu.ArgsFunc[Args](func() Args { return Args{Month: month} }), factory,
		mvu.WithLogger(zaptest.NewLogger(t)), mvu.WithMetrics(metrics))
	return harness{program: p, dir: dir, factory: factory}
}

func (h harness) dispatch(t *testing.T, msg Msg) *Model {
	t.Helper()
	require.NoError(t, h.program.Dispatch(context.Background(), msg))
	m := h.program.Model()
	require.Empty(t, m.Err)
	return m
}

func TestProgramInitLoadsCategories(t *testing.T) {
	t.Parallel()
	h := newHarness(t, march)
	require.NoError(t, h.program.Init(context.Background()))

	m := h.program.Model()
	require.False(t, m.Loading)
	require.Len(t, m.Categories, len(database.DefaultCategories))
	require.Empty(t, m.Entries)
	require.Equal(t, "0 entries", m.Status)
	require.True(t, h.program.HasModelChanged())
	require.False(t, h.program.HasModelChanged())
}

func TestProgramAddSuggestAndDelete(t *testing.T) {
	t.Parallel()
	h := newHarness(t, march)
	require.NoError(t, h.program.Init(context.Background()))

	m := h.dispatch(t, AddEntry{Date: day(2), AmountCents: -1999, Description: "WOOLWORTHS 3021", Category: "groceries"})
	require.Len(t, m.Entries, 1)
	require.Equal(t, "Groceries", m.CategoryName(m.Entries[0].CategoryID))
	require.Equal(t, fixedNow, m.Entries[0].CreatedAt)

	m = h.dispatch(t, AddEntry{Date: day(4), AmountCents: -2500, Description: "WOOLWORTHS 3022"})
	require.Equal(t, "Groceries", m.CategoryName(m.Entries[0].CategoryID), "category suggested from a similar entry")

	m = h.dispatch(t, AddEntry{AmountCents: 100, Description: "interest"})
	require.Equal(t, "added interest", m.Status)
	require.Equal(t, []string{"interest", "WOOLWORTHS 3022", "WOOLWORTHS 3021"}, descriptions(m.Entries), "zero date means today")

	first := m.Entries[2].ID
	m = h.dispatch(t, DeleteEntry{ID: first})
	require.Len(t, m.Entries, 2)

	require.NoError(t, h.program.Dispatch(context.Background(), DeleteEntry{ID: first}))
	require.Contains(t, h.program.Model().Err, "not found")

	require.NoError(t, h.program.Dispatch(context.Background(), AddEntry{AmountCents: 1, Description: "x", Category: "Nope"}))
	require.Equal(t, `add: unknown category "Nope"`, h.program.Model().Err)
}

func TestProgramImportDetectExportReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, march)
	require.NoError(t, h.program.Init(ctx))

	csvPath := filepath.Join(h.dir, "march.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(strings.Join([]string{
		"2026-03-01,-45.00,NETFLIX.COM,Subscriptions",
		"2026-03-03,-45.00,NETFLIX COM",
		"2026-03-10,2500,SALARY,Income",
		"2026-04-10,2500,SALARY,Income",
	}, "\n")), 0o600))

	m := h.dispatch(t, ImportCSV{Path: csvPath})
	require.Equal(t, 4, m.LastImport.Imported)
	require.Len(t, m.Entries, 3, "the import reloads the current month")
	require.Equal(t, "3 entries", m.Status)

	m = h.dispatch(t, DetectDuplicates{})
	require.Len(t, m.Duplicates, 1)
	require.ElementsMatch(t, []string{"NETFLIX.COM", "NETFLIX COM"},
		[]string{m.Duplicates[0].A.Description, m.Duplicates[0].B.Description})

	out := filepath.Join(h.dir, "export.yaml")
	m = h.dispatch(t, ExportRequested{Path: out})
	require.Equal(t, "exported 4 entries to "+out, m.Status)
	f, err := os.Open(out)
	require.NoError(t, err)
	doc, err := service.Exporter{}.ReadYAML(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	require.Len(t, doc.Entries, 4)
	require.True(t, doc.GeneratedAt.Equal(fixedNow))

	m = h.dispatch(t, MonthShifted{Delta: 1})
	require.Equal(t, []string{"SALARY"}, descriptions(m.Entries))

	m = h.dispatch(t, ResetRequested{})
	require.Empty(t, m.Entries)
	require.Equal(t, "0 entries", m.Status)
	require.Len(t, m.Categories, len(database.DefaultCategories))
}

func TestProgramFirstOfMonthAheadOfUTC(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sydney := time.FixedZone("AEST", 10*60*60)
	// 01:00 on 1 April in Sydney, still 31 March in UTC
	now := time.Date(2026, 3, 31, 15, 0, 0, 0, time.UTC)
	h := newHarnessAt(t, time.Date(2026, 4, 1, 0, 0, 0, 0, sydney), sydney, now)
	require.NoError(t, h.program.Init(ctx))
	require.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), h.program.Model().Month)

	m := h.dispatch(t, AddEntry{AmountCents: -450, Description: "coffee"})
	require.Equal(t, []string{"coffee"}, descriptions(m.Entries))

	typed, err := service.ParseDate("1/04/2026", sydney)
	require.NoError(t, err)
	h.dispatch(t, AddEntry{Date: typed, AmountCents: -900, Description: "lunch"})

	m = h.dispatch(t, LoadRequested{})
	require.ElementsMatch(t, []string{"coffee", "lunch"}, descriptions(m.Entries))
	for _, e := range m.Entries {
		require.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), e.Date.UTC())
	}

	m = h.dispatch(t, MonthShifted{Delta: -1})
	require.Empty(t, m.Entries, "nothing leaks into March")
}

func TestProgramRecategorizeAndFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, march)
	require.NoError(t, h.program.Init(ctx))

	h.dispatch(t, AddEntry{Date: day(2), AmountCents: -1999, Description: "WOOLWORTHS 3021", Category: "Groceries"})
	h.dispatch(t, AddEntry{Date: day(3), AmountCents: -450, Description: "MYKI TOPUP", Category: "Transport"})
	m := h.dispatch(t, AddEntry{Date: day(4), AmountCents: -900, Description: "COLES 0412"})
	require.Nil(t, m.Entries[0].CategoryID)
	coles := m.Entries[0].ID

	m = h.dispatch(t, Recategorize{ID: coles, Category: "groceries"})
	require.Equal(t, "Groceries", m.CategoryName(m.Entries[0].CategoryID))
	require.Equal(t, "categorized COLES 0412", m.Status)

	m = h.dispatch(t, FilterChanged{Filter: Filter{Category: "Groceries"}})
	require.ElementsMatch(t, []string{"COLES 0412", "WOOLWORTHS 3021"}, descriptions(m.Entries))

	m = h.dispatch(t, FilterChanged{Filter: Filter{Category: "Groceries", Search: "cole"}})
	require.Equal(t, []string{"COLES 0412"}, descriptions(m.Entries))

	m = h.dispatch(t, Recategorize{ID: coles})
	require.Empty(t, m.Entries, "cleared entries leave a category filter")

	m = h.dispatch(t, FilterChanged{})
	require.Len(t, m.Entries, 3)
	require.Nil(t, m.Entries[0].CategoryID)

	require.NoError(t, h.program.Dispatch(ctx, Recategorize{ID: "missing", Category: "Health"}))
	require.Equal(t, "categorize: entry missing not found", h.program.Model().Err)

	require.NoError(t, h.program.Dispatch(ctx, FilterChanged{Filter: Filter{Category: "Nope"}}))
	require.Equal(t, `load: unknown category "Nope"`, h.program.Model().Err)
}

func TestProgramImportMissingFile(t *testing.T) {
	t.Parallel()
	h := newHarness(t, march)
	require.NoError(t, h.program.Init(context.Background()))

	require.NoError(t, h.program.Dispatch(context.Background(), ImportCSV{Path: filepath.Join(h.dir, "missing.csv")}))
	m := h.program.Model()
	require.True(t, strings.HasPrefix(m.Err, "import: open "), m.Err)
}

type countingFactory struct {
	inner *EnvFactory
	made  int
}

func (f *countingFactory) NewEnv(ctx context.Context) (*Env, error) {
	f.made++
	return f.inner.NewEnv(ctx)
}

func TestProgramOneConnPerInvocation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, march)
	counting := &countingFactory{inner: h.factory}
	p := NewProgram(&Component{}, mvu.ArgsFunc[Args](func() Args { return Args{Month: march} }), counting)

	require.NoError(t, p.Init(ctx))
	require.Equal(t, 1, counting.made)

	csvPath := filepath.Join(h.dir, "one.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("2026-03-05,-3.50,COFFEE\n"), 0o600))
	require.NoError(t, p.Dispatch(ctx, ImportCSV{Path: csvPath}))
	require.Equal(t, 2, counting.made, "import, follow-up send and reload share one env")
	require.Len(t, p.Model().Entries, 1)

	require.NoError(t, p.Dispatch(ctx, CategoriesLoaded{}))
	require.Equal(t, 2, counting.made, "no command, no env")
}

func TestProgramFoldMatchesUpdates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t, march)
	require.NoError(t, h.program.Init(ctx))

	c := &Component{}
	want := h.program.Model()
	for _, msg := range []Msg{
		CategoriesLoaded{Categories: []repository.Category{{ID: "c", Name: "Only"}}},
		Failed{Op: "sync", Err: context.DeadlineExceeded},
		EntriesLoaded{Month: march, Entries: []repository.Entry{entry("a", 1, 1)}},
	} {
		want, _ = c.Update(want, msg)
		require.NoError(t, h.program.Dispatch(ctx, msg))
	}
	if diff := cmp.Diff(want, h.program.Model(), cmpopts.EquateErrors()); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestProgramCanceledDispatch(t *testing.T) {
	t.Parallel()
	h := newHarness(t, march)
	require.NoError(t, h.program.Init(context.Background()))
	before := h.program.Model()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, h.program.Dispatch(ctx, AddEntry{AmountCents: 1, Description: "never"}))
	require.Same(t, before, h.program.Model())
}

func descriptions(entries []repository.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Description)
	}
	return out
}
