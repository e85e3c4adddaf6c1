package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/mvu/internal/config"
	"github.com/jask/mvu/internal/ledger"
)

// Dispatcher is the part of ledger.Program the UI drives.
type Dispatcher interface {
	Init(ctx context.Context) error
	Dispatch(ctx context.Context, msg ledger.Msg) error
}

type errMsg struct{ error }

type inputMode string

const (
	modeBrowse       inputMode = ""
	modeAdd          inputMode = "add"
	modeImport       inputMode = "import"
	modeExport       inputMode = "export"
	modeCategory     inputMode = "category"
	modeSearch       inputMode = "search"
	modeConfirmReset inputMode = "confirmReset"
)

// App renders ledger snapshots and turns keys into ledger messages. It
// never mutates the model itself; every change arrives as a SnapshotMsg.
type App struct {
	ctx    context.Context
	ledger Dispatcher
	ui     config.UIConfig
	loc    *time.Location

	model  *ledger.Model
	cursor int
	mode   inputMode
	input  string
	status string
}

func New(ctx context.Context, d Dispatcher, ui config.UIConfig, loc *time.Location) *App {
	if loc == nil {
		loc = time.Local
	}
	return &App{ctx: ctx, ledger: d, ui: ui, loc: loc}
}

func (a *App) Init() tea.Cmd {
	return func() tea.Msg {
		if err := a.ledger.Init(a.ctx); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (a *App) dispatch(msg ledger.Msg) tea.Cmd {
	return func() tea.Msg {
		if err := a.ledger.Dispatch(a.ctx, msg); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case SnapshotMsg:
		a.model = m.Model
		if a.model == nil || a.cursor >= len(a.model.Entries) {
			a.cursor = 0
		}
	case errMsg:
		a.status = "error: " + m.Error()
	case tea.KeyMsg:
		if a.mode != modeBrowse {
			return a.handlePromptKey(m)
		}
		return a.handleKey(m)
	}
	return a, nil
}

func (a *App) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.status = ""
	switch k.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.model != nil && a.cursor < len(a.model.Entries)-1 {
			a.cursor++
		}
	case "a":
		a.mode, a.input = modeAdd, ""
	case "i":
		a.mode, a.input = modeImport, ""
	case "e":
		a.mode, a.input = modeExport, ""
	case "R":
		a.mode = modeConfirmReset
	case "c":
		if a.model != nil && a.cursor < len(a.model.Entries) {
			a.mode, a.input = modeCategory, ""
		}
	case "/":
		a.mode, a.input = modeSearch, ""
		if a.model != nil {
			a.input = a.model.Filter.Search
		}
	case "d":
		if a.model != nil && a.cursor < len(a.model.Entries) {
			return a, a.dispatch(ledger.DeleteEntry{ID: a.model.Entries[a.cursor].ID})
		}
	case "r":
		return a, a.dispatch(ledger.LoadRequested{})
	case "[":
		a.cursor = 0
		return a, a.dispatch(ledger.MonthShifted{Delta: -1})
	case "]":
		a.cursor = 0
		return a, a.dispatch(ledger.MonthShifted{Delta: 1})
	case "u":
		return a, a.dispatch(ledger.DetectDuplicates{})
	}
	return a, nil
}

func (a *App) handlePromptKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.mode == modeConfirmReset {
		a.mode = modeBrowse
		if k.String() == "y" {
			return a, a.dispatch(ledger.ResetRequested{})
		}
		return a, nil
	}
	switch k.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		a.mode, a.input = modeBrowse, ""
	case tea.KeyBackspace:
		if r := []rune(a.input); len(r) > 0 {
			a.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		a.input += " "
	case tea.KeyRunes:
		a.input += string(k.Runes)
	case tea.KeyEnter:
		return a, a.submit()
	}
	return a, nil
}

func (a *App) submit() tea.Cmd {
	mode, input := a.mode, strings.TrimSpace(a.input)
	a.mode, a.input = modeBrowse, ""
	switch mode {
	case modeSearch:
		var f ledger.Filter
		if a.model != nil {
			f = a.model.Filter
		}
		f.Search = input
		a.cursor = 0
		return a.dispatch(ledger.FilterChanged{Filter: f})
	case modeCategory:
		if a.model == nil || a.cursor >= len(a.model.Entries) {
			return nil
		}
		return a.dispatch(ledger.Recategorize{ID: a.model.Entries[a.cursor].ID, Category: input})
	}
	if input == "" {
		return nil
	}
	switch mode {
	case modeAdd:
		entry, err := ParseEntryInput(input, a.loc)
		if err != nil {
			a.status = "error: " + err.Error()
			return nil
		}
		return a.dispatch(entry)
	case modeImport:
		return a.dispatch(ledger.ImportCSV{Path: input})
	case modeExport:
		return a.dispatch(ledger.ExportRequested{Path: input})
	}
	return nil
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(Summary(a.model, a.ui))
	b.WriteString("\n\n")
	b.WriteString(EntryTable(a.model, a.ui, a.cursor))
	b.WriteString("\n\n")
	switch a.mode {
	case modeAdd:
		fmt.Fprintf(&b, "%s\n> %s", titleStyle.Render("Add entry: [date] amount description [#category]"), a.input)
	case modeImport:
		fmt.Fprintf(&b, "%s\n> %s", titleStyle.Render("Import CSV path"), a.input)
	case modeExport:
		fmt.Fprintf(&b, "%s\n> %s", titleStyle.Render("Export YAML path"), a.input)
	case modeCategory:
		fmt.Fprintf(&b, "%s\n> %s", titleStyle.Render("Category (empty clears)"), a.input)
	case modeSearch:
		fmt.Fprintf(&b, "%s\n> %s", titleStyle.Render("Search descriptions (empty clears)"), a.input)
	case modeConfirmReset:
		b.WriteString(titleStyle.Render("Reset ledger?") + "\nThis deletes every entry.\n[y] Yes  [n] No")
	default:
		b.WriteString(dimStyle.Render("[a] Add  [d] Delete  [c] Category  [/] Search  [i] Import  [e] Export  [u] Duplicates  [ [/] ] Month  [r] Reload  [R] Reset  [q] Quit"))
	}
	if a.status != "" {
		b.WriteString("\n" + a.status)
	}
	return b.String()
}
