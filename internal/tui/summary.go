package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/mvu/internal/config"
	"github.com/jask/mvu/internal/ledger"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

const topCategories = 5

// Money formats cents with the configured symbol, keeping the sign in front.
func Money(cents int64, symbol string) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, symbol, cents/100, cents%100)
}

// Summary renders the month header, totals and biggest spending categories.
func Summary(m *ledger.Model, ui config.UIConfig) string {
	if m == nil {
		return titleStyle.Render("Ledger") + "\n" + dimStyle.Render("not loaded")
	}
	var b strings.Builder
	title := "Ledger"
	if !m.Month.IsZero() {
		title += " - " + m.Month.Format("January 2006")
	}
	b.WriteString(titleStyle.Render(title))
	if f := m.Filter; f != (ledger.Filter{}) {
		var parts []string
		if f.Category != "" {
			parts = append(parts, "category "+f.Category)
		}
		if f.Search != "" {
			parts = append(parts, fmt.Sprintf("matching %q", f.Search))
		}
		b.WriteString("\n" + dimStyle.Render("Filter: "+strings.Join(parts, ", ")))
	}
	income, spend := m.Totals()
	fmt.Fprintf(&b, "\nIncome: %s  Spend: %s  Net: %s  Entries: %d",
		Money(income, ui.CurrencySymbol), Money(-spend, ui.CurrencySymbol),
		Money(income+spend, ui.CurrencySymbol), len(m.Entries))

	totals := map[string]int64{}
	for _, e := range m.Entries {
		if e.AmountCents >= 0 {
			continue
		}
		name := m.CategoryName(e.CategoryID)
		if name == "" {
			name = "Uncategorized"
		}
		totals[name] += e.AmountCents
	}
	type pair struct {
		name  string
		total int64
	}
	pairs := make([]pair, 0, len(totals))
	for k, v := range totals {
		pairs = append(pairs, pair{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].total != pairs[j].total {
			return pairs[i].total < pairs[j].total
		}
		return pairs[i].name < pairs[j].name
	})
	if len(pairs) > topCategories {
		pairs = pairs[:topCategories]
	}
	if len(pairs) > 0 {
		b.WriteString("\nTop categories:")
		for _, p := range pairs {
			fmt.Fprintf(&b, "\n- %-24s %s", p.name, Money(-p.total, ui.CurrencySymbol))
		}
	}
	if len(m.Duplicates) > 0 {
		b.WriteString("\nPossible duplicates:")
		for _, d := range m.Duplicates {
			fmt.Fprintf(&b, "\n- %s %q ~ %s %q (%.0f%%)",
				d.A.Date.Format(dateFormat(ui)), d.A.Description,
				d.B.Date.Format(dateFormat(ui)), d.B.Description, d.Similarity*100)
		}
	}
	if m.Status != "" {
		b.WriteString("\n" + dimStyle.Render(m.Status))
	}
	if m.Err != "" {
		b.WriteString("\n" + errStyle.Render("error: "+m.Err))
	}
	return b.String()
}

// EntryTable lists the model's entries, highlighting the row at cursor.
// A negative cursor highlights nothing.
func EntryTable(m *ledger.Model, ui config.UIConfig, cursor int) string {
	if m == nil || len(m.Entries) == 0 {
		return dimStyle.Render("no entries")
	}
	var b strings.Builder
	for i, e := range m.Entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		row := fmt.Sprintf("%-6s %12s  %-32s %s",
			e.Date.Format(dateFormat(ui)), Money(e.AmountCents, ui.CurrencySymbol),
			truncate(e.Description, 32), m.CategoryName(e.CategoryID))
		if i == cursor {
			row = cursorStyle.Render(row)
		}
		b.WriteString(row)
	}
	return b.String()
}

func dateFormat(ui config.UIConfig) string {
	if ui.DateFormat == "" {
		return "02/01"
	}
	return ui.DateFormat
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
