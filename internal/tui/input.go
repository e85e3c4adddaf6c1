package tui

import (
	"errors"
	"strings"
	"time"

	"github.com/jask/mvu/internal/ledger"
	"github.com/jask/mvu/internal/service"
)

var (
	errNoAmount      = errors.New("expected an amount")
	errNoDescription = errors.New("expected a description")
)

// ParseEntryInput reads "[date] amount description [#category]" as typed in
// the add prompt. Underscores in the category stand for spaces, so
// "#Eating_Out" names "Eating Out". A missing date leaves Date zero.
func ParseEntryInput(s string, loc *time.Location) (ledger.AddEntry, error) {
	fields := strings.Fields(s)
	var out ledger.AddEntry
	if len(fields) > 0 {
		if d, err := service.ParseDate(fields[0], loc); err == nil {
			out.Date = d
			fields = fields[1:]
		}
	}
	if len(fields) == 0 {
		return out, errNoAmount
	}
	cents, err := service.DollarsToCents(fields[0])
	if err != nil {
		return out, errNoAmount
	}
	out.AmountCents = cents
	fields = fields[1:]
	if n := len(fields); n > 0 && strings.HasPrefix(fields[n-1], "#") {
		out.Category = strings.ReplaceAll(strings.TrimPrefix(fields[n-1], "#"), "_", " ")
		fields = fields[:n-1]
	}
	out.Description = strings.Join(fields, " ")
	if out.Description == "" {
		return out, errNoDescription
	}
	return out, nil
}
