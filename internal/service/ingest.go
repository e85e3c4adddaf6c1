package service

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jask/mvu/internal/database"
	"github.com/jask/mvu/internal/database/repository"
)

// IngestService handles CSV imports.
type IngestService struct {
	Entries    *repository.EntryRepo
	Categories *repository.CategoryRepo
	Now        func() time.Time
}

type IngestResult struct {
	Imported int
	Skipped  int
	Errors   []error
}

// ImportCSV reads rows of date, amount, description and an optional category
// name. Dates are YYYY-MM-DD or D/MM/YYYY; amount is dollars with an optional
// minus, converted to cents. Rows already imported (same date, amount and
// description) are skipped.
func (s *IngestService) ImportCSV(ctx context.Context, r io.Reader, tz *time.Location) (IngestResult, error) {
	if tz == nil {
		tz = time.Local
	}
	res := IngestResult{}
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1
	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if len(rec) < 3 {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: expected at least 3 columns (date, amount, description)", line))
			continue
		}
		date, err := ParseDate(rec[0], tz)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d date: %w", line, err))
			continue
		}
		amountCents, err := DollarsToCents(rec[1])
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d amount: %w", line, err))
			continue
		}
		desc := strings.TrimSpace(rec[2])
		if desc == "" {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: empty description", line))
			continue
		}
		var categoryID *string
		if len(rec) > 3 {
			categoryID, err = s.categoryFor(ctx, rec[3])
			if err != nil {
				res.Errors = append(res.Errors, fmt.Errorf("line %d category: %w", line, err))
				continue
			}
		}

		e := repository.Entry{
			ID:          uuid.NewString(),
			Date:        date,
			AmountCents: amountCents,
			Description: desc,
			CategoryID:  categoryID,
			SourceHash:  hashSource(date.Format(time.DateOnly), strconv.FormatInt(amountCents, 10), desc),
			CreatedAt:   s.now(),
		}
		if err := s.Entries.Insert(ctx, e); err != nil {
			// skip duplicates on unique constraint
			if strings.Contains(err.Error(), "UNIQUE") {
				res.Skipped++
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, err
			}
			res.Errors = append(res.Errors, fmt.Errorf("line %d insert: %w", line, err))
			continue
		}
		res.Imported++
	}
	return res, nil
}

func (s *IngestService) categoryFor(ctx context.Context, name string) (*string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	existing, err := s.Categories.ByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &existing.ID, nil
	}
	c := repository.Category{ID: database.CategoryID(name), Name: name, SortOrder: 100}
	if err := s.Categories.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return &c.ID, nil
}

func (s *IngestService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return database.Now()
}

// DollarsToCents parses a dollar amount such as "-1,204.50".
func DollarsToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimPrefix(s, "$")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return int64(math.Round(f * 100)), nil
}

// ParseDate accepts YYYY-MM-DD and D/MM/YYYY in loc. The result is the
// calendar date as UTC midnight, the form entry dates are stored in.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	layout := time.DateOnly
	if strings.Contains(s, "/") {
		layout = "2/01/2006" // day/month/year (supports single-digit day)
	}
	t, err := time.ParseInLocation(layout, s, loc)
	if err != nil {
		return time.Time{}, err
	}
	return CalendarDate(t, loc), nil
}

// CalendarDate returns the day t falls on in loc as UTC midnight, so month
// bounds computed in UTC match the calendar seen in loc.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func hashSource(parts ...string) *string {
	joined := strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(joined))
	h := fmt.Sprintf("%x", sum[:])
	return &h
}
