package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jask/mvu/internal/database"
	"github.com/jask/mvu/internal/database/repository"
	"github.com/jask/mvu/internal/service"
	"github.com/jask/mvu/pkg/mvu"
)

// effect turns domain failures into a Failed message so they land in the
// model. Cancellation is passed through to stop the loop.
func effect(op string, fn func(ctx context.Context, env *Env, emit mvu.Emit[Msg]) error) Cmd {
	return mvu.Do(func(ctx context.Context, env *Env, emit mvu.Emit[Msg]) error {
		err := fn(ctx, env, emit)
		if err == nil {
			return nil
		}
		if mvu.IsCanceled(err) {
			return err
		}
		emit(Failed{Op: op, Err: err})
		return nil
	})
}

func load(month time.Time, f Filter) Cmd {
	return effect("load", func(ctx context.Context, env *Env, emit mvu.Emit[Msg]) error {
		cats, err := env.Categories.List(ctx)
		if err != nil {
			return err
		}
		filters := repository.EntryFilters{Month: month, Search: strings.TrimSpace(f.Search)}
		if name := strings.TrimSpace(f.Category); name != "" {
			c, err := categoryByName(ctx, env, name)
			if err != nil {
				return err
			}
			filters.CategoryID = c.ID
		}
		entries, err := env.Entries.List(ctx, filters)
		if err != nil {
			return err
		}
		emit(CategoriesLoaded{Categories: cats})
		emit(EntriesLoaded{Month: month, Filter: f, Entries: entries})
		return nil
	})
}

func categoryByName(ctx context.Context, env *Env, name string) (*repository.Category, error) {
	c, err := env.Categories.ByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("unknown category %q", name)
	}
	return c, nil
}

func addEntry(msg AddEntry) Cmd {
	return effect("add", func(ctx context.Context, env *Env, emit mvu.Emit[Msg]) error {
		desc := strings.TrimSpace(msg.Description)
		var categoryID *string
		if name := strings.TrimSpace(msg.Category); name != "" {
			c, err := categoryByName(ctx, env, name)
			if err != nil {
				return err
			}
			categoryID = &c.ID
		} else {
			suggested, err := env.Categorizer.Suggest(ctx, desc)
			if err != nil {
				return err
			}
			categoryID = suggested
		}

		now := env.Now()
		date := service.CalendarDate(now, env.Location)
		if !msg.Date.IsZero() {
			date = service.CalendarDate(msg.Date, msg.Date.Location())
		}
		e := repository.Entry{
			ID:          uuid.NewString(),
			Date:        date,
			AmountCents: msg.AmountCents,
			Description: desc,
			CategoryID:  categoryID,
			CreatedAt:   now,
		}
		if err := env.Entries.Insert(ctx, e); err != nil {
			return err
		}
		emit(EntryAdded{Entry: e})
		return nil
	})
}

func deleteEntry(id string) Cmd {
	return effect("delete", func(ctx context.Context, env *Env, emit mvu.Emit[Msg]) error {
		ok, err := env.Entries.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("entry %s not found", id)
		}
		emit(EntryDeleted{ID: id})
		return nil
	})
}

func recategorize(msg Recategorize) Cmd {
	return effect("categorize", func(ctx context.Context, env *Env, emit mvu.Emit[Msg]) error {
		var categoryID *string
		if name := strings.TrimSpace(msg.Category); name != "" {
			c, err := categoryByName(ctx, env, name)
			if err != nil {
				return err
			}
			categoryID = &c.ID
		}
		var updated repository.Entry
		err := database.WithTx(ctx, env.DB, func(tx *sql.Tx) error {
			entries := repository.NewEntryRepo(tx)
			e, err := entries.Get(ctx, msg.ID)
			if err != nil {
				return err
			}
			if e == nil {
				return fmt.Errorf("entry %s not found", msg.ID)
			}
			if err := entries.UpdateCategory(ctx, msg.ID, categoryID); err != nil {
				return err
			}
			e.CategoryID = categoryID
			updated = *e
			return nil
		})
		if err != nil {
			return err
		}
		emit(EntryRecategorized{Entry: updated})
		return nil
	})
}

func importCSV(path string) Cmd {
	return effect("import", func(ctx context.Context, env *Env, emit mvu.Emit[Msg]) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		res, err := env.Ingest.ImportCSV(ctx, f, env.Location)
		if err != nil {
			return err
		}
		emit(ImportFinished{Path: path, Result: res})
		return nil
	})
}

func detectDuplicates(month time.Time) Cmd {
	return effect("duplicates", func(ctx context.Context, env *Env, emit mvu.Emit[Msg]) error {
		pairs, err := env.Reconciler.FindDuplicates(ctx, month)
		if err != nil {
			return err
		}
		emit(DuplicatesFound{Pairs: pairs})
		return nil
	})
}

func export(path string) Cmd {
	return effect("export", func(ctx context.Context, env *Env, emit mvu.Emit[Msg]) error {
		cats, err := env.Categories.List(ctx)
		if err != nil {
			return err
		}
		entries, err := env.Entries.List(ctx, repository.EntryFilters{})
		if err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		doc := service.Export{GeneratedAt: env.Now(), Categories: cats, Entries: entries}
		if err := env.Exporter.WriteYAML(f, doc); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		emit(ExportFinished{Path: path, Entries: len(entries)})
		return nil
	})
}

func reset() Cmd {
	return effect("reset", func(ctx context.Context, env *Env, emit mvu.Emit[Msg]) error {
		if err := env.Maintenance.Reset(ctx); err != nil {
			return err
		}
		emit(ResetDone{})
		return nil
	})
}
