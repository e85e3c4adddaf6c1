package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jask/mvu/internal/ledger"
	"github.com/jask/mvu/internal/tui"
)

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := setup(ctx, !verbose)
	if err != nil {
		return err
	}
	defer a.close()
	month, err := a.month()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	sink := &tui.Sink{Args: ledger.Args{Month: month}}
	prog := a.newProgram(sink)
	ui := tui.New(gctx, prog, a.cfg.UI, a.loc)
	tp := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithContext(gctx))
	sink.Attach(tp)

	g.Go(func() error {
		// quitting the UI stops the metrics listener
		defer cancel()
		_, err := tp.Run()
		if errors.Is(err, tea.ErrProgramKilled) && gctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return serveMetrics(gctx, a.cfg.Metrics.Addr, a.registry, a.log)
	})
	return g.Wait()
}
