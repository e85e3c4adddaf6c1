package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jask/mvu/internal/config"
	"github.com/jask/mvu/internal/ledger"
	"github.com/jask/mvu/internal/tui"
	"github.com/jask/mvu/pkg/mvu"
)

var (
	addCategory  string
	resetYes     bool
	listSearch   string
	listCategory string
	listIDs      bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the month's totals and entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := ledger.Filter{Category: listCategory, Search: listSearch}
		if f == (ledger.Filter{}) {
			return runHeadless(cmd)
		}
		return runHeadless(cmd, send(ledger.FilterChanged{Filter: f}))
	},
}

var categorizeCmd = &cobra.Command{
	Use:   "categorize <entry-id> [category]",
	Short: "Move an entry to a category, or clear it when none is given",
	Long:  `Moves an entry to a category. Entry ids are printed by "ledger list --ids".`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg := ledger.Recategorize{ID: args[0]}
		if len(args) == 2 {
			msg.Category = args[1]
		}
		return runHeadless(cmd, send(msg))
	},
}

var addCmd = &cobra.Command{
	Use:   "add [date] <amount> <description...>",
	Short: "Record an entry",
	Long: `Records an entry. Without --category the category is suggested from
similar descriptions already in the ledger.

Example:
  ledger add --category "Restaurants" -- 2026-03-04 -12.50 flat white`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHeadless(cmd, func(a *app) ([]ledger.Msg, error) {
			entry, err := tui.ParseEntryInput(strings.Join(args, " "), a.loc)
			if err != nil {
				return nil, err
			}
			if addCategory != "" {
				entry.Category = addCategory
			}
			return []ledger.Msg{entry}, nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file.csv>...",
	Short: "Import CSV files of date,amount,description[,category]",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHeadless(cmd, func(*app) ([]ledger.Msg, error) {
			msgs := make([]ledger.Msg, 0, len(args))
			for _, path := range args {
				msgs = append(msgs, ledger.ImportCSV{Path: path})
			}
			return msgs, nil
		})
	},
}

var dupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "List possible duplicate entries in the month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runHeadless(cmd, send(ledger.DetectDuplicates{}))
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file.yaml>",
	Short: "Write every category and entry to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHeadless(cmd, send(ledger.ExportRequested{Path: args[0]}))
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all entries and restore the default categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !resetYes {
			return errors.New("reset deletes every entry; pass --yes to confirm")
		}
		return runHeadless(cmd, send(ledger.ResetRequested{}))
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.Path())
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addCategory, "category", "c", "", "category name")
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm the reset")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "only entries whose description contains this text")
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "only entries in this category")
	listCmd.Flags().BoolVar(&listIDs, "ids", false, "print entry ids")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(listCmd, addCmd, categorizeCmd, importCmd, dupesCmd, exportCmd, resetCmd, configCmd)
}

func send(msgs ...ledger.Msg) func(*app) ([]ledger.Msg, error) {
	return func(*app) ([]ledger.Msg, error) { return msgs, nil }
}

// runHeadless initializes a program without a renderer, dispatches the
// messages built by build in order and prints the final month. A message
// that leaves an error in the model stops the run.
func runHeadless(cmd *cobra.Command, build ...func(*app) ([]ledger.Msg, error)) error {
	ctx := cmd.Context()
	a, err := setup(ctx, !verbose)
	if err != nil {
		return err
	}
	defer a.close()
	month, err := a.month()
	if err != nil {
		return err
	}

	prog := a.newProgram(mvu.ArgsFunc[ledger.Args](func() ledger.Args { return ledger.Args{Month: month} }))
	if err := prog.Init(ctx); err != nil {
		return err
	}
	if m := prog.Model(); m.Err != "" {
		return errors.New(m.Err)
	}
	for _, b := range build {
		msgs, err := b(a)
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			if err := prog.Dispatch(ctx, msg); err != nil {
				return err
			}
			if m := prog.Model(); m.Err != "" {
				return errors.New(m.Err)
			}
			a.log.Debug("dispatched", zap.String("msg", fmt.Sprintf("%T", msg)), zap.String("status", prog.Model().Status))
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := prog.Model()
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tui.Summary(m, a.cfg.UI))
	fmt.Fprintln(out)
	fmt.Fprintln(out, tui.EntryTable(m, a.cfg.UI, -1))
	if listIDs {
		fmt.Fprintln(out)
		for _, e := range m.Entries {
			fmt.Fprintf(out, "%s  %s\n", e.ID, e.Description)
		}
	}
	return nil
}
