package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jask/mvu/internal/config"
	"github.com/jask/mvu/internal/database"
	"github.com/jask/mvu/internal/ledger"
	"github.com/jask/mvu/internal/logging"
	"github.com/jask/mvu/pkg/mvu"
)

var (
	// Global flags
	configPath string
	verbose    bool
	monthFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Personal ledger driven by a message loop",
	Long: `ledger keeps a monthly record of income and spending in sqlite.

Run without arguments to open the terminal UI. The subcommands run the same
messages headless and print the resulting month.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			return os.Setenv("LEDGER_CONFIG", configPath)
		}
		return nil
	},
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/ledger/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
	rootCmd.PersistentFlags().StringVar(&monthFlag, "month", "", "month to open as YYYY-MM (default current)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// app is the wiring shared by the UI and the headless commands.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	db       *sql.DB
	loc      *time.Location
	registry *prometheus.Registry
	metrics  *mvu.Metrics
}

func setup(ctx context.Context, quiet bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(cfg.Log, quiet)
	if err != nil {
		return nil, err
	}
	if verbose {
		log = log.WithOptions(zap.IncreaseLevel(zap.DebugLevel))
	}

	loc, err := time.LoadLocation(cfg.UI.Timezone)
	if err != nil {
		log.Warn("using local timezone", zap.String("timezone", cfg.UI.Timezone), zap.Error(err))
		loc = time.Local
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.SeedDefaults(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := mvu.NewMetrics(reg, "ledger")
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug("ledger ready", zap.String("db", cfg.Database.Path), zap.String("dispatch", cfg.Program.Dispatch))
	return &app{cfg: cfg, log: log, db: db, loc: loc, registry: reg, metrics: metrics}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("close db", zap.Error(err))
	}
	_ = a.log.Sync()
}

// month resolves --month in the configured timezone.
func (a *app) month() (time.Time, error) {
	if strings.TrimSpace(monthFlag) == "" {
		return time.Now().In(a.loc), nil
	}
	t, err := time.ParseInLocation("2006-01", monthFlag, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("--month: %w", err)
	}
	return t, nil
}

func (a *app) newProgram(view mvu.ArgsProvider[ledger.Args]) *ledger.Program {
	var refresh *rate.Limiter
	if a.cfg.Program.RefreshRate > 0 {
		refresh = rate.NewLimiter(rate.Limit(a.cfg.Program.RefreshRate), max(a.cfg.Program.RefreshBurst, 1))
	}
	opts := []mvu.Option{mvu.WithLogger(a.log.Named("mvu")), mvu.WithMetrics(a.metrics)}
	if a.cfg.Program.Concurrent() {
		opts = append(opts, mvu.WithConcurrentDispatch())
	}
	factory := &ledger.EnvFactory{DB: a.db, Location: a.loc}
	return ledger.NewProgram(&ledger.Component{Refresh: refresh}, view, factory, opts...)
}

// serveMetrics exposes the registry until ctx ends. An empty addr disables it.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) error {
	if strings.TrimSpace(addr) == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
