package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Dispatch modes accepted by program.dispatch.
const (
	DispatchSerialized = "serialized"
	DispatchConcurrent = "concurrent"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Program  ProgramConfig
	Log      LogConfig
	Metrics  MetricsConfig
	UI       UIConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// ProgramConfig tunes the message loop.
type ProgramConfig struct {
	Dispatch     string
	RefreshRate  float64 `mapstructure:"refresh_rate"`
	RefreshBurst int     `mapstructure:"refresh_burst"`
}

// LogConfig selects the zap configuration.
type LogConfig struct {
	Level       string
	Development bool
	File        string
}

// MetricsConfig holds the prometheus listener. Empty Addr disables it.
type MetricsConfig struct {
	Addr string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat     string `mapstructure:"date_format"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
	Timezone       string
}

// Concurrent reports whether overlapping dispatches may run together.
func (p ProgramConfig) Concurrent() bool {
	return strings.EqualFold(strings.TrimSpace(p.Dispatch), DispatchConcurrent)
}

// Load reads configuration from file and env. Env var overrides use prefix LEDGER_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "ledger", "ledger.db"))
	v.SetDefault("program.dispatch", DispatchSerialized)
	v.SetDefault("program.refresh_rate", 4.0)
	v.SetDefault("program.refresh_burst", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("ui.date_format", "02/01")
	v.SetDefault("ui.currency_symbol", "$")
	v.SetDefault("ui.timezone", "Local")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("LEDGER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "ledger"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("LEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the program cannot run with.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Program.Dispatch)) {
	case DispatchSerialized, DispatchConcurrent:
	default:
		return fmt.Errorf("config: program.dispatch must be %q or %q, got %q",
			DispatchSerialized, DispatchConcurrent, c.Program.Dispatch)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("config: database.path is required")
	}
	if c.Program.RefreshRate < 0 || c.Program.RefreshBurst < 0 {
		return fmt.Errorf("config: refresh limits must not be negative")
	}
	return nil
}

// Path returns the file Save writes to.
func Path() string {
	if p := os.Getenv("LEDGER_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "ledger", "config.toml")
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("program.dispatch", cfg.Program.Dispatch)
	v.Set("program.refresh_rate", cfg.Program.RefreshRate)
	v.Set("program.refresh_burst", cfg.Program.RefreshBurst)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.development", cfg.Log.Development)
	v.Set("log.file", cfg.Log.File)
	v.Set("metrics.addr", cfg.Metrics.Addr)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("ui.currency_symbol", cfg.UI.CurrencySymbol)
	v.Set("ui.timezone", cfg.UI.Timezone)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
