// Package logging builds the zap logger used by the ledger commands.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jask/mvu/internal/config"
)

// New builds a logger from cfg. When quiet is set and no log file is
// configured the logger discards everything; the terminal UI owns stdout
// and stderr while it runs.
func New(cfg config.LogConfig, quiet bool) (*zap.Logger, error) {
	if quiet && strings.TrimSpace(cfg.File) == "" {
		return zap.NewNop(), nil
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	if f := strings.TrimSpace(cfg.File); f != "" {
		zc.OutputPaths = []string{f}
		zc.ErrorOutputPaths = []string{f}
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
