// Package logging builds the process logger. The terminal belongs to the UI,
// so records go to a size-rotated JSON file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Breadstickhemmo/42Brat/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultFile returns the log path used when none is configured:
// <stateDir>/events-tui.log.
func DefaultFile(stateDir string) string {
	return filepath.Join(stateDir, "events-tui.log")
}

// New returns a zap logger writing to cfg.File with rotation.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	})

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), writer, level)
	return zap.New(core, zap.AddCaller()), nil
}
