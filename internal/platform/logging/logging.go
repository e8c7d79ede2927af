// Package logging builds the process-wide slog logger from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/p-n-ai/medstudy/internal/platform/config"
)

// ParseLevel maps a configured level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// NewHandler returns a JSON or text handler writing to w at the configured
// level.
func NewHandler(w io.Writer, cfg config.LogConfig) (slog.Handler, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "", "json":
		return slog.NewJSONHandler(w, opts), nil
	case "text":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

// New builds a stdout logger and installs it as the slog default.
func New(cfg config.LogConfig) (*slog.Logger, error) {
	h, err := NewHandler(os.Stdout, cfg)
	if err != nil {
		return nil, err
	}
	logger := slog.New(h).With("service", "medstudy")
	slog.SetDefault(logger)
	return logger, nil
}
