// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or text
	Output     string // stdout, file, both
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New returns a logger for cfg. File output is rotated by lumberjack.
func New(cfg Config) (*slog.Logger, error) {
	out, err := writer(cfg, os.Stdout)
	if err != nil {
		return nil, err
	}
	return NewWithWriter(cfg, out), nil
}

// NewWithWriter builds the handler on top of w, ignoring cfg.Output.
func NewWithWriter(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h)
}

// ParseLevel defaults to info for unknown values.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func writer(cfg Config, stdout io.Writer) (io.Writer, error) {
	output := strings.ToLower(strings.TrimSpace(cfg.Output))
	switch output {
	case "", "stdout":
		return stdout, nil
	case "file", "both":
	default:
		return nil, fmt.Errorf("unknown log output %q: valid options: stdout, file, both", cfg.Output)
	}
	if cfg.File == "" {
		return nil, fmt.Errorf("log output %q requires a file path", cfg.Output)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	rotating := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	if output == "both" {
		return io.MultiWriter(stdout, rotating), nil
	}
	return rotating, nil
}
