package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/notesdb/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey struct{}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a JSON logger for cfg. Output goes to stdout unless a log file is
// configured, in which case it is written through a size-rotated file. The
// returned closer releases the file and is never nil.
func New(cfg config.Logging, stdout io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = stdout
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		writer, err := NewRotatingWriter(cfg)
		if err != nil {
			return nil, nil, err
		}
		out, closer = writer, writer
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	return logger, closer, nil
}

// NewRotatingWriter returns a writer that rotates cfg.File by size.
func NewRotatingWriter(cfg config.Logging) (*lumberjack.Logger, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("rotation file path must not be empty")
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 5
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxFiles,
	}, nil
}

// ParseLevel maps a configured level name onto a slog level. It accepts the
// names config.NormalizeLevel accepts; an empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return slog.LevelInfo, nil
	}

	level, ok := config.NormalizeLevel(name)
	if !ok {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}

	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, nil
	}
}

// ContextWithLogger returns a derived context that carries the provided logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts a logger previously attached to the context.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}
