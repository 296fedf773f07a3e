package infra

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger creates a new slog.Logger with log rotation support
func NewLogger(cfg *Config) *slog.Logger {
	return slog.New(newHandler(logWriter(cfg.LogDir), cfg.LogFormat, ParseLevel(cfg.LogLevel)))
}

// logWriter returns stdout, teed into a rotating file under dir when dir is set.
func logWriter(dir string) io.Writer {
	if dir == "" {
		return os.Stdout
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		// Fallback to stdout only if directory creation fails
		return os.Stdout
	}

	fileLogger := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "stock_watch.log"),
		MaxSize:    10, // Megabytes
		MaxBackups: 3,
		MaxAge:     28, // Days
		Compress:   true,
	}

	return io.MultiWriter(os.Stdout, fileLogger)
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
