// Package logging builds the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/johnwards/backoffice/internal/config"
)

// Log file rotation limits.
const (
	maxSizeMB  = 50
	maxBackups = 5
	maxAgeDays = 28
)

// New creates the logger described by cfg and installs it as the slog
// default. Output goes to stdout and, when cfg.LogFile is set, to a rotated
// file as well. The returned closer releases the file.
func New(cfg config.Config) (*slog.Logger, io.Closer, error) {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with an explicit console writer.
func NewWithWriter(cfg config.Config, stdout io.Writer) (*slog.Logger, io.Closer, error) {
	level := ParseLevel(cfg.LogLevel)

	var closer io.Closer = nopCloser{}
	writer := stdout
	toFile := strings.TrimSpace(cfg.LogFile) != ""
	if toFile {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
		closer = file
		writer = io.MultiWriter(stdout, file)
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(writer, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			NoColor:    toFile,
		})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	if toFile {
		logger.Info("file logging enabled", "path", cfg.LogFile)
	}
	return logger, closer, nil
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
