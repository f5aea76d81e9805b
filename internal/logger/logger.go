// Package logger owns the process-wide slog instance. Handlers write to
// stdout; level, format, component attribute and source annotation come
// from config.
package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/GraceTang323/LinkedUp/internal/config"
)

var (
	mu   sync.RWMutex
	base *slog.Logger
)

// InitFromConfig builds the global logger from the app config. Later calls
// replace the handler, so tests can reconfigure freely.
func InitFromConfig(c *config.Config) {
	level, format, component := "info", "text", ""
	withSource := false
	if c != nil {
		level, format, component = c.Log.Level, c.Log.Format, c.Log.Component
		withSource = c.Log.Source
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: withSource,
	}

	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	l := slog.New(h)
	if component != "" {
		l = l.With("component", component)
	}

	mu.Lock()
	base = l
	mu.Unlock()
}

// L returns the global logger, initializing a default one on first use.
func L() *slog.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()
	if l != nil {
		return l
	}
	InitFromConfig(nil)
	return L()
}

// Info, Warn and Error log through the global logger.
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }

func parseLevel(s string) slog.Level {
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
