package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupJSON sets slog's default logger to use JSON output at the given level.
func SetupJSON(level slog.Level) {
	Setup("json", level)
}

// Setup sets slog's default logger. format is "json" or "text"; anything
// else falls back to JSON.
func Setup(format string, level slog.Level) {
	slog.SetDefault(New(os.Stdout, format, level))
}

// New builds a logger writing to w without touching the default.
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}

	return slog.New(slog.NewJSONHandler(w, opts))
}

// Component returns the default logger tagged with the component name.
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}
