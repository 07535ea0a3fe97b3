package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a slog.Logger configured for console output and the provided level.
func New(level string) *slog.Logger {
	var programLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		programLevel = slog.LevelDebug
	case "warn", "warning":
		programLevel = slog.LevelWarn
	case "error":
		programLevel = slog.LevelError
	default:
		programLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: programLevel})
	return slog.New(handler)
}

// Redact replaces a secret with a fixed placeholder so log lines can record
// that a value was present without ever recording the value itself. Bearer
// tokens, session tokens and passwords must only reach log sinks through it.
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "[redacted]"
}
