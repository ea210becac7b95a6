// README: Structured JSON logger shared by all services.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds a JSON slog logger. Structured output keeps the logs
// shippable to any backend without a custom parser.
func NewLogger(level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: levelFromString(level),
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func levelFromString(level string) slog.Leveler {
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
