package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger using slog.
func New() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level(),
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func level() slog.Level {
	switch os.Getenv("RISKGATE_LOG_LEVEL") {
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
