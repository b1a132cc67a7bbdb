package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Init installs a JSON slog handler at the given level as the default logger.
func Init(level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
