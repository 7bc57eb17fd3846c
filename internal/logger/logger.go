package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/lystun/payflo-sub003/internal/config"
)

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// NewLogger builds the process-wide slog.Logger. Output is always JSON to
// stdout so the API gateway and the settlement worker log in the same shape.
// Every line carries the service name and environment for log aggregation.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)

	opts := &slog.HandlerOptions{
		Level: level,
		// Source locations only when debugging, they are noise in production
		AddSource: level == slog.LevelDebug,
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, opts)).With(
		"service", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	log.Info("Logger initialized", "level", level.String())

	return log
}
