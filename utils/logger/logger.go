package logger

import (
	"log/slog"
	"os"
	"strings"
)

// ServiceName is attached to every record.
const ServiceName = "sso-hub"

// Init installs the default JSON logger. With enableOTel, records are also
// exported through the global OpenTelemetry logger provider.
func Init(enableOTel bool, level string) *slog.Logger {
	lvl := ParseLevel(level)

	var handler slog.Handler
	if enableOTel {
		handler = NewMultiHandler(lvl)
	} else {
		handler = NewTraceContextHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	}

	logger := slog.New(handler).With("service", ServiceName)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps LOG_LEVEL values to slog levels; unknown values mean info.
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
