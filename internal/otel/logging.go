package otel

import (
	"io"
	"log/slog"
)

// SetupLogging installs a text slog handler at the given level as the
// default logger. Setup replaces it with the OTLP bridge when telemetry is on.
func SetupLogging(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
