// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/jusunglee/mta-ridership/internal/config"
)

// New returns a colored text logger in dev and a JSON logger otherwise
func New(cfg config.Config, appName string) *slog.Logger {
	return NewWriter(os.Stdout, cfg, appName)
}

// NewWriter is New with an explicit destination
func NewWriter(w io.Writer, cfg config.Config, appName string) *slog.Logger {
	if cfg.AppEnv == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With(
		"app", appName,
		"env", cfg.AppEnv,
	)
}
