package app

import (
	"log/slog"
	"os"

	"echo-message/go-backend/internal/platform/privacylog"
)

// DefaultLogger is the service's JSON logger with the sanitizing handler in
// front, so emails and secret-looking attributes never land in logs raw.
func DefaultLogger() *slog.Logger {
	return slog.New(privacylog.WrapHandler(slog.NewJSONHandler(os.Stdout, nil)))
}
