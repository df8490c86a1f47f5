package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON output so log shippers
// can index fields without parsing.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
