package application

import "log/slog"

// ResolveLogger is shared with the worker subpackage.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
