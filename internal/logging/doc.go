// Package logging constructs the slog loggers used across arivid and holds
// the shared attribute helpers and field names.
package logging
