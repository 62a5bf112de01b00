// Package logging configures the structured logger used across oxdb: a
// JSON slog handler over a size-rotated file, optionally mirrored to
// stderr.
package logging
