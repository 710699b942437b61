// Package logging assembles structured slog loggers and formatting helpers used
// by the dispatcher and the CLI.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so dispatch code can tag log
// lines with run IDs, batch indexes, and stages. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
