// Package logging assembles structured slog loggers and formatting helpers used
// across hitstudio.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so client and tracker code can
// tag log lines with job IDs, track IDs, and correlation IDs. Console output is
// colored only when it goes straight to a terminal. A no-op logger is provided
// for tests and wiring code that cannot fail.
package logging
