// Package services defines shared utilities consumed by the studio clients,
// the job tracker, and the outer surfaces (CLI and dashboard).
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, track IDs, and correlation
//     identifiers for logging and backend request tracing.
//   - The error taxonomy: validation, transport, backend rejection, and
//     not-found markers, plus the Wrap helper and RejectionError that keep the
//     backend's own message intact.
//
// Use these markers when adding new backend calls so every failure can be
// classified with errors.Is and rendered the same way everywhere.
package services
