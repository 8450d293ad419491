// Package tracker owns the lifecycle of one generation job as seen by a
// view: submitting it, following its progress, and reporting the outcome.
//
// A Tracker is an ordinary value. Callers construct one per view (the
// dashboard server owns exactly one, each CLI invocation builds its own) and
// several trackers never share state.
//
// State machine:
//
//	idle -> submitting -> tracking -> completed
//	                   \           \-> failed
//	                    \-> failed
//
// Reset returns to idle from anywhere without contacting the backend.
// Updates are accepted only for the job currently tracked, and the displayed
// progress never moves backwards even when the backend reports a lower
// value. Nothing here retries: a failed submission stays failed until the
// caller submits again.
package tracker
