// Package analysis requests hit-potential reports for finished tracks and
// keeps the latest one for display.
//
// Client is stateless: every Analyze call goes to the backend, with no cache
// and no de-duplication of concurrent requests. Meter is the stateful
// consumer used by views. It holds at most one report, discards responses
// for tracks that are no longer the latest request, and keeps the previous
// report when an analysis fails.
package analysis
