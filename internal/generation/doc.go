// Package generation models generation requests and job status and talks
// to the studio backend's song generation endpoints.
//
// Request validation happens here so that invalid input is refused before
// any network call. Backend status strings (including the task queue's
// PENDING/STARTED/PROGRESS/SUCCESS/FAILURE names) are normalized into the
// four job states the rest of hitstudio understands.
//
// Observation sources live here too: Poller turns the status endpoint into a
// stream of updates, and ChannelSource adapts any caller-owned channel. Both
// satisfy Source so the tracker never knows how updates are delivered.
package generation
