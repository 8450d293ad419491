// Package dashboard serves the local JSON API a studio view talks to.
//
// One Server owns one studio session, so one tracker and one meter, for
// its whole lifetime. Submissions are followed in the background until the
// job finishes or the tracker is reset; views poll GET /api/generation or
// subscribe to /api/generation/stream for server-sent snapshots.
//
// A flock in the state directory keeps two dashboards from sharing one
// history database. Bearer auth is enforced when dashboard.token is set.
package dashboard
