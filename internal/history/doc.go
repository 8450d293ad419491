// Package history keeps a local SQLite record of submitted generations and
// the analyses run against their tracks.
//
// The studio backend owns the real track catalog; this store only remembers
// what this machine asked for so the CLI and dashboard can list past jobs and
// rank analysed tracks without another round-trip. Schema changes bump the
// version in schema.go; users delete the database to adopt the new schema.
package history
