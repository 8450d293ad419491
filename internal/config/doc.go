// Package config loads, normalizes, and validates hitstudio configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as HITSTUDIO_API_KEY. A
// .env file next to the config file is read as a second fallback for secrets
// without touching the process environment.
//
// Model and duration defaults are only checked for presence here; the
// generation package owns the catalog and rejects unknown values on submit.
package config
