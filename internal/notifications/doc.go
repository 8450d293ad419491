// Package notifications delivers studio events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Per-event toggles
// in the [notifications] section silence whole event families. Callers log
// delivery failures; a failed notification never fails the operation that
// triggered it.
package notifications
