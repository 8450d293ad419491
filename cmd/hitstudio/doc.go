// Package main hosts the hitstudio CLI entrypoint and command graph.
//
// The Cobra command tree submits generation jobs and follows them to a
// track, runs hit-potential analyses, browses local history, and starts the
// dashboard server. Configuration is resolved once per invocation and
// shared by every subcommand through commandContext.
//
// Terminal output belongs to the user; diagnostic logs go to the log file
// under paths.log_dir unless a command runs in the foreground as a server.
package main
