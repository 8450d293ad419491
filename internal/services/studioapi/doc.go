// Package studioapi is the HTTP transport shared by the generation and
// analysis clients.
//
// It joins paths onto the configured base URL, sends bearer credentials and a
// correlation id (taken from the context or minted with uuid), and converts
// every failure into the services taxonomy: transport problems, not-found
// answers, and backend rejections that keep the backend's own message.
//
// The client performs exactly one attempt per call. Retry policy belongs to
// whoever calls it.
package studioapi
