// Package studio assembles one working session: a generation tracker, an
// analysis meter, the backend clients behind them, and the optional history
// store and notifier that observe them.
//
// A Session is built explicitly by whoever needs one. The dashboard server
// owns a single session for its lifetime; each CLI command builds a fresh
// one. Nothing here is global.
package studio
