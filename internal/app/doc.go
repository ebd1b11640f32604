// Package app is the composition root of trawl.
//
// Run loads configuration (file, then TRAWL_* environment, then command-line
// overrides), opens the log file, and wires the pieces together:
//
//   - a hub.Client for history pages and a hub.WSDialer for the live feed
//   - a tail.Actor that owns the buffer and cursors
//   - a state.Store the actor publishes views and toasts into
//   - the Bubble Tea UI, which polls the store and drives the actor
//   - an optional Prometheus listener on metrics_addr
//
// The actor, the metrics listener and the UI run in one errgroup. Quitting
// the UI cancels the group; a failure in any member stops the others.
//
// The starting filter comes from config when set, otherwise from the filter
// remembered in prefs.toml.
package app
