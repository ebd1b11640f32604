// Package state shares the latest tail view and pending toasts between the
// tail actor and the UI.
//
// # Overview
//
// The actor publishes an immutable tail.View after every event and forwards
// hub toasts; the UI reads a Snapshot on its own refresh tick. The Store is
// the only point where the two goroutines meet.
//
//	Producer (tail.Actor):         Consumer (UI):
//	┌────────────────┐            ┌──────────────────┐
//	│ handle(event)  │            │                  │
//	│      ↓         │            │                  │
//	│ store.Publish()│───────────→│ store.Snapshot() │
//	│ store.Notify() │  (mutex)   │      ↓           │
//	│                │            │  render          │
//	└────────────────┘            └──────────────────┘
//
// # Views
//
// A published view is never modified after the fact. Its Entries slice
// shares storage with the tail buffer, which only ever writes past the
// length a view was cut at, so the Store keeps it without copying. This
// matters at the buffer's 10k-entry bound, where copying per frame would
// dominate.
//
// # Toasts
//
// Notify stamps each toast with an expiry from its autoClose (5s when the hub
// sends none) against the injected clockwork.Clock. Snapshot prunes expired
// toasts before copying them out, so tests drive expiry with a fake clock.
// Only the newest five are kept.
//
// # Zero value
//
// A zero Store is ready to use and falls back to the wall clock:
//
//	store := &state.Store{}
package state
