// Package tail merges the hub's live feed with on-demand backward page fetches
// into one ordered, bounded entry buffer.
//
// # Overview
//
// Two producers write into the same buffer: live frames append new entries
// at the tail, and backward fetches prepend older entries below the head.
// Instead of locking, every change goes through a single Actor goroutine
// that applies one event at a time to completion:
//
//	 live feed ──frames──┐
//	 fetch goroutine ────┼──> Actor.events ──> Core ──> Publisher (View)
//	 UI actions ─────────┘
//
// Core holds the state and does no I/O, so the pagination and cursor rules
// are tested directly. ConnectionController owns the live feed. Dials and
// read loops run on their own goroutines and post back to the actor.
//
// # Cursors
//
//   - LeftOffTop: the id the next backward fetch starts below. Unknown until
//     the first queryMetadata frame, which sets it one below the reported
//     boundary. Moved to the evicted id whenever live traffic evicts the head.
//   - LeftOffBottom: the newest held id, or -1. Used to resume the feed with
//     "leftOff(<id>)" so a reconnect has no gap and no duplicate.
//
// # Ordering
//
// A manual LoadOlder closes the live feed before fetching, and the automatic
// fetch triggered at the top of the list only starts while the feed is
// disconnected. Appends and prepends therefore never race. Page results
// carry the generation they were requested under; a filter change or an
// eviction during the fetch advances the generation and the late page is
// dropped.
//
// # Failure handling
//
//   - Malformed frames are logged, counted and dropped.
//   - A live entry out of order is dropped, recorded as the last error, and
//     the feed is closed.
//   - A failed or timed-out fetch marks pagination exhausted. Scrolling away
//     from the top clears exhaustion so the user can retry.
//   - A dropped feed is not redialed; snapping to the bottom resumes it.
package tail
