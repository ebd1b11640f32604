// Package ui is the Bubble Tea front end of trawl.
//
// The model never touches the tail directly. It polls state.Store for the
// latest snapshot on a tick and sends user intent to a Controller (the tail
// actor): scrolling to or away from the top, breaking or restoring the snap
// to live, focus changes, filter edits and the manual "load older" action.
//
// The entry list is windowed by hand rather than through a viewport so rows
// can be tracked by id. Evictions at the head and prepends of older pages
// leave the rows on screen where they were; scroll anchors from a prepend
// and jump-to-bottom requests are each applied once, keyed by their
// sequence numbers.
//
// Screens:
//
//   - Tail: entry list, top indicator (loading spinner, "No more data
//     available", load-older hint), optional detail pane with the raw entry,
//     toast line and the result footer.
//   - Diagnostics (L): the tail of trawl's own log file, filterable by level.
//
// Overlays for help (?) and the filter editor (/) are drawn over the whole
// screen.
package ui
