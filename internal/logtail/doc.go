// Package logtail reads the end of trawl's own log file for the diagnostics
// pane.
//
// Read keeps a ring of the last maxLines lines, so the file is scanned once
// and memory stays proportional to the window rather than the file. A missing
// file reads as empty; other I/O errors are wrapped.
//
// Lines are expected in the tint layout written by internal/logging:
//
//	2026-10-16 09:01:02.123 WRN live feed dropped conn=3f2a error=EOF
//
// Level pulls the severity token out of such a line and Filter trims a window
// to a minimum severity. Continuation lines without a token stay with the
// record above them.
package logtail
