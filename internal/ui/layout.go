package ui

import "time"

// DefaultUIInterval is how often the store is polled for a new snapshot.
const DefaultUIInterval = 100 * time.Millisecond

// Lines taken by everything except the entry list: header, command bar, top
// indicator, toast line and footer.
const tailChromeLines = 5

// detailMinHeight is the smallest detail pane worth drawing.
const detailMinHeight = 6

// Diagnostics limits.
const (
	diagLineLimit       = 400
	diagRefreshInterval = time.Second
)

// tailLayout splits the rows below the command bar between the entry list
// and, when open, the detail pane.
func (m Model) tailLayout() (listHeight, detailHeight int) {
	avail := m.height - tailChromeLines
	if avail < 1 {
		return 1, 0
	}
	if !m.showDetail {
		return avail, 0
	}
	detailHeight = avail * 2 / 5
	if detailHeight < detailMinHeight {
		detailHeight = min(detailMinHeight, avail-1)
	}
	listHeight = avail - detailHeight
	if listHeight < 1 {
		return 1, max(avail-1, 0)
	}
	return listHeight, detailHeight
}
