package tail

import (
	"cmp"
	"slices"

	"github.com/five82/trawl/internal/hub"
)

// ScrollAnchor asks the view to keep the row at Index in place. Seq grows
// with every request so a renderer applies each one once.
type ScrollAnchor struct {
	Index int
	Seq   uint64
}

// Signals are the derived values a renderer reads. They never feed back into
// buffer state.
type Signals struct {
	IsLoadingTop         bool
	NoMoreDataTop        bool
	ShowLoadOlderButton  bool
	ShowSnapToLiveButton bool
	EntryCount           int
	Total                int64
	FocusedID            int64
	HasFocus             bool
	TappingStatus        []hub.PodStatus
	DisplayedStartTime   int64
	ConnState            ConnState
	Snapped              bool
	ScrollAnchor         ScrollAnchor
	JumpToBottom         uint64
}

// View is an immutable snapshot published after every event.
type View struct {
	Signals
	Entries    []hub.Entry
	Filter     string
	Generation uint64
	LeftOffTop Cursor
	Page       PageState
	LastError  error
}

// Signals derives the renderer-facing values for the given connection state.
func (c *Core) Signals(conn ConnState) Signals {
	return Signals{
		IsLoadingTop:         c.page == PageLoading,
		NoMoreDataTop:        c.page == PageExhausted,
		ShowLoadOlderButton:  !c.hasScrollbar && c.leftOffTop.Positive(),
		ShowSnapToLiveButton: !c.snapped || conn != Connected,
		EntryCount:           c.buf.Len(),
		Total:                c.meta.Total,
		FocusedID:            c.focusedID,
		HasFocus:             c.hasFocus,
		TappingStatus:        clonePods(c.tapping),
		DisplayedStartTime:   c.displayedStartTime(),
		ConnState:            conn,
		Snapped:              c.snapped,
		ScrollAnchor:         c.anchor,
		JumpToBottom:         c.jumpSeq,
	}
}

// displayedStartTime prefers the truncation timestamp, and is zero until the
// hub reported a start time.
func (c *Core) displayedStartTime() int64 {
	if c.startTime == 0 {
		return 0
	}
	if c.meta.TruncatedTimestamp != 0 {
		return c.meta.TruncatedTimestamp
	}
	return c.startTime
}

// View snapshots the core. Entries share storage with the buffer and must
// not be modified.
func (c *Core) View(conn ConnState) View {
	return View{
		Signals:    c.Signals(conn),
		Entries:    c.buf.View(),
		Filter:     c.filter,
		Generation: c.generation,
		LeftOffTop: c.leftOffTop,
		Page:       c.page,
		LastError:  c.lastErr,
	}
}

// Focused returns the focused entry when it is still buffered.
func (v View) Focused() (hub.Entry, bool) {
	if !v.HasFocus {
		return hub.Entry{}, false
	}
	i, found := slices.BinarySearchFunc(v.Entries, v.FocusedID, func(e hub.Entry, id int64) int {
		return cmp.Compare(e.ID, id)
	})
	if found {
		return v.Entries[i], true
	}
	return hub.Entry{}, false
}
