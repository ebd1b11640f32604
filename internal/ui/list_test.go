package ui

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/trawl/internal/hub"
	"github.com/five82/trawl/internal/prefs"
	"github.com/five82/trawl/internal/state"
	"github.com/five82/trawl/internal/tail"
)

type fakeController struct {
	calls []string
}

func (f *fakeController) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeController) SetFilter(filter string)           { f.record("filter(%s)", filter) }
func (f *fakeController) ScrollTop()                        { f.record("top") }
func (f *fakeController) ScrollAway()                       { f.record("away") }
func (f *fakeController) LoadOlder()                        { f.record("older") }
func (f *fakeController) SnapToBottom()                     { f.record("snap") }
func (f *fakeController) BreakSnap()                        { f.record("break") }
func (f *fakeController) ObserveViewport(hasScrollbar bool) { f.record("scrollbar(%t)", hasScrollbar) }
func (f *fakeController) Focus(id int64)                    { f.record("focus(%d)", id) }
func (f *fakeController) Close()                            { f.record("close") }

func (f *fakeController) take() []string {
	calls := f.calls
	f.calls = nil
	return calls
}

func entryRange(from, to int64) []hub.Entry {
	var out []hub.Entry
	for id := from; id <= to; id++ {
		out = append(out, hub.Entry{ID: id, Protocol: "http", Method: "GET", Path: "/", Status: 200})
	}
	return out
}

// newTestModel returns a sized model whose list is ten rows high.
func newTestModel(t *testing.T, ctl Controller) Model {
	t.Helper()
	m := New(Options{Controller: ctl})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 10 + tailChromeLines})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func snapshotOf(v tail.View) snapshotMsg {
	return snapshotMsg(state.Snapshot{View: v, HasView: true})
}

func expectCalls(t *testing.T, ctl *fakeController, want ...string) {
	t.Helper()
	if got := ctl.take(); !slices.Equal(got, want) {
		t.Fatalf("controller calls = %v, want %v", got, want)
	}
}

func TestList_InitialReport(t *testing.T) {
	ctl := &fakeController{}
	newTestModel(t, ctl)
	expectCalls(t, ctl, "scrollbar(false)", "away")
}

func TestList_FollowsTailAndReportsTop(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(t, ctl)
	ctl.take()

	v := tail.View{Entries: entryRange(101, 130)}
	v.JumpToBottom = 1
	v.Snapped = true
	m = update(t, m, snapshotOf(v))
	if m.list.offset != 20 {
		t.Fatalf("offset = %d, want 20", m.list.offset)
	}
	expectCalls(t, ctl, "scrollbar(true)")

	m = update(t, m, keyRunes("g"))
	if m.list.offset != 0 || m.list.follow {
		t.Fatalf("after top: offset=%d follow=%t", m.list.offset, m.list.follow)
	}
	expectCalls(t, ctl, "break", "top")

	// A prepended page moves the window to the scroll anchor.
	v.Entries = entryRange(91, 130)
	v.ScrollAnchor = tail.ScrollAnchor{Index: 9, Seq: 1}
	m = update(t, m, snapshotOf(v))
	if m.list.offset != 9 || m.list.topID != 100 {
		t.Fatalf("after prepend: offset=%d top=%d", m.list.offset, m.list.topID)
	}
	expectCalls(t, ctl, "away")

	// Evicting the head keeps the same row on top.
	v.Entries = entryRange(92, 131)
	m = update(t, m, snapshotOf(v))
	if m.list.offset != 8 || m.list.topID != 100 {
		t.Fatalf("after eviction: offset=%d top=%d", m.list.offset, m.list.topID)
	}
	expectCalls(t, ctl)
}

func TestList_LastPageKeepsWindowAtTop(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(t, ctl)
	v := tail.View{Entries: entryRange(101, 130)}
	v.JumpToBottom = 1
	m = update(t, m, snapshotOf(v))
	m = update(t, m, keyRunes("g"))
	ctl.take()

	v.Entries = entryRange(91, 130)
	v.Page = tail.PageExhausted
	v.NoMoreDataTop = true
	m = update(t, m, snapshotOf(v))
	if m.list.offset != 0 || m.list.topID != 91 {
		t.Fatalf("after last page: offset=%d top=%d", m.list.offset, m.list.topID)
	}
	expectCalls(t, ctl)
	if got := m.renderTopIndicator(); !strings.Contains(got, "No more data available") {
		t.Fatalf("top indicator = %q", got)
	}
}

func TestList_SnapToLive(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(t, ctl)
	v := tail.View{Entries: entryRange(1, 50)}
	v.JumpToBottom = 1
	m = update(t, m, snapshotOf(v))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	ctl.take()

	m = update(t, m, keyRunes("G"))
	if !m.list.follow || m.list.offset != 40 {
		t.Fatalf("after snap: follow=%t offset=%d", m.list.follow, m.list.offset)
	}
	expectCalls(t, ctl, "snap")

	// Live appends keep the newest entry in view while following.
	v.Entries = entryRange(1, 55)
	m = update(t, m, snapshotOf(v))
	if m.list.offset != 45 {
		t.Fatalf("offset = %d, want 45", m.list.offset)
	}
}

func TestList_FocusMovesAndBreaksSnap(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(t, ctl)
	v := tail.View{Entries: entryRange(1, 5)}
	v.HasFocus = true
	v.FocusedID = 1
	v.JumpToBottom = 1
	m = update(t, m, snapshotOf(v))
	ctl.take()

	m = update(t, m, keyRunes("j"))
	if m.list.focusID != 2 {
		t.Fatalf("focus = %d, want 2", m.list.focusID)
	}
	expectCalls(t, ctl, "focus(2)")

	m = update(t, m, keyRunes("k"))
	expectCalls(t, ctl, "focus(1)", "break")
	if m.list.follow {
		t.Fatal("moving focus up should break follow")
	}
}

func TestList_LoadOlderOnlyWhenOffered(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(t, ctl)
	v := tail.View{Entries: entryRange(10, 12)}
	m = update(t, m, snapshotOf(v))
	ctl.take()

	m = update(t, m, keyRunes("o"))
	expectCalls(t, ctl)

	v.ShowLoadOlderButton = true
	m = update(t, m, snapshotOf(v))
	update(t, m, keyRunes("o"))
	expectCalls(t, ctl, "older")
}

func TestList_PauseOnlyWhileConnected(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(t, ctl)
	v := tail.View{}
	v.ConnState = tail.Disconnected
	m = update(t, m, snapshotOf(v))
	ctl.take()

	m = update(t, m, keyRunes("p"))
	expectCalls(t, ctl)

	v.ConnState = tail.Connected
	m = update(t, m, snapshotOf(v))
	update(t, m, keyRunes("p"))
	expectCalls(t, ctl, "close")
}

func TestApplyFilter_RestartsAndPersists(t *testing.T) {
	ctl := &fakeController{}
	path := filepath.Join(t.TempDir(), "prefs.toml")
	m := New(Options{Controller: ctl, PrefsPath: path})
	m.list.follow = false

	m.applyFilter("  http and response.status == 500 ")
	expectCalls(t, ctl, "filter(http and response.status == 500)")
	if !m.list.follow {
		t.Fatal("filter change should follow the new tail")
	}

	p, err := prefs.Load(path)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if p.LastFilter != "http and response.status == 500" {
		t.Fatalf("LastFilter = %q", p.LastFilter)
	}
	if !slices.Equal(p.Recent, []string{"http and response.status == 500"}) {
		t.Fatalf("Recent = %q", p.Recent)
	}
}

func TestApplyFilter_UpdatesSuggestions(t *testing.T) {
	m := New(Options{Controller: &fakeController{}, RecentFilters: []string{"dns", "redis"}})

	m.applyFilter("redis")
	if want := []string{"redis", "dns"}; !slices.Equal(m.recent, want) {
		t.Fatalf("recent = %q, want %q", m.recent, want)
	}

	m.applyFilter("")
	if len(m.recent) != 2 {
		t.Fatalf("clearing the filter changed history: %q", m.recent)
	}
}

func TestIndexOf(t *testing.T) {
	entries := entryRange(5, 9)
	if got := indexOf(entries, 7); got != 2 {
		t.Fatalf("indexOf(7) = %d, want 2", got)
	}
	if got := indexOf(entries, 4); got != -1 {
		t.Fatalf("indexOf(4) = %d, want -1", got)
	}
	if got := indexOf(nil, 1); got != -1 {
		t.Fatalf("indexOf(nil) = %d, want -1", got)
	}
}
