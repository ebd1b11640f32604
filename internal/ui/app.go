package ui

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/trawl/internal/prefs"
	"github.com/five82/trawl/internal/state"
)

// Controller receives the user's tail actions. *tail.Actor implements it.
type Controller interface {
	SetFilter(filter string)
	ScrollTop()
	ScrollAway()
	LoadOlder()
	SnapToBottom()
	BreakSnap()
	ObserveViewport(hasScrollbar bool)
	Focus(id int64)
	Close()
}

// screen is the active top-level screen.
type screen int

const (
	screenTail screen = iota
	screenDiagnostics
)

// Options configures the UI.
type Options struct {
	Context       context.Context
	Controller    Controller
	Store         *state.Store
	Logger        *slog.Logger
	LogPath       string
	PollTick      time.Duration
	ThemeName     string
	PrefsPath     string
	Filter        string
	// RecentFilters seeds filter input suggestions, most recent first.
	RecentFilters []string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctl       Controller
	store     *state.Store
	log       *slog.Logger
	logPath   string
	prefsPath string
	pollTick  time.Duration
	keys      keyMap

	theme  Theme
	screen screen
	width  int
	height int
	ready  bool

	snapshot state.Snapshot
	list     listState
	spinner  spinner.Model

	showDetail     bool
	detailViewport viewport.Model
	detailID       int64

	editingFilter bool
	filterInput   textinput.Model
	recent        []string

	diag diagState

	showHelp bool
}

// New creates the root model.
func New(opts Options) Model {
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = `e.g. http and response.status == 500`
	ti.CharLimit = 512
	ti.Prompt = "/ "
	ti.SetValue(opts.Filter)
	ti.ShowSuggestions = true
	ti.SetSuggestions(opts.RecentFilters)

	return Model{
		ctl:         opts.Controller,
		store:       opts.Store,
		log:         log,
		logPath:     opts.LogPath,
		prefsPath:   opts.PrefsPath,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(opts.ThemeName),
		screen:      screenTail,
		list:        listState{follow: true},
		spinner:     sp,
		filterInput: ti,
		recent:      slices.Clone(opts.RecentFilters),
		diag:        diagState{follow: true},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick), m.spinner.Tick}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.filterInput.Width = max(m.width-6, 10)
		m.syncList()
		m.updateDetailViewport()
		m.updateDiagViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.syncList()
		m.updateDetailViewport()
		return m, nil

	case diagLinesMsg:
		m.handleDiagLines(msg)
		return m, nil

	case diagErrorMsg:
		m.diag.err = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.editingFilter {
		return m.renderFilterInput()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	switch m.screen {
	case screenDiagnostics:
		b.WriteString(m.renderDiagnostics())
	default:
		b.WriteString(m.renderTail())
	}
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.editingFilter {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs(func(p *prefs.Prefs) { p.Theme = m.theme.Name })
		m.updateDetailViewport()
		return m, nil

	case key.Matches(msg, m.keys.Diagnostics):
		if m.screen == screenDiagnostics {
			m.screen = screenTail
			return m, nil
		}
		m.screen = screenDiagnostics
		m.updateDiagViewport()
		cmd := m.refreshDiagnostics()
		return m, cmd
	}

	switch m.screen {
	case screenDiagnostics:
		return m.handleDiagKey(msg)
	default:
		return m.handleTailKey(msg)
	}
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.screen == screenDiagnostics && m.diag.follow {
		if cmd := m.refreshDiagnostics(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m *Model) savePrefs(mutate func(*prefs.Prefs)) {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Update(m.prefsPath, mutate); err != nil {
		m.log.Warn("saving preferences failed", "path", m.prefsPath, "error", err)
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
