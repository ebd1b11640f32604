package tail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/five82/trawl/internal/buffer"
	"github.com/five82/trawl/internal/hub"
	"github.com/five82/trawl/internal/metrics"
	"github.com/five82/trawl/internal/protocol"
)

const eventQueueSize = 256

// Publisher receives a fresh View after every processed event.
type Publisher interface {
	Publish(View)
}

// Config wires an Actor to its collaborators.
type Config struct {
	Logger         *slog.Logger
	Clock          clockwork.Clock
	Fetcher        hub.EntriesFetcher
	Dialer         hub.Dialer
	Publisher      Publisher
	Notifier       Notifier
	BufferCapacity int
	PageSize       int
	FetchTimeout   time.Duration
}

// Validate checks the required collaborators and fills defaults for the
// clock, buffer capacity, page size and fetch timeout.
func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Fetcher == nil {
		return errors.New("fetcher is required")
	}
	if cfg.Dialer == nil {
		return errors.New("dialer is required")
	}
	if cfg.Publisher == nil {
		return errors.New("publisher is required")
	}
	if cfg.BufferCapacity < 0 {
		return errors.New("buffer capacity must not be negative")
	}
	if cfg.PageSize < 0 {
		return errors.New("page size must not be negative")
	}
	if cfg.BufferCapacity == 0 {
		cfg.BufferCapacity = buffer.DefaultCapacity
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

type event any

type (
	openEvent      struct{ filter string }
	scrollEvent    struct{ atTop bool }
	loadOlderEvent struct{}
	snapEvent      struct{}
	breakSnapEvent struct{}
	closeFeedEvent struct{}
	viewportEvent  struct{ hasScrollbar bool }
	focusEvent     struct{ id int64 }
	pageEvent      struct{ result PageResult }
)

type dialedEvent struct {
	connID string
	feed   hub.Feed
	err    error
}

type frameEvent struct {
	connID string
	frame  []byte
}

type feedClosedEvent struct {
	connID string
	err    error
}

// Actor serializes every change to the tail. One goroutine runs Run; live
// frames, fetch results and user actions all arrive as events and are applied
// to completion one at a time.
type Actor struct {
	cfg  Config
	log  *slog.Logger
	core *Core
	conn *ConnectionController

	events  chan event
	done    chan struct{}
	running atomic.Bool
	ctx     context.Context
}

// NewActor validates cfg and builds an actor. Events posted before Run are queued.
func NewActor(cfg Config) (*Actor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Actor{
		cfg:    cfg,
		log:    cfg.Logger,
		events: make(chan event, eventQueueSize),
		done:   make(chan struct{}),
		ctx:    context.Background(),
	}
	a.core = NewCore(CoreConfig{
		Logger:       cfg.Logger,
		Notifier:     cfg.Notifier,
		Capacity:     cfg.BufferCapacity,
		PageSize:     cfg.PageSize,
		FetchTimeout: cfg.FetchTimeout,
	})
	a.conn = newConnectionController(cfg.Dialer, cfg.Logger, a.post)
	return a, nil
}

// Run processes events until ctx is cancelled. The live feed is closed on return.
func (a *Actor) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return errors.New("tail actor already running")
	}
	a.ctx = ctx
	defer close(a.done)
	defer a.conn.Close()

	a.log.Info("tail actor started", "capacity", a.cfg.BufferCapacity, "page_size", a.cfg.PageSize)
	a.publish()
	for {
		select {
		case <-ctx.Done():
			a.log.Info("tail actor stopped")
			return nil
		case ev := <-a.events:
			a.handle(ev)
			a.publish()
		}
	}
}

// Start opens the live feed for filter with a fresh buffer.
func (a *Actor) Start(filter string) { a.post(openEvent{filter: filter}) }

// SetFilter replaces the active filter. The buffer restarts empty.
func (a *Actor) SetFilter(filter string) { a.post(openEvent{filter: filter}) }

// ScrollTop reports that the viewport reached the top.
func (a *Actor) ScrollTop() { a.post(scrollEvent{atTop: true}) }

// ScrollAway reports that the viewport left the top.
func (a *Actor) ScrollAway() { a.post(scrollEvent{atTop: false}) }

// LoadOlder closes the live feed and fetches the page below the top cursor.
func (a *Actor) LoadOlder() { a.post(loadOlderEvent{}) }

// SnapToBottom jumps to the newest entry, resuming the live feed if it is down.
func (a *Actor) SnapToBottom() { a.post(snapEvent{}) }

// BreakSnap reports that the user scrolled up from the newest entry.
func (a *Actor) BreakSnap() { a.post(breakSnapEvent{}) }

// ObserveViewport reports whether the list currently needs a scrollbar.
func (a *Actor) ObserveViewport(hasScrollbar bool) {
	a.post(viewportEvent{hasScrollbar: hasScrollbar})
}

// Focus selects a buffered entry.
func (a *Actor) Focus(id int64) { a.post(focusEvent{id: id}) }

// Close pauses the live feed. Buffer and cursors are kept.
func (a *Actor) Close() { a.post(closeFeedEvent{}) }

func (a *Actor) post(ev event) bool {
	select {
	case a.events <- ev:
		return true
	case <-a.done:
		return false
	}
}

func (a *Actor) handle(ev event) {
	switch ev := ev.(type) {
	case openEvent:
		a.core.Reset(ev.filter)
		a.conn.Open(a.ctx, a.core.Filter())
	case scrollEvent:
		if ev.atTop {
			a.core.ScrollTop()
		} else {
			a.core.ScrollAway()
		}
	case loadOlderEvent:
		a.conn.Close()
		if req := a.core.LoadOlder(); req != nil {
			a.fetch(*req)
		}
	case snapEvent:
		if a.conn.State() == Disconnected {
			a.conn.Open(a.ctx, ResumeQuery(a.core.Filter(), a.core.LeftOffBottom()))
		}
		a.core.SnapToBottom()
	case breakSnapEvent:
		a.core.BreakSnap()
	case viewportEvent:
		a.core.ObserveViewport(ev.hasScrollbar)
	case focusEvent:
		if !a.core.Focus(ev.id) {
			a.log.Debug("focus ignored, entry not buffered", "id", ev.id)
		}
	case closeFeedEvent:
		a.conn.Close()
	case dialedEvent:
		a.conn.established(ev)
	case frameEvent:
		a.applyFrame(ev)
	case feedClosedEvent:
		a.conn.dropped(ev)
	case pageEvent:
		result, err := a.core.ApplyPage(ev.result)
		metrics.PagesFetched.WithLabelValues(result).Inc()
		if result == metrics.PageStale {
			a.log.Debug("stale page discarded", "generation", ev.result.Generation)
		} else if err == nil {
			a.log.Debug("page settled", "result", result, "left_off_top", a.core.LeftOffTop())
		}
	default:
		a.log.Error("unknown tail event", "type", fmt.Sprintf("%T", ev))
	}

	if req := a.core.NextFetch(a.conn.State()); req != nil {
		a.fetch(*req)
	}
}

func (a *Actor) applyFrame(ev frameEvent) {
	if !a.conn.current(ev.connID) {
		a.log.Debug("frame from stale connection dropped", "conn", ev.connID)
		return
	}
	msg, err := protocol.Decode(ev.frame)
	if err != nil {
		metrics.MalformedFrames.Inc()
		a.log.Warn("malformed frame dropped", "conn", ev.connID, "error", err)
		return
	}
	if err := a.core.ApplyMessage(msg); err != nil {
		if errors.Is(err, buffer.ErrOrderViolation) {
			a.log.Error("closing live feed after out of order entry", "conn", a.conn.ID())
			a.conn.Close()
			return
		}
		a.log.Warn("frame not applied", "conn", ev.connID, "type", protocol.Type(msg), "error", err)
	}
}

func (a *Actor) fetch(req FetchRequest) {
	a.log.Debug("fetching older entries", "left_off", req.Query.LeftOff, "generation", req.Generation)
	ctx := a.ctx
	go func() {
		fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
		defer cancel()

		start := a.cfg.Clock.Now()
		page, err := a.cfg.Fetcher.FetchEntries(fetchCtx, req.Query)
		metrics.FetchDuration.Observe(a.cfg.Clock.Since(start).Seconds())
		a.post(pageEvent{result: PageResult{Generation: req.Generation, Page: page, Err: err}})
	}()
}

func (a *Actor) publish() {
	view := a.core.View(a.conn.State())
	metrics.BufferSize.Set(float64(view.EntryCount))
	a.cfg.Publisher.Publish(view)
}
