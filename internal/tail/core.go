package tail

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/five82/trawl/internal/buffer"
	"github.com/five82/trawl/internal/hub"
	"github.com/five82/trawl/internal/metrics"
	"github.com/five82/trawl/internal/protocol"
)

const (
	// DefaultPageSize is the number of entries requested per backward fetch.
	DefaultPageSize = 100
	// DefaultFetchTimeout bounds a backward fetch on both ends of the wire.
	DefaultFetchTimeout = 3 * time.Second
)

// PageState tracks backward pagination.
type PageState int

const (
	// PageIdle means no fetch is running and older entries may exist.
	PageIdle PageState = iota
	// PageLoading means one backward fetch is in flight.
	PageLoading
	// PageExhausted means the hub has nothing older or the last fetch failed.
	PageExhausted
)

func (s PageState) String() string {
	switch s {
	case PageIdle:
		return "idle"
	case PageLoading:
		return "loading"
	case PageExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("PageState(%d)", int(s))
	}
}

// ConnState is the live feed lifecycle.
type ConnState int

const (
	// Disconnected means no feed is open.
	Disconnected ConnState = iota
	// Connecting means a dial is in progress.
	Connecting
	// Connected means frames are arriving from the live feed.
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("ConnState(%d)", int(s))
	}
}

// Cursor is an optional entry id boundary.
type Cursor struct {
	Value int64
	Known bool
}

// Positive reports whether the cursor is known and above zero.
func (c Cursor) Positive() bool {
	return c.Known && c.Value > 0
}

func (c Cursor) String() string {
	if !c.Known {
		return "unknown"
	}
	return fmt.Sprintf("%d", c.Value)
}

// Metadata describes the active query across the whole dataset. It is always
// replaced as a unit.
type Metadata struct {
	Total              int64
	TruncatedTimestamp int64
}

// Notifier presents toasts pushed by the hub.
type Notifier interface {
	Notify(protocol.Notification)
}

// CoreConfig configures a Core.
type CoreConfig struct {
	Logger       *slog.Logger
	Notifier     Notifier
	Capacity     int
	PageSize     int
	FetchTimeout time.Duration
}

// Core holds the buffer, both cursors, query metadata and the derived view
// state. It does no I/O and is not safe for concurrent use: the Actor owns it
// and applies one event at a time.
type Core struct {
	log          *slog.Logger
	notifier     Notifier
	buf          *buffer.Buffer
	pageSize     int
	fetchTimeout time.Duration

	filter     string
	generation uint64
	leftOffTop Cursor
	meta       Metadata
	startTime  int64
	page       PageState
	pendingTop bool

	focusedID    int64
	hasFocus     bool
	tapping      []hub.PodStatus
	snapped      bool
	hasScrollbar bool
	anchor       ScrollAnchor
	jumpSeq      uint64
	lastErr      error
}

// NewCore returns an empty core that is snapped to the bottom.
func NewCore(cfg CoreConfig) *Core {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Core{
		log:          log,
		notifier:     cfg.Notifier,
		buf:          buffer.New(cfg.Capacity),
		pageSize:     pageSize,
		fetchTimeout: timeout,
		snapped:      true,
	}
}

// Filter returns the active filter query.
func (c *Core) Filter() string {
	return c.filter
}

// Generation identifies the current filter session.
func (c *Core) Generation() uint64 {
	return c.generation
}

// LeftOffTop returns the backward pagination cursor.
func (c *Core) LeftOffTop() Cursor {
	return c.leftOffTop
}

// LeftOffBottom returns the newest held id, or -1 when empty.
func (c *Core) LeftOffBottom() int64 {
	return c.buf.LeftOffBottom()
}

// PageState returns the pagination state.
func (c *Core) PageState() PageState {
	return c.page
}

// LastError returns the most recent order violation.
func (c *Core) LastError() error {
	return c.lastErr
}

// Reset starts a new session for filter: the buffer, focus, cursors,
// metadata and start time are cleared and the generation advances so that
// results of in-flight fetches are discarded.
func (c *Core) Reset(filter string) {
	c.buf.Reset()
	c.filter = strings.TrimSpace(filter)
	c.generation++
	c.leftOffTop = Cursor{}
	c.meta = Metadata{}
	c.startTime = 0
	c.page = PageIdle
	c.pendingTop = false
	c.focusedID = 0
	c.hasFocus = false
	c.lastErr = nil
	c.snapped = true
	c.jumpSeq++
}

// ApplyMessage routes one decoded live-feed message. An error wrapping
// buffer.ErrOrderViolation means the entry was dropped and the feed can no
// longer be trusted.
func (c *Core) ApplyMessage(msg protocol.Message) error {
	switch m := msg.(type) {
	case protocol.NewEntry:
		return c.appendEntry(m.Entry)
	case protocol.StatusUpdate:
		c.tapping = clonePods(m.Pods)
	case protocol.Notification:
		if c.notifier != nil {
			c.notifier.Notify(m)
		}
	case protocol.QueryMetadataUpdate:
		c.meta = Metadata{Total: m.Total, TruncatedTimestamp: m.TruncatedTimestamp}
		if !c.leftOffTop.Known {
			// Start one below the live window so the first fetch does not repeat it.
			c.leftOffTop = Cursor{Value: m.LeftOff - 1, Known: true}
		}
	case protocol.StartTime:
		c.startTime = m.Timestamp
	default:
		return fmt.Errorf("unhandled message %T", msg)
	}
	return nil
}

func (c *Core) appendEntry(e hub.Entry) error {
	evicted, err := c.buf.Append(e)
	if err != nil {
		metrics.OrderViolations.WithLabelValues("append").Inc()
		c.lastErr = err
		c.log.Error("live entry dropped", "id", e.ID, "tail", c.buf.LeftOffBottom(), "error", err)
		return err
	}
	metrics.EntriesAppended.Inc()

	if !c.hasFocus {
		c.focusedID = e.ID
		c.hasFocus = true
	}
	if evicted == nil {
		return nil
	}

	metrics.EntriesEvicted.Inc()
	c.leftOffTop = Cursor{Value: evicted.ID, Known: true}
	switch c.page {
	case PageExhausted:
		c.page = PageIdle
	case PageLoading:
		// The head the fetch was aimed below is gone; accepting the page
		// would leave a hole above it.
		c.generation++
		c.page = PageIdle
		c.log.Debug("in-flight fetch abandoned after eviction", "evicted", evicted.ID)
	}
	return nil
}

// Focus selects a held entry. It reports false when id is not buffered.
func (c *Core) Focus(id int64) bool {
	if c.buf.Index(id) < 0 {
		return false
	}
	c.focusedID = id
	c.hasFocus = true
	return true
}

// SnapToBottom marks the view snapped and asks it to jump to the newest entry.
func (c *Core) SnapToBottom() {
	c.snapped = true
	c.jumpSeq++
}

// BreakSnap records that the user scrolled away from the newest entry.
func (c *Core) BreakSnap() {
	c.snapped = false
}

// ObserveViewport records whether the rendered list overflows its viewport.
func (c *Core) ObserveViewport(hasScrollbar bool) {
	c.hasScrollbar = hasScrollbar
}

func clonePods(pods []hub.PodStatus) []hub.PodStatus {
	if len(pods) == 0 {
		return nil
	}
	dup := make([]hub.PodStatus, len(pods))
	copy(dup, pods)
	return dup
}
