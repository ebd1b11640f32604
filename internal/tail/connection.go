package tail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/five82/trawl/internal/hub"
	"github.com/five82/trawl/internal/metrics"
)

// ResumeQuery builds the filter that asks the hub to continue strictly after
// the newest held entry.
func ResumeQuery(filter string, leftOffBottom int64) string {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return fmt.Sprintf("leftOff(%d)", leftOffBottom)
	}
	return fmt.Sprintf("(%s) and leftOff(%d)", filter, leftOffBottom)
}

// ConnectionController owns the single live feed. Dials and reads run on
// their own goroutines and report back through post, so every state change
// still happens on the actor.
type ConnectionController struct {
	dialer hub.Dialer
	log    *slog.Logger
	post   func(event) bool

	id     string
	state  ConnState
	feed   hub.Feed
	cancel context.CancelFunc
}

func newConnectionController(dialer hub.Dialer, log *slog.Logger, post func(event) bool) *ConnectionController {
	return &ConnectionController{dialer: dialer, log: log, post: post}
}

// State returns the current connection state.
func (cc *ConnectionController) State() ConnState {
	return cc.state
}

// ID returns the correlation id of the current connection, empty when closed.
func (cc *ConnectionController) ID() string {
	return cc.id
}

// Open closes any existing feed and dials a new one with query as the first frame.
func (cc *ConnectionController) Open(ctx context.Context, query string) string {
	cc.Close()

	id := uuid.NewString()
	dialCtx, cancel := context.WithCancel(ctx)
	cc.id = id
	cc.cancel = cancel
	cc.setState(Connecting)
	cc.log.Info("opening live feed", "conn", id, "query", query)

	go func() {
		feed, err := cc.dialer.Dial(dialCtx, query)
		if !cc.post(dialedEvent{connID: id, feed: feed, err: err}) && feed != nil {
			_ = feed.Close()
		}
	}()
	return id
}

// Close shuts the current feed. Frames already queued from it are dropped as stale.
func (cc *ConnectionController) Close() {
	cc.releaseDial()
	if cc.feed != nil {
		if err := cc.feed.Close(); err != nil {
			cc.log.Debug("closing live feed", "conn", cc.id, "error", err)
		}
		cc.feed = nil
		cc.log.Info("live feed closed", "conn", cc.id)
	}
	cc.id = ""
	cc.setState(Disconnected)
}

// current reports whether id belongs to the live connection.
func (cc *ConnectionController) current(id string) bool {
	return id != "" && id == cc.id
}

// established finishes a dial. It reports whether the feed became current.
func (cc *ConnectionController) established(ev dialedEvent) bool {
	if !cc.current(ev.connID) {
		if ev.feed != nil {
			_ = ev.feed.Close()
		}
		return false
	}
	if ev.err != nil {
		cc.releaseDial()
		metrics.Connections.WithLabelValues("failed").Inc()
		cc.log.Warn("live feed dial failed", "conn", ev.connID, "error", ev.err)
		cc.id = ""
		cc.setState(Disconnected)
		return false
	}
	metrics.Connections.WithLabelValues("connected").Inc()
	cc.feed = ev.feed
	cc.setState(Connected)
	cc.log.Info("live feed connected", "conn", ev.connID)

	go cc.read(ev.connID, ev.feed)
	return true
}

func (cc *ConnectionController) read(id string, feed hub.Feed) {
	for {
		frame, err := feed.ReadFrame()
		if err != nil {
			cc.post(feedClosedEvent{connID: id, err: err})
			return
		}
		if !cc.post(frameEvent{connID: id, frame: frame}) {
			_ = feed.Close()
			return
		}
	}
}

// dropped handles the read loop ending. It reports whether the current feed went away.
func (cc *ConnectionController) dropped(ev feedClosedEvent) bool {
	if !cc.current(ev.connID) {
		return false
	}
	cc.log.Warn("live feed dropped", "conn", ev.connID, "error", ev.err)
	cc.releaseDial()
	if cc.feed != nil {
		_ = cc.feed.Close()
		cc.feed = nil
	}
	cc.id = ""
	cc.setState(Disconnected)
	return true
}

// releaseDial cancels the context the current feed was dialed with.
func (cc *ConnectionController) releaseDial() {
	if cc.cancel != nil {
		cc.cancel()
		cc.cancel = nil
	}
}

func (cc *ConnectionController) setState(s ConnState) {
	cc.state = s
	metrics.ConnectionState.Set(float64(s))
}
