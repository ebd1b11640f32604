package tail

import (
	"fmt"

	"github.com/five82/trawl/internal/hub"
	"github.com/five82/trawl/internal/metrics"
)

// FetchRequest is a backward fetch the actor must run.
type FetchRequest struct {
	Generation uint64
	Query      hub.FetchQuery
}

// PageResult is the settled outcome of a FetchRequest.
type PageResult struct {
	Generation uint64
	Page       *hub.EntriesPage
	Err        error
}

// ScrollTop records that the viewport reached the top. The fetch itself is
// started by NextFetch once the gate allows it.
func (c *Core) ScrollTop() {
	if c.page == PageLoading {
		return
	}
	c.pendingTop = true
}

// ScrollAway records that the viewport left the top. It withdraws a pending
// request and clears exhaustion so that returning to the top retries.
func (c *Core) ScrollAway() {
	c.pendingTop = false
	if c.page == PageExhausted {
		c.page = PageIdle
	}
}

// NextFetch starts the automatic fetch when one is pending, pagination is
// idle, and the live feed is not delivering traffic. It returns nil otherwise.
func (c *Core) NextFetch(conn ConnState) *FetchRequest {
	if !c.pendingTop || c.page != PageIdle || conn != Disconnected {
		return nil
	}
	c.pendingTop = false
	return c.begin()
}

// LoadOlder starts a fetch on explicit request, regardless of exhaustion.
// The caller must have closed the live feed first.
func (c *Core) LoadOlder() *FetchRequest {
	if c.page == PageLoading {
		return nil
	}
	c.pendingTop = false
	return c.begin()
}

func (c *Core) begin() *FetchRequest {
	if !c.leftOffTop.Positive() {
		return nil
	}
	c.page = PageLoading
	return &FetchRequest{
		Generation: c.generation,
		Query: hub.FetchQuery{
			LeftOff:   c.leftOffTop.Value,
			Direction: hub.DirectionOlder,
			Query:     c.filter,
			Limit:     c.pageSize,
			Timeout:   c.fetchTimeout,
		},
	}
}

// ApplyPage settles a fetch and returns its metrics result label. A failed
// or incomplete response exhausts pagination without touching the buffer.
// A batch that would break ordering is dropped, recorded as the last error
// and returned; pagination goes back to idle.
func (c *Core) ApplyPage(res PageResult) (string, error) {
	if res.Generation != c.generation || c.page != PageLoading {
		return metrics.PageStale, nil
	}

	page := res.Page
	if res.Err != nil || page == nil || page.Meta == nil || page.Data == nil {
		c.page = PageExhausted
		if res.Err != nil {
			c.log.Warn("backward fetch failed", "left_off", c.leftOffTop.Value, "error", res.Err)
			return metrics.PageError, nil
		}
		return metrics.PageEmpty, nil
	}

	// The hub returns newest first.
	batch := make([]hub.Entry, len(page.Data))
	for i, e := range page.Data {
		batch[len(batch)-1-i] = e
	}
	if err := c.buf.PrependBatch(batch); err != nil {
		metrics.OrderViolations.WithLabelValues("prepend").Inc()
		c.page = PageIdle
		c.lastErr = fmt.Errorf("prepend page below %d: %w", c.leftOffTop.Value, err)
		c.log.Error("backward page dropped", "left_off", c.leftOffTop.Value, "size", len(batch), "error", err)
		return metrics.PageRejected, c.lastErr
	}
	metrics.EntriesPrepended.Add(float64(len(batch)))

	meta := *page.Meta
	c.leftOffTop = Cursor{Value: meta.LeftOff, Known: true}
	c.meta = Metadata{Total: meta.Total, TruncatedTimestamp: meta.TruncatedTimestamp}
	if meta.LeftOff == 0 {
		c.page = PageExhausted
		return metrics.PageExhausted, nil
	}
	c.page = PageIdle
	if len(batch) > 0 {
		c.anchor = ScrollAnchor{Index: len(batch) - 1, Seq: c.anchor.Seq + 1}
	}
	return metrics.PageOK, nil
}
