// Package buffer holds the ordered, bounded sequence of traffic entries shown by
// the live tail.
//
// Entries are kept strictly ascending by id. Live traffic is appended at the
// tail and bounded by capacity: an append that overflows evicts the head.
// History fetched on demand is prepended below the head and is never capped,
// since memory pressure only comes from the live feed.
//
// A Buffer is not safe for concurrent use. The tail actor owns it and hands
// readers immutable views.
package buffer

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/five82/trawl/internal/hub"
)

// DefaultCapacity is the live-tail bound.
const DefaultCapacity = 10000

// ErrOrderViolation reports an append or prepend that would break strict id order.
var ErrOrderViolation = errors.New("entry order violation")

// Buffer is an ordered entry sequence.
type Buffer struct {
	entries  []hub.Entry
	capacity int
}

// New creates an empty buffer. Non-positive capacity uses DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity}
}

// Capacity returns the live-tail bound.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Len returns the number of held entries.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Empty reports whether the buffer holds nothing.
func (b *Buffer) Empty() bool {
	return len(b.entries) == 0
}

// Append adds e at the tail. When the buffer overflows, the head entry is
// evicted and returned. e.ID must be greater than the current tail id.
func (b *Buffer) Append(e hub.Entry) (*hub.Entry, error) {
	if n := len(b.entries); n > 0 && e.ID <= b.entries[n-1].ID {
		return nil, fmt.Errorf("%w: append id %d after tail id %d", ErrOrderViolation, e.ID, b.entries[n-1].ID)
	}
	b.entries = append(b.entries, e)
	if len(b.entries) <= b.capacity {
		return nil, nil
	}
	evicted := b.entries[0]
	b.entries = b.entries[1:]
	return &evicted, nil
}

// PrependBatch inserts batch below the head. batch must be strictly ascending
// and entirely below the current head id. On error nothing is inserted.
func (b *Buffer) PrependBatch(batch []hub.Entry) error {
	if len(batch) == 0 {
		return nil
	}
	for i := 1; i < len(batch); i++ {
		if batch[i].ID <= batch[i-1].ID {
			return fmt.Errorf("%w: batch not ascending at index %d (id %d after %d)",
				ErrOrderViolation, i, batch[i].ID, batch[i-1].ID)
		}
	}
	if len(b.entries) > 0 {
		last := batch[len(batch)-1].ID
		if head := b.entries[0].ID; last >= head {
			return fmt.Errorf("%w: batch max id %d not below head id %d", ErrOrderViolation, last, head)
		}
	}
	merged := make([]hub.Entry, 0, len(batch)+len(b.entries))
	merged = append(merged, batch...)
	merged = append(merged, b.entries...)
	b.entries = merged
	return nil
}

// Head returns the oldest held entry.
func (b *Buffer) Head() (hub.Entry, bool) {
	if len(b.entries) == 0 {
		return hub.Entry{}, false
	}
	return b.entries[0], true
}

// Tail returns the newest held entry.
func (b *Buffer) Tail() (hub.Entry, bool) {
	if len(b.entries) == 0 {
		return hub.Entry{}, false
	}
	return b.entries[len(b.entries)-1], true
}

// LeftOffBottom returns the newest held id, or -1 when empty.
func (b *Buffer) LeftOffBottom() int64 {
	if tail, ok := b.Tail(); ok {
		return tail.ID
	}
	return -1
}

// Get returns the entry at index i.
func (b *Buffer) Get(i int) (hub.Entry, bool) {
	if i < 0 || i >= len(b.entries) {
		return hub.Entry{}, false
	}
	return b.entries[i], true
}

// Index returns the position of id, or -1.
func (b *Buffer) Index(id int64) int {
	i, found := slices.BinarySearchFunc(b.entries, id, func(e hub.Entry, target int64) int {
		return cmp.Compare(e.ID, target)
	})
	if found {
		return i
	}
	return -1
}

// View returns the held entries without copying. Held positions are never
// rewritten, so the result stays valid and unchanged after later appends,
// evictions or prepends. Callers must not modify it.
func (b *Buffer) View() []hub.Entry {
	n := len(b.entries)
	return b.entries[:n:n]
}

// Entries returns a copy of the held entries, oldest first.
func (b *Buffer) Entries() []hub.Entry {
	if len(b.entries) == 0 {
		return nil
	}
	dup := make([]hub.Entry, len(b.entries))
	copy(dup, b.entries)
	return dup
}

// Reset drops every entry.
func (b *Buffer) Reset() {
	b.entries = nil
}
