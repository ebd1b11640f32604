package state

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/five82/trawl/internal/protocol"
	"github.com/five82/trawl/internal/tail"
)

const (
	defaultToastLifetime = 5 * time.Second
	maxToasts            = 5
)

// Toast is a hub notification waiting to be shown.
type Toast struct {
	ID      uint64
	Kind    string
	Text    string
	Created time.Time
	Expires time.Time
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	View        tail.View
	HasView     bool
	Toasts      []Toast
	LastUpdated time.Time
	Updates     uint64 // Number of views published so far
}

// IsOffline returns true when a view exists but the live feed is down.
func (s Snapshot) IsOffline() bool {
	return s.HasView && s.View.ConnState == tail.Disconnected
}

// Store coordinates the tail actor, which publishes, and the UI, which reads.
// The zero value is ready to use with the real clock.
type Store struct {
	mu       sync.RWMutex
	clock    clockwork.Clock
	snapshot Snapshot
	toasts   []Toast
	nextID   uint64
}

// NewStore returns a store that expires toasts against clock.
func NewStore(clock clockwork.Clock) *Store {
	return &Store{clock: clock}
}

func (s *Store) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

// Publish replaces the stored view. It implements tail.Publisher.
func (s *Store) Publish(v tail.View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.View = v
	s.snapshot.HasView = true
	s.snapshot.LastUpdated = s.now()
	s.snapshot.Updates++
}

// Notify queues a toast. It implements tail.Notifier. A zero AutoClose uses
// the default lifetime; only the newest few toasts are kept.
func (s *Store) Notify(n protocol.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lifetime := n.AutoClose
	if lifetime <= 0 {
		lifetime = defaultToastLifetime
	}
	now := s.now()
	s.nextID++
	s.toasts = append(s.toasts, Toast{
		ID:      s.nextID,
		Kind:    n.Kind,
		Text:    n.Text,
		Created: now,
		Expires: now.Add(lifetime),
	})
	if len(s.toasts) > maxToasts {
		s.toasts = append([]Toast(nil), s.toasts[len(s.toasts)-maxToasts:]...)
	}
}

// Dismiss removes a toast before it expires.
func (s *Store) Dismiss(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.toasts[:0]
	for _, t := range s.toasts {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.toasts = kept
}

// Snapshot returns a copy of the current snapshot with expired toasts pruned.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	kept := s.toasts[:0]
	for _, t := range s.toasts {
		if now.Before(t.Expires) {
			kept = append(kept, t)
		}
	}
	s.toasts = kept

	snap := s.snapshot
	snap.Toasts = cloneToasts(s.toasts)
	return snap
}

func cloneToasts(items []Toast) []Toast {
	if len(items) == 0 {
		return nil
	}
	dup := make([]Toast, len(items))
	copy(dup, items)
	return dup
}
