// Package activity keeps a per-room last-message timestamp used to derive
// the active/inactive flag in statistics. State is in-memory only; a process
// restart resets it, which is acceptable.
package activity

import (
	"sync"
	"time"
)

type Tracker struct {
	mu   sync.RWMutex
	last map[string]time.Time
	now  func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		last: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Record sets the room's last-activity timestamp to now.
func (t *Tracker) Record(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[roomID] = t.now()
}

// IsActive reports whether the room saw activity within the window. A room
// with no recorded activity is inactive.
func (t *Tracker) IsActive(roomID string, window time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	last, ok := t.last[roomID]
	if !ok {
		return false
	}
	return t.now().Sub(last) <= window
}

// Forget drops a room's activity record, used when the room is deleted.
func (t *Tracker) Forget(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, roomID)
}
