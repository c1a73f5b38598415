// Package reconnect implements the grace window a disconnected member
// gets before being permanently removed from a room.
package reconnect

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Window is how long a disconnected member may come back within.
const Window = 10 * time.Second

// ExpireFunc is invoked when a slot's deadline passes without a
// reconnect. It is called on its own goroutine — the implementation
// must acquire whatever room lock it needs itself, the way a timer
// callback reacquires the room lock before touching state.
type ExpireFunc func(memberID uuid.UUID)

// slot tracks one disconnected member. generation lets a reconnect
// invalidate an in-flight timer callback cooperatively, the same
// pattern the per-question deadline timer uses: cancellation flips a
// counter, the stale callback observes the mismatch and returns.
type slot struct {
	deadline   time.Time
	generation int
	timer      *time.Timer
}

// Tracker holds the reconnection slots for one room.
type Tracker struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*slot
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{slots: make(map[uuid.UUID]*slot)}
}

// Open starts a Window-length grace period for memberID. If a slot is
// already open for that member it is replaced (defensive — the
// transport adapter should never call Open twice for a live slot).
func (t *Tracker) Open(memberID uuid.UUID, onExpire ExpireFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.slots[memberID]; ok {
		existing.generation++
		existing.timer.Stop()
	}

	s := &slot{deadline: time.Now().Add(Window)}
	t.slots[memberID] = s
	gen := s.generation
	s.timer = time.AfterFunc(Window, func() {
		t.mu.Lock()
		cur, ok := t.slots[memberID]
		stale := !ok || cur.generation != gen
		if ok && !stale {
			delete(t.slots, memberID)
		}
		t.mu.Unlock()
		if !stale {
			onExpire(memberID)
		}
	})
}

// Cancel discards a member's slot, e.g. on a successful reconnect. It
// reports whether a slot was actually open.
func (t *Tracker) Cancel(memberID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[memberID]
	if !ok {
		return false
	}
	s.generation++
	s.timer.Stop()
	delete(t.slots, memberID)
	return true
}

// IsOpen reports whether memberID currently has a live reconnection
// slot.
func (t *Tracker) IsOpen(memberID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.slots[memberID]
	return ok
}

// Deadline returns the slot's deadline and whether it exists.
func (t *Tracker) Deadline(memberID uuid.UUID) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[memberID]
	if !ok {
		return time.Time{}, false
	}
	return s.deadline, true
}

// CancelAll stops every pending slot, used when a room is destroyed.
// It returns the number of slots that were open, for callers that
// track an open-slots gauge.
func (t *Tracker) CancelAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.slots)
	for id, s := range t.slots {
		s.generation++
		s.timer.Stop()
		delete(t.slots, id)
	}
	return n
}
