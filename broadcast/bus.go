// Package broadcast implements the typed publish/fan-out layer that
// delivers tagged server events to every subscriber of a room.
//
// The in-process Bus is deliberately thin: the bounded, backpressured
// per-connection send queue lives in the transport package (the
// adapter "owns the per-connection send queue", per the transport
// adapter's responsibilities) so that a subscriber's Send never blocks
// the room lock the bus is invoked under. The bus's own job is just
// fan-out ordering and isolating a failing subscriber from the rest.
package broadcast

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Subscriber is anything that can receive a tagged, JSON-shaped event.
// Send must not block the caller for longer than a bounded, in-memory
// push; network I/O happens on the subscriber's own task.
type Subscriber interface {
	Send(tag string, payload any) error
}

// DropFunc is invoked, on its own goroutine and after the bus's own
// lock has been released, when a subscriber's Send fails (bounded
// queue overflow, closed connection, etc). The room wiring uses this
// to open the reconnection window for that member — running it off the
// calling goroutine matters because Emit is always called with the
// emitting room's lock held, and the room-side DropFunc reacquires
// that same lock.
type DropFunc func(roomCode string, memberID uuid.UUID)

// Bus is an in-process, per-room fan-out table. Rooms run their
// operations in parallel, each serialized only by its own lock, so the
// table shared across all of them needs a lock of its own.
type Bus struct {
	mu   sync.Mutex
	subs map[string]map[uuid.UUID]Subscriber
	drop DropFunc
}

// New returns a Bus. onDrop may be nil.
func New(onDrop DropFunc) *Bus {
	return &Bus{
		subs: make(map[string]map[uuid.UUID]Subscriber),
		drop: onDrop,
	}
}

// Subscribe registers a subscriber for a room. An administrator is
// subscribed exactly like a player — it receives every player-visible
// event too.
func (b *Bus) Subscribe(roomCode string, memberID uuid.UUID, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.subs[roomCode]
	if !ok {
		m = make(map[uuid.UUID]Subscriber)
		b.subs[roomCode] = m
	}
	m[memberID] = sub
}

// Unsubscribe removes a subscriber. Safe to call even if absent.
func (b *Bus) Unsubscribe(roomCode string, memberID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unsubscribeLocked(roomCode, memberID)
}

func (b *Bus) unsubscribeLocked(roomCode string, memberID uuid.UUID) {
	if m, ok := b.subs[roomCode]; ok {
		delete(m, memberID)
		if len(m) == 0 {
			delete(b.subs, roomCode)
		}
	}
}

// snapshot copies the current subscriber set for roomCode under lock,
// so Send (network I/O) never runs while the table lock is held.
func (b *Bus) snapshot(roomCode string) []uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[roomCode]
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}

func (b *Bus) find(roomCode string, memberID uuid.UUID) (Subscriber, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.subs[roomCode]
	if !ok {
		return nil, false
	}
	sub, ok := m[memberID]
	return sub, ok
}

// Emit delivers tag/payload to every subscriber of roomCode, in a
// deterministic order (by member id) so that repeated emissions within
// one critical section are reproducible for testing. All subscribers
// of one room see events in emission order because Emit is only ever
// called while the room lock is held. A subscriber whose Send fails is
// dropped and reported through DropFunc on its own goroutine, never
// inline — Emit's caller is holding the room lock, and the room-side
// DropFunc needs that same lock back.
func (b *Bus) Emit(roomCode string, tag string, payload any) {
	ids := b.snapshot(roomCode)
	if len(ids) == 0 {
		return
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var failed []uuid.UUID
	for _, id := range ids {
		sub, ok := b.find(roomCode, id)
		if !ok {
			continue
		}
		if err := sub.Send(tag, payload); err != nil {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		b.Unsubscribe(roomCode, id)
		if b.drop != nil {
			go b.drop(roomCode, id)
		}
	}
}

// EmitTo delivers tag/payload to exactly one subscriber — used for
// targeted error responses that must not reach anyone else.
func (b *Bus) EmitTo(roomCode string, memberID uuid.UUID, tag string, payload any) {
	sub, ok := b.find(roomCode, memberID)
	if !ok {
		return
	}
	if err := sub.Send(tag, payload); err != nil {
		b.Unsubscribe(roomCode, memberID)
		if b.drop != nil {
			go b.drop(roomCode, memberID)
		}
	}
}

// CloseRoom drops every subscriber of a room, used when a room is
// destroyed.
func (b *Bus) CloseRoom(roomCode string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, roomCode)
}
