package room

import (
	"crypto/rand"
	"sync"

	"trivion/broadcast"
	"trivion/errs"
	"trivion/logging"
	"trivion/metrics"
)

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" // 36 characters
	codeLength      = 6
	maxCollisionTry = 10
)

// Registry is the process-wide table of live rooms. It owns only a
// coarse lock protecting the map itself; once a *Room is found, all
// further serialization happens under that room's own lock, so
// operations in distinct rooms proceed in parallel.
type Registry struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	bus     broadcast.Emitter
	log     *logging.Logger
	metrics *metrics.Metrics
}

// New returns an empty Registry. bus is used to build every created
// room's publisher.
func New(bus broadcast.Emitter, log *logging.Logger) *Registry {
	return &Registry{rooms: make(map[string]*Room), bus: bus, log: log}
}

// SetMetrics attaches a metric set that every room created from this
// point on will update. Calling it is optional — a Registry with no
// metrics attached simply skips every gauge/counter update.
func (reg *Registry) SetMetrics(m *metrics.Metrics) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.metrics = m
}

// Create allocates a unique room code and registers a new Room under
// it. Code allocation is uniform random from a 36-character alphabet,
// retried on collision; after maxCollisionTry consecutive collisions
// it fails with CapacityExhausted.
func (reg *Registry) Create(name string, public bool, password string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var code string
	for tries := 0; ; tries++ {
		if tries >= maxCollisionTry {
			return nil, errs.ErrCapacityExhausted
		}
		c, err := randomCode()
		if err != nil {
			return nil, err
		}
		if _, exists := reg.rooms[c]; !exists {
			code = c
			break
		}
	}

	r, err := newRoom(code, name, public, password, reg.bus, reg.log, reg.metrics)
	if err != nil {
		return nil, err
	}
	r.onEmpty = reg.Destroy
	reg.rooms[code] = r
	if reg.metrics != nil {
		reg.metrics.RoomsActive.Inc()
	}
	return r, nil
}

// Find looks a room up by code.
func (reg *Registry) Find(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[code]
	return r, ok
}

// ListPublic returns summaries of every public room.
func (reg *Registry) ListPublic() []Summary {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		if r.Public {
			rooms = append(rooms, r)
		}
	}
	reg.mu.Unlock()

	out := make([]Summary, len(rooms))
	for i, r := range rooms {
		out[i] = r.Summary()
	}
	return out
}

// Destroy tears a room down: cancels its timers and reconnection
// slots, drops its broadcast subscribers, and removes it from the
// registry. Safe to call on an already-absent code.
func (reg *Registry) Destroy(code string) bool {
	reg.mu.Lock()
	r, ok := reg.rooms[code]
	if ok {
		delete(reg.rooms, code)
	}
	reg.mu.Unlock()
	if !ok {
		return false
	}
	r.destroy()
	if reg.metrics != nil {
		reg.metrics.RoomsActive.Dec()
	}
	return true
}

// DestroyIfEmpty destroys the room if it currently has no members —
// the "when the member set becomes empty the room is destroyed"
// invariant. Callers invoke this right after a departure.
func (reg *Registry) DestroyIfEmpty(code string) {
	r, ok := reg.Find(code)
	if !ok {
		return
	}
	if r.IsEmpty() {
		reg.Destroy(code)
	}
}

func randomCode() (string, error) {
	// Bytes at or above the largest multiple of the alphabet size are
	// discarded, so every character is equally likely.
	limit := 256 - 256%len(codeAlphabet)
	buf := make([]byte, codeLength)
	out := make([]byte, 0, codeLength)
	for len(out) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) < limit && len(out) < codeLength {
				out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			}
		}
	}
	return string(out), nil
}
