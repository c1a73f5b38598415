// Package room implements the process-wide room registry and the
// per-room object that owns a room's lock, member registry, question
// bank, logical clock, coordinator, and reconnection tracker.
package room

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"trivion/broadcast"
	"trivion/clock"
	"trivion/errs"
	"trivion/game"
	"trivion/logging"
	"trivion/member"
	"trivion/metrics"
	"trivion/question"
	"trivion/reconnect"
)

// Room is a bounded session container: its own members, questions,
// coordinator, and lock. Every exported method acquires the room lock
// itself — callers never need to and must not hold it across a call.
type Room struct {
	mu sync.Mutex

	Code         string
	Name         string
	Public       bool
	passwordHash []byte
	CreatedAt    time.Time

	Members     *member.Registry
	Bank        *question.Bank
	Clock       *clock.Clock
	Coordinator *game.Coordinator
	reconnectTracker *reconnect.Tracker

	bus     broadcast.Emitter
	log     *logging.Logger
	metrics *metrics.Metrics // nil if the process registered none
	onEmpty func(code string) bool // set by the owning Registry, to Registry.Destroy
}

// Summary is the public listing shape for available_rooms.
type Summary struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Players int    `json:"players"`
}

// newRoom builds a Room bound to bus for fan-out. password, if
// non-empty, is hashed immediately; the clear-text value is never
// retained.
func newRoom(code, name string, public bool, password string, bus broadcast.Emitter, log *logging.Logger, m *metrics.Metrics) (*Room, error) {
	r := &Room{
		Code:      code,
		Name:      name,
		Public:    public,
		CreatedAt: time.Now(),
		Members:   member.New(),
		Bank:      question.New(),
		Clock:     clock.New(),
		reconnectTracker: reconnect.New(),
		bus:       bus,
		log:       logging.Room(log, code),
		metrics:   m,
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		r.passwordHash = hash
	}
	pub := broadcast.NewRoomPublisher(bus, code)
	r.Coordinator = game.New(&r.mu, pub, r.Members, r.Bank, r.Clock, r.log)
	return r, nil
}

// WithLock runs fn with the room lock held. The game commands, Kick,
// AddQuestion and SubmitAnswer run through this, so a REST call and
// the equivalent socket command are the same critical section from the
// coordinator's point of view. The read-only accessors and
// Join/Leave/Disconnect/Reconnect take r.mu directly.
func (r *Room) WithLock(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

// checkPassword verifies a join attempt's password against the room's
// hash. A room with no password accepts any value, including empty.
func (r *Room) checkPassword(password string) error {
	if len(r.passwordHash) == 0 {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(r.passwordHash, []byte(password)); err != nil {
		return errs.ErrBadPassword
	}
	return nil
}

// MemberByID looks a member up under the room lock, for callers (the
// transport dispatcher) that only hold a room code and a member id.
func (r *Room) MemberByID(id uuid.UUID) (*member.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Members.Find(id)
}

// IsEmpty reports whether the room currently has no members left.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Members.Empty()
}

// Summary reports the public listing view of the room.
func (r *Room) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Summary{Code: r.Code, Name: r.Name, Players: len(r.Members.Players())}
}

// Join admits a new member with the given role. The room's creator
// joins as Administrator, and so does a join_room request with
// as_admin set; Members.Add rejects a second administrator with
// AdminExists. A player joining after
// the lobby phase is marked waiting and does not affect the running
// session.
func (r *Room) Join(name string, role member.Role, password string, conn member.Connection) (*member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkPassword(password); err != nil {
		return nil, err
	}
	m, err := r.Members.Add(name, role)
	if err != nil {
		return nil, err
	}
	m.Conn = conn
	if conn != nil {
		r.bus.Subscribe(r.Code, m.ID, conn)
		if r.metrics != nil {
			r.metrics.MembersConnected.Inc()
		}
	}
	if role == member.Player && r.Coordinator.Phase() != game.Lobby {
		m.Waiting = true
		r.bus.Emit(r.Code, broadcast.TagWaitingMember, waitingMemberPayload{Member: m.View()})
	} else {
		r.bus.Emit(r.Code, broadcast.TagMemberJoined, memberJoinedPayload{Member: m.View(), Members: r.Members.Snapshot()})
	}
	return m, nil
}

type waitingMemberPayload struct {
	Member member.View `json:"member"`
}

type memberJoinedPayload struct {
	Member  member.View   `json:"member"`
	Members []member.View `json:"members"`
}

// Leave removes a member outright (voluntary leave_room, not a
// disconnect that should get a reconnection window).
func (r *Room) Leave(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeMember(id)
}

// Disconnect opens a reconnection window for id instead of removing it
// immediately, per the heartbeat/reconnection design. Both a heartbeat
// timeout and a send-queue overflow drop can report the same member as
// gone, so a member already in its reconnection window is a no-op
// rather than a second gauge update.
func (r *Room) Disconnect(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.Members.Find(id)
	if !ok || !m.Connected() {
		return
	}
	m.Conn = nil
	r.reconnectTracker.Open(id, r.onReconnectExpired)
	if r.metrics != nil {
		r.metrics.MembersConnected.Dec()
		r.metrics.ReconnectionSlotsOpen.Inc()
	}
}

// onReconnectExpired is the reconnect.Tracker's ExpireFunc: it
// reacquires the room lock itself, as required by the tracker's
// contract, before permanently removing the member.
func (r *Room) onReconnectExpired(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.metrics != nil {
		r.metrics.ReconnectionSlotsOpen.Dec()
	}
	r.removeMember(id)
}

func (r *Room) removeMember(id uuid.UUID) {
	m := r.Members.Remove(id)
	if m == nil {
		return
	}
	r.bus.Unsubscribe(r.Code, id)
	r.Coordinator.OnMemberDeparted(id)
	r.bus.Emit(r.Code, broadcast.TagMemberLeft, memberLeftPayload{Name: m.Name, Members: r.Members.Snapshot()})
	if m.Conn != nil && r.metrics != nil {
		r.metrics.MembersConnected.Dec()
	}
	if r.Members.Empty() && r.onEmpty != nil {
		// Destroy reacquires the room lock through registry.Destroy ->
		// r.destroy, so it must run off this goroutine to avoid
		// relocking a mutex this call is already holding.
		go r.onEmpty(r.Code)
	}
}

type memberLeftPayload struct {
	Name    string        `json:"name"`
	Members []member.View `json:"members"`
}

// Reconnect swaps in a new connection handle for a member still within
// its reconnection window and cancels the slot.
func (r *Room) Reconnect(id uuid.UUID, conn member.Connection) (*member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.Members.Find(id)
	if !ok || !r.reconnectTracker.IsOpen(id) {
		return nil, errs.ErrRoomNotFound
	}
	r.reconnectTracker.Cancel(id)
	m.Conn = conn
	r.bus.Subscribe(r.Code, id, conn)
	if r.metrics != nil {
		r.metrics.ReconnectionSlotsOpen.Dec()
		r.metrics.MembersConnected.Inc()
	}
	return m, nil
}

// Kick removes target outright; only the administrator may call it.
func (r *Room) Kick(actor *member.Member, target uuid.UUID) error {
	return r.WithLock(func() error {
		if actor == nil || actor.Role != member.Administrator {
			return errs.ErrNotAuthorized
		}
		m, ok := r.Members.Find(target)
		if !ok {
			return errs.ErrRoomNotFound
		}
		if conn := m.Conn; conn != nil {
			_ = conn.Send(broadcast.TagKicked, kickedPayload{Reason: "removed by administrator"})
		}
		if r.reconnectTracker.Cancel(target) && r.metrics != nil {
			r.metrics.ReconnectionSlotsOpen.Dec()
		}
		r.removeMember(target)
		return nil
	})
}

type kickedPayload struct {
	Reason string `json:"reason"`
}

type roomClosedPayload struct {
	Reason string `json:"reason"`
}

// Start, Next, NextGame, and End delegate to the coordinator through
// WithLock, the same helper the socket dispatcher and the HTTP
// endpoints both go through, so the two surfaces share one critical
// section per room.
func (r *Room) Start(actor *member.Member) error {
	return r.WithLock(func() error { return r.Coordinator.Start(actor) })
}

func (r *Room) Next(actor *member.Member) error {
	return r.WithLock(func() error { return r.Coordinator.Next(actor) })
}

func (r *Room) NextGame(actor *member.Member) error {
	return r.WithLock(func() error { return r.Coordinator.NextGame(actor) })
}

func (r *Room) End(actor *member.Member) error {
	return r.WithLock(func() error { return r.Coordinator.End(actor) })
}

// SubmitAnswer delegates to the coordinator under the room lock.
func (r *Room) SubmitAnswer(actor *member.Member, choice int, clientTS uint64) error {
	return r.WithLock(func() error {
		if err := r.Coordinator.SubmitAnswer(actor, choice, clientTS); err != nil {
			return err
		}
		if r.metrics != nil {
			r.metrics.AnswersAccepted.Inc()
		}
		return nil
	})
}

// State returns the current coordinator state snapshot.
func (r *Room) State() game.StatePayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Coordinator.State()
}

// AddQuestion appends a question, only while the coordinator is in the
// lobby phase.
func (r *Room) AddQuestion(actor *member.Member, q question.Question) error {
	return r.WithLock(func() error {
		if actor == nil || actor.Role != member.Administrator {
			return errs.ErrNotAuthorized
		}
		return r.Bank.Append(q, r.Coordinator.Phase() == game.Lobby)
	})
}

// Questions returns a copy of the question bank's contents.
func (r *Room) Questions() []question.Question {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Bank.List()
}

// destroy ends any running game (cancelling its timers and emitting
// game_ended), cancels every reconnection slot, emits room_closed to
// every remaining subscriber, then drops every subscriber. Used when
// the registry destroys the room (explicit DELETE, or membership
// reaching zero, in which case the emits are no-ops — nobody is left
// to hear them).
func (r *Room) destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Coordinator.ForceEnd()
	openSlots := r.reconnectTracker.CancelAll()
	r.bus.Emit(r.Code, broadcast.TagRoomClosed, roomClosedPayload{Reason: "room closed"})
	r.bus.CloseRoom(r.Code)
	if r.metrics != nil {
		connected := 0
		for _, m := range r.Members.All() {
			if m.Connected() {
				connected++
			}
		}
		r.metrics.MembersConnected.Sub(float64(connected))
		r.metrics.ReconnectionSlotsOpen.Sub(float64(openSlots))
	}
}
