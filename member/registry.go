package member

import (
	"strings"

	"github.com/google/uuid"

	"trivion/errs"
)

// Registry is the map of members within a single room. Every method is
// expected to be called while the owning room's lock is held; the
// registry itself adds no extra locking, matching the "every mutation
// of room state...performed while holding that lock" rule.
type Registry struct {
	byID  map[uuid.UUID]*Member
	order []uuid.UUID // join order, stable iteration for snapshot()
	next  int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byID: make(map[uuid.UUID]*Member)}
}

// Add creates and inserts a new member. Fails with NameTaken on a
// case-insensitive collision, NameInvalid on a length/charset
// violation, or AdminExists if role is Administrator and one already
// exists.
func (r *Registry) Add(name string, role Role) (*Member, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	lower := strings.ToLower(name)
	for _, id := range r.order {
		if strings.ToLower(r.byID[id].Name) == lower {
			return nil, errs.ErrNameTaken
		}
		if role == Administrator && r.byID[id].Role == Administrator {
			return nil, errs.ErrAdminExists
		}
	}
	m := &Member{
		ID:        uuid.New(),
		Name:      name,
		Role:      role,
		JoinOrder: r.next,
	}
	r.next++
	r.byID[m.ID] = m
	r.order = append(r.order, m.ID)
	return m, nil
}

// Remove deletes a member by id, returning it (or nil if absent).
func (r *Registry) Remove(id uuid.UUID) *Member {
	m, ok := r.byID[id]
	if !ok {
		return nil
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return m
}

// Find looks a member up by id.
func (r *Registry) Find(id uuid.UUID) (*Member, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// FindByName looks a member up case-insensitively by display name.
func (r *Registry) FindByName(name string) (*Member, bool) {
	lower := strings.ToLower(name)
	for _, id := range r.order {
		if strings.ToLower(r.byID[id].Name) == lower {
			return r.byID[id], true
		}
	}
	return nil, false
}

// Len reports the number of members currently registered.
func (r *Registry) Len() int {
	return len(r.order)
}

// Empty reports whether the registry has no members left.
func (r *Registry) Empty() bool {
	return len(r.order) == 0
}

// Administrator returns the room's single administrator, if any.
func (r *Registry) Administrator() (*Member, bool) {
	for _, id := range r.order {
		if r.byID[id].Role == Administrator {
			return r.byID[id], true
		}
	}
	return nil, false
}

// All returns the members in stable join order. The slice is owned by
// the caller but the *Member pointers are shared with the registry.
func (r *Registry) All() []*Member {
	out := make([]*Member, len(r.order))
	for i, id := range r.order {
		out[i] = r.byID[id]
	}
	return out
}

// Players returns only the members with Role == Player, in join order.
func (r *Registry) Players() []*Member {
	var out []*Member
	for _, id := range r.order {
		if m := r.byID[id]; m.Role == Player {
			out = append(out, m)
		}
	}
	return out
}

// ActivePlayers returns connected, non-waiting players. The
// coordinator does not use it: during a question it waits on every
// non-waiting player, connected or not, and times out the absent ones.
func (r *Registry) ActivePlayers() []*Member {
	var out []*Member
	for _, id := range r.order {
		m := r.byID[id]
		if m.Role == Player && !m.Waiting && m.Connected() {
			out = append(out, m)
		}
	}
	return out
}

// Snapshot returns a stable, ordered sequence of public member views,
// safe to emit without holding the room lock since it is a value copy.
func (r *Registry) Snapshot() []View {
	out := make([]View, len(r.order))
	for i, id := range r.order {
		out[i] = r.byID[id].View()
	}
	return out
}

// SetWaiting toggles the waiting flag for a member.
func (r *Registry) SetWaiting(id uuid.UUID, flag bool) {
	if m, ok := r.byID[id]; ok {
		m.Waiting = flag
	}
}

// AddScore adds delta to a member's cumulative score and records it as
// the most recent delta. Scores never go negative.
func (r *Registry) AddScore(id uuid.UUID, delta int) {
	m, ok := r.byID[id]
	if !ok {
		return
	}
	m.LastDelta = delta
	m.Score += delta
	if m.Score < 0 {
		m.Score = 0
	}
}

// ResetScores zeroes every member's cumulative score and last delta,
// used on the leaderboard -> lobby transition that starts a new game.
func (r *Registry) ResetScores() {
	for _, id := range r.order {
		r.byID[id].Score = 0
		r.byID[id].LastDelta = 0
	}
}

// ClearWaiting sets every current member's waiting flag to false,
// freezing the roster as of the start of a session.
func (r *Registry) ClearWaiting() {
	for _, id := range r.order {
		r.byID[id].Waiting = false
	}
}

// Ranked returns players sorted by the tie-break rule: higher score
// first, then lower logical timestamp of the latest awarded answer,
// then earlier join order.
func (r *Registry) Ranked() []*Member {
	players := r.Players()
	out := make([]*Member, len(players))
	copy(out, players)
	sortByRank(out)
	return out
}

func sortByRank(ms []*Member) {
	for i := 1; i < len(ms); i++ {
		j := i
		for j > 0 && less(ms[j], ms[j-1]) {
			ms[j], ms[j-1] = ms[j-1], ms[j]
			j--
		}
	}
}

// less reports whether a ranks strictly above b.
func less(a, b *Member) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.LastAnswer != b.LastAnswer {
		return a.LastAnswer < b.LastAnswer
	}
	return a.JoinOrder < b.JoinOrder
}
