// Package member implements the per-room member registry: the map of
// participants, their role, score, presence, and seat.
package member

import (
	"github.com/google/uuid"

	"trivion/errs"
)

// Role is a member's privilege level within a room.
type Role string

const (
	Administrator Role = "administrator"
	Player        Role = "player"
)

// Connection is the minimal capability a transport-layer connection
// handle exposes to the rest of the system: a way to push a tagged
// event at a specific subscriber without the member package needing
// to know anything about sockets.
type Connection interface {
	Send(tag string, payload any) error
	ID() string
}

// Member is a participant in one room. Its identifier is assigned once
// and never reused, even across reconnects.
type Member struct {
	ID         uuid.UUID
	Name       string
	Role       Role
	Score      int
	Waiting    bool
	Conn       Connection // nil while in the reconnection window
	LastDelta  int        // score delta from the most recent question
	JoinOrder  int        // monotonically increasing, used for tie-breaks
	LastAnswer uint64     // logical timestamp of the latest awarded answer
}

// Connected reports whether the member currently has a live
// connection attached.
func (m *Member) Connected() bool {
	return m.Conn != nil
}

// View is the public, copyable snapshot of a member used in broadcast
// payloads. It never carries the connection handle.
type View struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	Score     int    `json:"score"`
	Waiting   bool   `json:"waiting"`
	Connected bool   `json:"connected"`
}

func (m *Member) View() View {
	return View{
		ID:        m.ID.String(),
		Name:      m.Name,
		Role:      m.Role,
		Score:     m.Score,
		Waiting:   m.Waiting,
		Connected: m.Connected(),
	}
}

// ValidateName enforces the 1-20 printable-character invariant.
func ValidateName(name string) error {
	n := len([]rune(name))
	if n < 1 || n > 20 {
		return errs.ErrNameInvalid
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return errs.ErrNameInvalid
		}
	}
	return nil
}
