// Package errs defines the closed set of domain error kinds a room can
// surface to a client, per the error handling policy: every one of
// these is delivered as a targeted error event to the originating
// connection and never aborts the room.
package errs

import "fmt"

// Kind is one of the error kinds a room operation can fail with.
type Kind string

const (
	NameInvalid       Kind = "name_invalid"
	NameTaken         Kind = "name_taken"
	AdminExists       Kind = "admin_exists"
	RoomNotFound      Kind = "room_not_found"
	BadPassword       Kind = "bad_password"
	PhaseViolation    Kind = "phase_violation"
	NotAuthorized     Kind = "not_authorized"
	AlreadyAnswered   Kind = "already_answered"
	OptionOutOfRange  Kind = "option_out_of_range"
	CapacityExhausted Kind = "capacity_exhausted"
	NotConnected      Kind = "not_connected"
)

// Error wraps a Kind with a human-readable message safe to show to a
// player.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an *Error for the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Of reports the Kind of err, or "" if err is not an *Error.
func Of(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return ""
}

var (
	ErrNameInvalid       = New(NameInvalid, "name must be 1-20 printable characters")
	ErrNameTaken         = New(NameTaken, "that name is already taken in this room")
	ErrAdminExists       = New(AdminExists, "this room already has an administrator")
	ErrRoomNotFound      = New(RoomNotFound, "room not found")
	ErrBadPassword       = New(BadPassword, "senha incorreta ou ausente")
	ErrPhaseViolation    = New(PhaseViolation, "that command is not valid in the current phase")
	ErrNotAuthorized     = New(NotAuthorized, "only the administrator may do that")
	ErrAlreadyAnswered   = New(AlreadyAnswered, "you already answered this question")
	ErrOptionOutOfRange  = New(OptionOutOfRange, "choice must be between 0 and 3")
	ErrCapacityExhausted = New(CapacityExhausted, "could not allocate a room code, try again")
	ErrNotConnected      = New(NotConnected, "you are not attached to a room")
)
