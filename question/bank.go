// Package question implements a room's question bank: an ordered,
// append-only (outside lobby) sequence of questions.
package question

import "trivion/errs"

const (
	MinDeadlineSeconds = 5
	MaxDeadlineSeconds = 60
	DefaultDeadline    = 20
)

// Question is one entry in a room's question bank. Options are
// positional: the correct answer is reported as an index into Options.
type Question struct {
	Text            string    `json:"text"`
	Options         [4]string `json:"options"`
	Correct         int       `json:"correct"`
	DeadlineSeconds int       `json:"time_limit"`
}

// Validate checks the per-question invariants from the data model.
func (q *Question) Validate() error {
	if q.Text == "" {
		return errs.New(errs.NameInvalid, "question text must not be empty")
	}
	for _, o := range q.Options {
		if o == "" {
			return errs.New(errs.NameInvalid, "all four options must be non-empty")
		}
	}
	if q.Correct < 0 || q.Correct > 3 {
		return errs.ErrOptionOutOfRange
	}
	if q.DeadlineSeconds == 0 {
		q.DeadlineSeconds = DefaultDeadline
	}
	if q.DeadlineSeconds < MinDeadlineSeconds || q.DeadlineSeconds > MaxDeadlineSeconds {
		return errs.New(errs.NameInvalid, "time_limit must be between 5 and 60 seconds")
	}
	return nil
}

// Bank is a room's ordered question list. It is mutable only while the
// owning coordinator is in the lobby phase; callers enforce that by
// passing lobbyOK to Append.
type Bank struct {
	questions []Question
}

// New returns an empty bank.
func New() *Bank {
	return &Bank{}
}

// Append adds a validated question to the end of the bank. lobbyOK
// must be true or PhaseViolation is returned — mutation is only legal
// while the coordinator is in lobby.
func (b *Bank) Append(q Question, lobbyOK bool) error {
	if !lobbyOK {
		return errs.ErrPhaseViolation
	}
	if err := q.Validate(); err != nil {
		return err
	}
	b.questions = append(b.questions, q)
	return nil
}

// List returns a copy of the ordered question sequence.
func (b *Bank) List() []Question {
	out := make([]Question, len(b.questions))
	copy(out, b.questions)
	return out
}

// Count returns the number of questions in the bank.
func (b *Bank) Count() int {
	return len(b.questions)
}

// Get returns the question at index, or ok=false if out of range.
func (b *Bank) Get(index int) (Question, bool) {
	if index < 0 || index >= len(b.questions) {
		return Question{}, false
	}
	return b.questions[index], true
}
