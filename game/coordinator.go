// Package game implements the per-room game coordinator: the phase
// state machine, the per-question deadline timer, concurrent answer
// scoring, and the podium reveal sequence.
package game

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"trivion/broadcast"
	"trivion/clock"
	"trivion/errs"
	"trivion/logging"
	"trivion/member"
	"trivion/question"
)

// answerRecord is the per-question, per-member record created when an
// answer is accepted or a deadline times a member out. It is never
// mutated after creation.
type answerRecord struct {
	choice     *int // nil means "timeout"
	logicalTS  uint64
	elapsedMS  int64
	points     int
}

// Coordinator is one room's phase state machine. Every exported method
// assumes the owning room's lock is already held by the caller — the
// coordinator does no locking of its own, matching the rule that every
// mutation of room state happens under the room lock.
type Coordinator struct {
	locker sync.Locker
	pub    broadcast.Publisher
	log    *logging.Logger

	members *member.Registry
	bank    *question.Bank
	clk     *clock.Clock

	phase         Phase
	generation    int
	questionIndex int
	question      question.Question
	emittedAt     time.Time
	answers       map[uuid.UUID]*answerRecord
	expected      []uuid.UUID // snapshot of non-waiting player ids at question start

	countdownTimer *time.Timer
	deadlineTimer  *time.Timer
	podiumTimers   []*time.Timer
}

// New builds a Coordinator for one room. locker must be the same lock
// the rest of the room's state is protected by — timer callbacks
// reacquire it before touching anything.
func New(locker sync.Locker, pub broadcast.Publisher, members *member.Registry, bank *question.Bank, clk *clock.Clock, log *logging.Logger) *Coordinator {
	return &Coordinator{
		locker:  locker,
		pub:     pub,
		log:     log,
		members: members,
		bank:    bank,
		clk:     clk,
		phase:   Lobby,
		answers: make(map[uuid.UUID]*answerRecord),
	}
}

// Phase returns the current phase.
func (c *Coordinator) Phase() Phase {
	return c.phase
}

// cancelTimers stops any pending countdown/deadline/podium timers and
// bumps the generation counter so in-flight callbacks observe a
// mismatch and no-op.
func (c *Coordinator) cancelTimers() {
	c.generation++
	if c.countdownTimer != nil {
		c.countdownTimer.Stop()
		c.countdownTimer = nil
	}
	if c.deadlineTimer != nil {
		c.deadlineTimer.Stop()
		c.deadlineTimer = nil
	}
	for _, t := range c.podiumTimers {
		t.Stop()
	}
	c.podiumTimers = nil
}

// schedule runs fn after d, reacquiring the room lock and checking
// that the generation at fire time still matches gen before calling
// fn. A stale callback (the phase already advanced past it) is
// silently dropped.
func (c *Coordinator) schedule(d time.Duration, gen int, fn func()) *time.Timer {
	return time.AfterFunc(d, func() {
		c.locker.Lock()
		defer c.locker.Unlock()
		if c.generation != gen {
			return
		}
		fn()
	})
}

func (c *Coordinator) requireAdmin(actor *member.Member) error {
	if actor == nil || actor.Role != member.Administrator {
		return errs.ErrNotAuthorized
	}
	return nil
}

// Start handles the admin "start" command: lobby -> countdown.
func (c *Coordinator) Start(actor *member.Member) error {
	if err := c.requireAdmin(actor); err != nil {
		return err
	}
	if c.phase != Lobby {
		return errs.ErrPhaseViolation
	}
	if len(c.members.Players()) == 0 {
		return errs.New(errs.PhaseViolation, "need at least one player to start")
	}
	if c.bank.Count() == 0 {
		return errs.New(errs.PhaseViolation, "need at least one question to start")
	}

	c.members.ClearWaiting()
	c.questionIndex = 0
	c.log.Infow("game started", "tag", "START", "players", len(c.members.Players()), "questions", c.bank.Count())
	c.enterCountdown()
	return nil
}

func (c *Coordinator) enterCountdown() {
	c.cancelTimers()
	c.phase = Countdown
	gen := c.generation
	c.countdownTimer = c.schedule(CountdownDuration, gen, c.enterQuestion)
	c.pub.Publish(broadcast.TagCountdown, CountdownPayload{Seconds: int(CountdownDuration / time.Second)})
}

func (c *Coordinator) enterQuestion() {
	q, ok := c.bank.Get(c.questionIndex)
	if !ok {
		// Defensive: a countdown fired with no question at that index.
		c.enterPostResults()
		return
	}
	c.cancelTimers()
	c.phase = Question
	c.question = q
	c.emittedAt = time.Now()
	c.answers = make(map[uuid.UUID]*answerRecord)
	c.expected = nil
	for _, p := range c.members.Players() {
		if !p.Waiting {
			c.expected = append(c.expected, p.ID)
		}
	}

	gen := c.generation
	c.deadlineTimer = c.schedule(time.Duration(q.DeadlineSeconds)*time.Second, gen, c.onQuestionDeadline)

	ts := c.clk.Tick()
	c.pub.Publish(broadcast.TagQuestion, QuestionPayload{
		Question:  toQuestionInfo(q),
		Number:    c.questionIndex + 1,
		Total:     c.bank.Count(),
		Timestamp: ts,
	})
}

// SubmitAnswer handles a player's answer. choice is an option index;
// a value outside [0,3] is rejected here with OptionOutOfRange.
func (c *Coordinator) SubmitAnswer(actor *member.Member, choice int, clientTS uint64) error {
	if c.phase != Question {
		return errs.ErrPhaseViolation
	}
	if actor == nil || actor.Role != member.Player || actor.Waiting || !actor.Connected() {
		return errs.ErrNotAuthorized
	}
	if _, answered := c.answers[actor.ID]; answered {
		return errs.ErrAlreadyAnswered
	}
	if choice < 0 || choice > 3 {
		return errs.ErrOptionOutOfRange
	}

	logicalTS := c.clk.Observe(clientTS)
	elapsed := time.Since(c.emittedAt)
	correct := choice == c.question.Correct
	pts := score(correct, elapsed, time.Duration(c.question.DeadlineSeconds)*time.Second)

	rec := &answerRecord{
		choice:    &choice,
		logicalTS: logicalTS,
		elapsedMS: elapsed.Milliseconds(),
		points:    pts,
	}
	c.answers[actor.ID] = rec
	c.members.AddScore(actor.ID, pts)
	actor.LastAnswer = logicalTS

	c.pub.Publish(broadcast.TagPlayerAnswered, PlayerAnsweredPayload{
		Answered: len(c.answers),
		Total:    c.activeExpectedCount(),
	})

	if len(c.answers) >= c.activeExpectedCount() {
		c.cancelTimers()
		c.enterResults()
	}
	return nil
}

// activeExpectedCount counts expected answerers that are still
// present in the registry — a member permanently removed mid-question
// (reconnection deadline expired) no longer counts towards the total.
func (c *Coordinator) activeExpectedCount() int {
	n := 0
	for _, id := range c.expected {
		if _, ok := c.members.Find(id); ok {
			n++
		}
	}
	return n
}

func (c *Coordinator) onQuestionDeadline() {
	c.log.Debugw("question deadline fired", "tag", "DEADLINE", "index", c.questionIndex)
	c.enterResults()
}

// enterResults marks every expected player who has not answered as a
// timeout, computes and broadcasts the results payload.
func (c *Coordinator) enterResults() {
	c.phase = Results

	for _, id := range c.expected {
		if _, already := c.answers[id]; already {
			continue
		}
		if _, ok := c.members.Find(id); !ok {
			continue
		}
		c.answers[id] = &answerRecord{choice: nil, points: 0}
		c.members.AddScore(id, 0)
	}

	var stats [4]int
	for _, rec := range c.answers {
		if rec.choice != nil {
			stats[*rec.choice]++
		}
	}

	ranking := rankingOf(c.members.Ranked())
	c.pub.Publish(broadcast.TagResults, ResultsPayload{
		Ranking: ranking,
		Correct: c.question.Correct,
		Stats:   stats,
	})
}

// Next handles the admin "next" command: results -> countdown or
// podium.
func (c *Coordinator) Next(actor *member.Member) error {
	if err := c.requireAdmin(actor); err != nil {
		return err
	}
	if c.phase != Results {
		return errs.ErrPhaseViolation
	}
	c.questionIndex++
	if c.questionIndex < c.bank.Count() {
		c.enterCountdown()
		return nil
	}
	c.enterPodium()
	return nil
}

func (c *Coordinator) enterPodium() {
	c.cancelTimers()
	c.phase = Podium
	gen := c.generation
	c.pub.Publish(broadcast.TagPodiumStart, nil)

	ranked := c.members.Ranked()
	n := len(ranked)
	if n > 3 {
		n = 3
	}
	top := ranked[:n]

	// Reveal bottom-up: rank n, n-1, ..., 1, each PodiumStepDelay apart,
	// then podium_complete PodiumFinalDelay after the last reveal.
	var delay time.Duration
	for i := n - 1; i >= 0; i-- {
		position := i + 1
		m := top[i]
		delay += PodiumStepDelay
		d := delay
		c.podiumTimers = append(c.podiumTimers, c.schedule(d, gen, func() {
			c.pub.Publish(broadcast.TagPodiumPosition, PodiumPositionPayload{Position: position, Member: m.View()})
		}))
	}
	finalDelay := delay + PodiumFinalDelay
	c.podiumTimers = append(c.podiumTimers, c.schedule(finalDelay, gen, func() {
		c.enterLeaderboard(ranked)
	}))
}

func (c *Coordinator) enterLeaderboard(ranked []*member.Member) {
	c.phase = Leaderboard
	c.pub.Publish(broadcast.TagPodiumComplete, PodiumCompletePayload{Ranking: rankingOf(ranked)})
}

// enterPostResults is the defensive fallback enterQuestion takes when a
// countdown fires with no question at the current index; it behaves
// like reaching the end of the questions.
func (c *Coordinator) enterPostResults() {
	c.enterPodium()
}

// NextGame handles the admin "back_to_lobby" command: leaderboard ->
// lobby, resetting scores and waiting flags for a fresh session.
func (c *Coordinator) NextGame(actor *member.Member) error {
	if err := c.requireAdmin(actor); err != nil {
		return err
	}
	if c.phase != Leaderboard {
		return errs.ErrPhaseViolation
	}
	c.resetForNewGame()
	c.pub.Publish(broadcast.TagGameEnded, GameEndedPayload{Members: c.members.Snapshot()})
	return nil
}

// End handles the admin "end" command: any phase -> lobby, cancelling
// everything in flight. Resolved open question: End resets scores and
// waiting flags the same way a normal leaderboard -> lobby transition
// does, so a room always starts its next session from a clean slate
// regardless of whether the previous one finished or was aborted.
func (c *Coordinator) End(actor *member.Member) error {
	if err := c.requireAdmin(actor); err != nil {
		return err
	}
	c.cancelTimers()
	c.resetForNewGame()
	c.pub.Publish(broadcast.TagGameEnded, GameEndedPayload{Members: c.members.Snapshot()})
	return nil
}

// ForceEnd is End without the administrator check, for use when the
// owning room itself is being torn down rather than in response to an
// administrator command.
func (c *Coordinator) ForceEnd() {
	c.cancelTimers()
	c.resetForNewGame()
	c.pub.Publish(broadcast.TagGameEnded, GameEndedPayload{Members: c.members.Snapshot()})
}

func (c *Coordinator) resetForNewGame() {
	c.cancelTimers()
	c.phase = Lobby
	c.questionIndex = 0
	c.answers = make(map[uuid.UUID]*answerRecord)
	c.expected = nil
	c.members.ResetScores()
	c.members.ClearWaiting()
}

// State builds the payload for "state" / get_state.
func (c *Coordinator) State() StatePayload {
	sp := StatePayload{
		Phase:          c.phase,
		Members:        c.members.Snapshot(),
		QuestionIndex:  c.questionIndex,
		TotalQuestions: c.bank.Count(),
	}
	if c.phase == Question {
		info := toQuestionInfo(c.question)
		sp.Question = &info
	}
	return sp
}

// OnMemberDeparted lets the room tell the coordinator a member was
// permanently removed (reconnection window expired, or kicked) so an
// in-flight question's expected-answerer count accounts for it
// immediately rather than waiting for the deadline.
func (c *Coordinator) OnMemberDeparted(id uuid.UUID) {
	if c.phase != Question {
		return
	}
	if len(c.answers) >= c.activeExpectedCount() {
		c.cancelTimers()
		c.enterResults()
	}
}
