package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivion/clock"
	"trivion/errs"
	"trivion/logging"
	"trivion/member"
	"trivion/question"
)

type fakeConn struct{}

func (fakeConn) Send(tag string, payload any) error { return nil }
func (fakeConn) ID() string                         { return "fake" }

type recordingPublisher struct {
	mu   sync.Mutex
	tags []string
	last map[string]any
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{last: make(map[string]any)}
}

func (p *recordingPublisher) Publish(tag string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tags = append(p.tags, tag)
	p.last[tag] = payload
}

func (p *recordingPublisher) has(tag string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (p *recordingPublisher) waitFor(t *testing.T, tag string, timeout time.Duration) any {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		p.mu.Lock()
		v, ok := p.last[tag]
		p.mu.Unlock()
		if ok {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for tag %q", tag)
	return nil
}

type harness struct {
	mu   sync.Mutex
	reg  *member.Registry
	bank *question.Bank
	clk  *clock.Clock
	pub  *recordingPublisher
	co   *Coordinator
}

func newHarness() *harness {
	h := &harness{
		reg:  member.New(),
		bank: question.New(),
		clk:  clock.New(),
		pub:  newRecordingPublisher(),
	}
	h.co = New(&h.mu, h.pub, h.reg, h.bank, h.clk, logging.Nop())
	return h
}

func (h *harness) lock()   { h.mu.Lock() }
func (h *harness) unlock() { h.mu.Unlock() }

func shrinkTimers(t *testing.T) {
	t.Helper()
	origCountdown, origStep, origFinal := CountdownDuration, PodiumStepDelay, PodiumFinalDelay
	CountdownDuration = 20 * time.Millisecond
	PodiumStepDelay = 10 * time.Millisecond
	PodiumFinalDelay = 10 * time.Millisecond
	t.Cleanup(func() {
		CountdownDuration, PodiumStepDelay, PodiumFinalDelay = origCountdown, origStep, origFinal
	})
}

func TestStartRequiresAdminPlayerAndQuestion(t *testing.T) {
	h := newHarness()
	h.lock()
	admin, err := h.reg.Add("Host", member.Administrator)
	require.NoError(t, err)
	err = h.co.Start(admin)
	assert.Equal(t, errs.PhaseViolation, errs.Of(err), "no player yet")

	player, err := h.reg.Add("Alice", member.Player)
	require.NoError(t, err)
	err = h.co.Start(player)
	assert.Equal(t, errs.NotAuthorized, errs.Of(err))

	err = h.co.Start(admin)
	assert.Equal(t, errs.PhaseViolation, errs.Of(err), "no question yet")
	assert.Equal(t, Lobby, h.co.Phase())
	h.unlock()
}

func TestHappyPathScoring(t *testing.T) {
	shrinkTimers(t)
	h := newHarness()

	h.lock()
	admin, _ := h.reg.Add("Host", member.Administrator)
	alice, _ := h.reg.Add("Alice", member.Player)
	bob, _ := h.reg.Add("Bob", member.Player)
	alice.Conn, bob.Conn = fakeConn{}, fakeConn{}
	require.NoError(t, h.bank.Append(question.Question{
		Text: "2+2", Options: [4]string{"3", "4", "5", "6"}, Correct: 1, DeadlineSeconds: 10,
	}, true))

	require.NoError(t, h.co.Start(admin))
	assert.Equal(t, Countdown, h.co.Phase())
	h.unlock()

	h.pub.waitFor(t, "question", 2*time.Second)

	h.lock()
	assert.Equal(t, Question, h.co.Phase())
	require.NoError(t, h.co.SubmitAnswer(alice, 1, 0))
	require.NoError(t, h.co.SubmitAnswer(bob, 2, 0))
	// both active players answered -> should have collapsed to results already
	assert.Equal(t, Results, h.co.Phase())
	h.unlock()

	assert.Greater(t, alice.Score, 0)
	assert.Equal(t, 0, bob.Score)
}

func TestAlreadyAnsweredRejected(t *testing.T) {
	shrinkTimers(t)
	h := newHarness()
	h.lock()
	admin, _ := h.reg.Add("Host", member.Administrator)
	alice, _ := h.reg.Add("Alice", member.Player)
	// A second player keeps the question open after Alice's first answer.
	bob, _ := h.reg.Add("Bob", member.Player)
	alice.Conn, bob.Conn = fakeConn{}, fakeConn{}
	require.NoError(t, h.bank.Append(question.Question{
		Text: "q", Options: [4]string{"a", "b", "c", "d"}, Correct: 0, DeadlineSeconds: 10,
	}, true))
	require.NoError(t, h.co.Start(admin))
	h.unlock()

	h.pub.waitFor(t, "question", 2*time.Second)

	h.lock()
	require.NoError(t, h.co.SubmitAnswer(alice, 0, 0))
	err := h.co.SubmitAnswer(alice, 1, 0)
	assert.Equal(t, errs.AlreadyAnswered, errs.Of(err))
	h.unlock()
}

func TestTimeoutPath(t *testing.T) {
	shrinkTimers(t)
	h := newHarness()
	h.lock()
	admin, _ := h.reg.Add("Host", member.Administrator)
	_, _ = h.reg.Add("Solo", member.Player)
	require.NoError(t, h.bank.Append(question.Question{
		Text: "q", Options: [4]string{"a", "b", "c", "d"}, Correct: 0, DeadlineSeconds: 5,
	}, true))
	require.NoError(t, h.co.Start(admin))
	h.unlock()

	h.pub.waitFor(t, "question", 2*time.Second)
	v := h.pub.waitFor(t, "results", 7*time.Second)

	h.lock()
	defer h.unlock()
	res := v.(ResultsPayload)
	require.Len(t, res.Ranking, 1)
	assert.Equal(t, 0, res.Ranking[0].Score)
	assert.Equal(t, [4]int{0, 0, 0, 0}, res.Stats)
}

func TestTieBreakOnLogicalTimestamp(t *testing.T) {
	shrinkTimers(t)
	h := newHarness()
	h.lock()
	admin, _ := h.reg.Add("Host", member.Administrator)
	alice, _ := h.reg.Add("Alice", member.Player)
	bob, _ := h.reg.Add("Bob", member.Player)
	alice.Conn, bob.Conn = fakeConn{}, fakeConn{}
	require.NoError(t, h.bank.Append(question.Question{
		Text: "q", Options: [4]string{"a", "b", "c", "d"}, Correct: 0, DeadlineSeconds: 10,
	}, true))
	require.NoError(t, h.co.Start(admin))
	h.unlock()

	h.pub.waitFor(t, "question", 2*time.Second)

	h.lock()
	// Alice answers first (lower logical timestamp), Bob second; both correct.
	require.NoError(t, h.co.SubmitAnswer(alice, 0, 0))
	require.NoError(t, h.co.SubmitAnswer(bob, 0, 0))
	h.unlock()

	ranked := h.reg.Ranked()
	require.Len(t, ranked, 2)
	assert.Equal(t, alice.ID, ranked[0].ID)
	assert.Equal(t, bob.ID, ranked[1].ID)
}

func TestLateJoinerWaits(t *testing.T) {
	shrinkTimers(t)
	h := newHarness()
	h.lock()
	admin, _ := h.reg.Add("Host", member.Administrator)
	_, _ = h.reg.Add("Alice", member.Player)
	require.NoError(t, h.bank.Append(question.Question{
		Text: "q", Options: [4]string{"a", "b", "c", "d"}, Correct: 0, DeadlineSeconds: 10,
	}, true))
	require.NoError(t, h.co.Start(admin))

	bob, err := h.reg.Add("Bob", member.Player)
	require.NoError(t, err)
	h.reg.SetWaiting(bob.ID, true)
	h.unlock()

	h.pub.waitFor(t, "question", 2*time.Second)

	h.lock()
	err = h.co.SubmitAnswer(bob, 0, 0)
	assert.Equal(t, errs.NotAuthorized, errs.Of(err))
	h.unlock()
}

func TestFullSequenceToPodiumAndLeaderboard(t *testing.T) {
	shrinkTimers(t)
	h := newHarness()
	h.lock()
	admin, _ := h.reg.Add("Host", member.Administrator)
	alice, _ := h.reg.Add("Alice", member.Player)
	alice.Conn = fakeConn{}
	require.NoError(t, h.bank.Append(question.Question{
		Text: "q", Options: [4]string{"a", "b", "c", "d"}, Correct: 0, DeadlineSeconds: 10,
	}, true))
	require.NoError(t, h.co.Start(admin))
	h.unlock()

	h.pub.waitFor(t, "question", 2*time.Second)

	h.lock()
	require.NoError(t, h.co.SubmitAnswer(alice, 0, 0))
	require.NoError(t, h.co.Next(admin))
	assert.Equal(t, Podium, h.co.Phase())
	h.unlock()

	h.pub.waitFor(t, "podium_complete", 2*time.Second)

	h.lock()
	assert.Equal(t, Leaderboard, h.co.Phase())
	h.unlock()

	assert.True(t, h.pub.has("podium_start"))
	assert.True(t, h.pub.has("podium_position"))
}

func TestEndResetsToLobby(t *testing.T) {
	shrinkTimers(t)
	h := newHarness()
	h.lock()
	admin, _ := h.reg.Add("Host", member.Administrator)
	alice, _ := h.reg.Add("Alice", member.Player)
	alice.Conn = fakeConn{}
	require.NoError(t, h.bank.Append(question.Question{
		Text: "q", Options: [4]string{"a", "b", "c", "d"}, Correct: 0, DeadlineSeconds: 10,
	}, true))
	require.NoError(t, h.co.Start(admin))
	h.unlock()

	h.pub.waitFor(t, "question", 2*time.Second)

	h.lock()
	require.NoError(t, h.co.SubmitAnswer(alice, 0, 0))
	require.NoError(t, h.co.End(admin))
	assert.Equal(t, Lobby, h.co.Phase())
	assert.Equal(t, 0, alice.Score)
	h.unlock()
}
