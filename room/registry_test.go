package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivion/broadcast"
	"trivion/errs"
	"trivion/logging"
	"trivion/member"
	"trivion/question"
)

type fakeConn struct{ sent []string }

func (c *fakeConn) Send(tag string, payload any) error { c.sent = append(c.sent, tag); return nil }
func (c *fakeConn) ID() string                          { return "fake" }

func newTestRegistry() *Registry {
	bus := broadcast.New(nil)
	return New(bus, logging.Nop())
}

func TestCreateAllocatesUniqueSixCharCode(t *testing.T) {
	reg := newTestRegistry()
	r, err := reg.Create("Math", true, "")
	require.NoError(t, err)
	assert.Len(t, r.Code, codeLength)

	found, ok := reg.Find(r.Code)
	require.True(t, ok)
	assert.Same(t, r, found)
}

func TestListPublicExcludesPrivateRooms(t *testing.T) {
	reg := newTestRegistry()
	pub, err := reg.Create("Public Room", true, "")
	require.NoError(t, err)
	_, err = reg.Create("Private Room", false, "hunter2")
	require.NoError(t, err)

	summaries := reg.ListPublic()
	require.Len(t, summaries, 1)
	assert.Equal(t, pub.Code, summaries[0].Code)
}

func TestDestroyRemovesRoom(t *testing.T) {
	reg := newTestRegistry()
	r, err := reg.Create("Math", true, "")
	require.NoError(t, err)

	assert.True(t, reg.Destroy(r.Code))
	_, ok := reg.Find(r.Code)
	assert.False(t, ok)
	assert.False(t, reg.Destroy(r.Code))
}

func TestJoinPasswordGate(t *testing.T) {
	reg := newTestRegistry()
	r, err := reg.Create("Private", false, "hunter2")
	require.NoError(t, err)

	_, err = r.Join("Alice", member.Player, "", &fakeConn{})
	assert.Equal(t, errs.BadPassword, errs.Of(err))

	_, err = r.Join("Alice", member.Player, "wrong", &fakeConn{})
	assert.Equal(t, errs.BadPassword, errs.Of(err))

	m, err := r.Join("Alice", member.Player, "hunter2", &fakeConn{})
	require.NoError(t, err)
	assert.Equal(t, "Alice", m.Name)
}

func TestJoinAfterLobbyMarksWaiting(t *testing.T) {
	reg := newTestRegistry()
	r, err := reg.Create("Math", true, "")
	require.NoError(t, err)

	admin, err := r.Join("Host", member.Administrator, "", &fakeConn{})
	require.NoError(t, err)
	_, err = r.Join("Alice", member.Player, "", &fakeConn{})
	require.NoError(t, err)
	require.NoError(t, r.AddQuestion(admin, questionFixture()))
	require.NoError(t, r.Start(admin))

	bob, err := r.Join("Bob", member.Player, "", &fakeConn{})
	require.NoError(t, err)
	assert.True(t, bob.Waiting)
}

func TestKickRequiresAdmin(t *testing.T) {
	reg := newTestRegistry()
	r, err := reg.Create("Math", true, "")
	require.NoError(t, err)

	alice, err := r.Join("Alice", member.Player, "", &fakeConn{})
	require.NoError(t, err)
	bob, err := r.Join("Bob", member.Player, "", &fakeConn{})
	require.NoError(t, err)

	err = r.Kick(alice, bob.ID)
	assert.Equal(t, errs.NotAuthorized, errs.Of(err))
}

func TestKickRemovesMemberAndDestroysEmptyRoom(t *testing.T) {
	reg := newTestRegistry()
	r, err := reg.Create("Math", true, "")
	require.NoError(t, err)

	admin, err := r.Join("Host", member.Administrator, "", &fakeConn{})
	require.NoError(t, err)
	bob, err := r.Join("Bob", member.Player, "", &fakeConn{})
	require.NoError(t, err)

	require.NoError(t, r.Kick(admin, bob.ID))
	_, found := r.Members.Find(bob.ID)
	assert.False(t, found)

	require.NoError(t, r.Kick(admin, admin.ID))
	reg.DestroyIfEmpty(r.Code)
	_, ok := reg.Find(r.Code)
	assert.False(t, ok)
}

func questionFixture() question.Question {
	return question.Question{
		Text: "2+2", Options: [4]string{"3", "4", "5", "6"}, Correct: 1, DeadlineSeconds: 10,
	}
}
