package member

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivion/errs"
)

func TestAddNameTakenCaseInsensitive(t *testing.T) {
	r := New()
	_, err := r.Add("Alice", Player)
	require.NoError(t, err)
	_, err = r.Add("alice", Player)
	assert.Equal(t, errs.NameTaken, errs.Of(err))
}

func TestAddAdminExists(t *testing.T) {
	r := New()
	_, err := r.Add("Host", Administrator)
	require.NoError(t, err)
	_, err = r.Add("Other", Administrator)
	assert.Equal(t, errs.AdminExists, errs.Of(err))
}

func TestAddNameLengthBoundaries(t *testing.T) {
	r := New()
	_, err := r.Add("", Player)
	assert.Equal(t, errs.NameInvalid, errs.Of(err))

	_, err = r.Add("a", Player)
	assert.NoError(t, err)

	twenty := "12345678901234567890"
	require.Len(t, []rune(twenty), 20)
	_, err = r.Add(twenty, Player)
	assert.NoError(t, err)

	twentyOne := twenty + "1"
	_, err = r.Add(twentyOne, Player)
	assert.Equal(t, errs.NameInvalid, errs.Of(err))
}

func TestRankedTieBreak(t *testing.T) {
	r := New()
	a, _ := r.Add("A", Player)
	b, _ := r.Add("B", Player)
	r.AddScore(a.ID, 900)
	r.AddScore(b.ID, 900)
	a.LastAnswer = 5
	b.LastAnswer = 7
	ranked := r.Ranked()
	require.Len(t, ranked, 2)
	assert.Equal(t, a.ID, ranked[0].ID)
	assert.Equal(t, b.ID, ranked[1].ID)
}

func TestRemoveAndEmpty(t *testing.T) {
	r := New()
	m, _ := r.Add("Solo", Player)
	assert.False(t, r.Empty())
	removed := r.Remove(m.ID)
	require.NotNil(t, removed)
	assert.True(t, r.Empty())
	assert.Nil(t, r.Remove(m.ID))
}
