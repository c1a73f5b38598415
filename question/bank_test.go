package question

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivion/errs"
)

func sample() Question {
	return Question{
		Text:            "2+2",
		Options:         [4]string{"3", "4", "5", "6"},
		Correct:         1,
		DeadlineSeconds: 10,
	}
}

func TestAppendRejectedOutsideLobby(t *testing.T) {
	b := New()
	err := b.Append(sample(), false)
	assert.Equal(t, errs.PhaseViolation, errs.Of(err))
	assert.Equal(t, 0, b.Count())
}

func TestAppendAndGet(t *testing.T) {
	b := New()
	require.NoError(t, b.Append(sample(), true))
	q, ok := b.Get(0)
	require.True(t, ok)
	assert.Equal(t, "2+2", q.Text)
	_, ok = b.Get(1)
	assert.False(t, ok)
}

func TestDeadlineBoundaries(t *testing.T) {
	b := New()
	q := sample()
	q.DeadlineSeconds = 4
	assert.Error(t, b.Append(q, true))

	q.DeadlineSeconds = 5
	assert.NoError(t, b.Append(q, true))

	q.DeadlineSeconds = 61
	assert.Error(t, b.Append(q, true))

	q.DeadlineSeconds = 60
	assert.NoError(t, b.Append(q, true))
}

func TestDefaultDeadline(t *testing.T) {
	b := New()
	q := sample()
	q.DeadlineSeconds = 0
	require.NoError(t, b.Append(q, true))
	got, _ := b.Get(0)
	assert.Equal(t, DefaultDeadline, got.DeadlineSeconds)
}
