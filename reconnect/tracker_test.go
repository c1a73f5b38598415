package reconnect

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCancelPreventsExpire(t *testing.T) {
	tr := New()
	id := uuid.New()
	var expired atomic.Bool
	tr.Open(id, func(uuid.UUID) { expired.Store(true) })

	assert.True(t, tr.IsOpen(id))
	assert.True(t, tr.Cancel(id))
	assert.False(t, tr.IsOpen(id))

	time.Sleep(20 * time.Millisecond)
	assert.False(t, expired.Load())
}

func TestCancelOnAbsentSlotReturnsFalse(t *testing.T) {
	tr := New()
	assert.False(t, tr.Cancel(uuid.New()))
}

func TestReopenInvalidatesPriorTimer(t *testing.T) {
	tr := New()
	id := uuid.New()
	var calls atomic.Int32
	tr.Open(id, func(uuid.UUID) { calls.Add(1) })
	tr.Open(id, func(uuid.UUID) { calls.Add(1) })
	assert.True(t, tr.Cancel(id))
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 0, calls.Load())
}
