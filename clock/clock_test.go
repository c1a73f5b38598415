package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickIncrements(t *testing.T) {
	c := New()
	assert.EqualValues(t, 1, c.Tick())
	assert.EqualValues(t, 2, c.Tick())
	assert.EqualValues(t, 2, c.Current())
}

func TestObserveMergesMax(t *testing.T) {
	c := New()
	c.Tick() // 1
	assert.EqualValues(t, 6, c.Observe(5))
	// observing a stale timestamp still advances by one
	assert.EqualValues(t, 7, c.Observe(0))
}
