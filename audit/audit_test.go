package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivion/logging"
)

func TestLogWithNilDBDoesNotPanic(t *testing.T) {
	w, err := NewWriter(nil, logging.Nop())
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		w.Log(Entry{Room: "ABC123", Actor: "admin", Action: "start_game", Outcome: "ok"})
	})
}
