package game

import "time"

// Phase is the discrete stage of a room's coordinator.
type Phase string

const (
	Lobby       Phase = "lobby"
	Countdown   Phase = "countdown"
	Question    Phase = "question"
	Results     Phase = "results"
	Podium      Phase = "podium"
	Leaderboard Phase = "leaderboard"
)

// These are vars, not consts, so tests can shrink them; production
// wiring leaves them at the spec's defaults.
var (
	CountdownDuration = 3 * time.Second
	PodiumStepDelay   = 1 * time.Second
	PodiumFinalDelay  = 2 * time.Second
)
