package broadcast

// Server -> client event tags delivered through Bus.Emit / Publisher.
// They live here, rather than in the game, room, or transport packages
// that emit and relay them, because broadcast is the one package all
// three can import without a cycle — this makes the wire protocol for
// these events single-sourced instead of re-declared as bare string
// literals at each call site.
const (
	TagMemberJoined   = "member_joined"
	TagMemberLeft     = "member_left"
	TagWaitingMember  = "waiting_member"
	TagCountdown      = "countdown"
	TagQuestion       = "question"
	TagPlayerAnswered = "player_answered"
	TagResults        = "results"
	TagPodiumStart    = "podium_start"
	TagPodiumPosition = "podium_position"
	TagPodiumComplete = "podium_complete"
	TagGameEnded      = "game_ended"
	TagRoomClosed     = "room_closed"
	TagKicked         = "kicked"
)
