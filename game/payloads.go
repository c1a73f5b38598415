package game

import (
	"trivion/member"
	"trivion/question"
)

// RankingEntry is one row of a ranking payload (results, podium,
// leaderboard).
type RankingEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func rankingOf(members []*member.Member) []RankingEntry {
	out := make([]RankingEntry, len(members))
	for i, m := range members {
		out[i] = RankingEntry{ID: m.ID.String(), Name: m.Name, Score: m.Score}
	}
	return out
}

// QuestionInfo is the player-visible shape of a question — no correct
// index included.
type QuestionInfo struct {
	Text     string    `json:"text"`
	Options  [4]string `json:"options"`
	Deadline int       `json:"deadline"`
}

// CountdownPayload backs the "countdown" tag.
type CountdownPayload struct {
	Seconds int `json:"seconds"`
}

// QuestionPayload backs the "question" tag.
type QuestionPayload struct {
	Question  QuestionInfo `json:"question"`
	Number    int          `json:"number"`
	Total     int          `json:"total"`
	Timestamp uint64       `json:"timestamp"`
}

// PlayerAnsweredPayload backs the "player_answered" tag.
type PlayerAnsweredPayload struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// ResultsPayload backs the "results" tag.
type ResultsPayload struct {
	Ranking []RankingEntry `json:"ranking"`
	Correct int            `json:"correct"`
	Stats   [4]int         `json:"stats"`
}

// PodiumPositionPayload backs the "podium_position" tag.
type PodiumPositionPayload struct {
	Position int          `json:"position"`
	Member   member.View  `json:"member"`
}

// PodiumCompletePayload backs the "podium_complete" tag.
type PodiumCompletePayload struct {
	Ranking []RankingEntry `json:"ranking"`
}

// GameEndedPayload backs the "game_ended" tag.
type GameEndedPayload struct {
	Members []member.View `json:"members"`
}

// StatePayload backs the "state" tag.
type StatePayload struct {
	Phase          Phase         `json:"phase"`
	Members        []member.View `json:"members"`
	Question       *QuestionInfo `json:"question,omitempty"`
	QuestionIndex  int           `json:"question_index"`
	TotalQuestions int           `json:"total_questions"`
}

func toQuestionInfo(q question.Question) QuestionInfo {
	return QuestionInfo{Text: q.Text, Options: q.Options, Deadline: q.DeadlineSeconds}
}
