package game

import (
	"time"

	"blindtest-service/internal/domain"
)

type roundPhase int

const (
	roundActive roundPhase = iota
	roundRevealed
)

// questionRound is the answer ledger for one question while it is live.
// At most one answer per player is ever accepted; later submissions are
// rejected, never overwritten.
type questionRound struct {
	index     int
	question  domain.Question
	startedAt time.Time
	phase     roundPhase
	answers   map[string]domain.Answer
	timer     *roundTimer
}

func newQuestionRound(index int, q domain.Question, startedAt time.Time) *questionRound {
	return &questionRound{
		index:     index,
		question:  q,
		startedAt: startedAt,
		phase:     roundActive,
		answers:   make(map[string]domain.Answer),
	}
}

// submit scores and records an answer. Correctness is exact string equality
// against the stored correct answer for both question types; TimeTaken only
// scales points and is clamped into the round duration.
func (r *questionRound) submit(playerID, text string, timeTaken float64, rules ScoringRules) (domain.Answer, error) {
	if r.phase != roundActive {
		return domain.Answer{}, domain.ErrNoActiveRound
	}
	if _, dup := r.answers[playerID]; dup {
		return domain.Answer{}, domain.ErrDuplicateAnswer
	}

	answer := domain.Answer{
		PlayerID:  playerID,
		Text:      text,
		TimeTaken: timeTaken,
		Correct:   text == r.question.CorrectAnswer,
	}
	if answer.Correct {
		answer.Points = rules.Points(timeTaken, r.question.Duration)
	}
	r.answers[playerID] = answer
	return answer, nil
}

// ScoringRules is the configurable scoring curve: a correct answer earns
// BasePoints scaled down by the elapsed fraction of the round, floored at
// MinPoints so any correct answer within the round scores positive.
type ScoringRules struct {
	BasePoints int
	MinPoints  int
}

// Points computes the award for a correct answer submitted after timeTaken
// seconds of a durationSec-second round.
func (s ScoringRules) Points(timeTaken float64, durationSec int) int {
	if durationSec <= 0 {
		return s.MinPoints
	}
	fraction := timeTaken / float64(durationSec)
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	points := int(float64(s.BasePoints) * (1 - fraction))
	if points < s.MinPoints {
		return s.MinPoints
	}
	return points
}
