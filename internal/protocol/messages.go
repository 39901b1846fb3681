// Package protocol defines the wire vocabulary exchanged between the game
// core and every connected role (display, player, operator). It is a pure
// data contract: messages carry only the fields receivers need, and the
// question payload never includes the correct answer.
package protocol

import "blindtest-service/internal/domain"

// Type tags an outbound message.
type Type string

const (
	TypePlayerJoined       Type = "player_joined"
	TypePlayerDisconnected Type = "player_disconnected"
	TypeNewQuestion        Type = "new_question"
	TypeTimerTick          Type = "timer_tick"
	TypeAnswerResult       Type = "answer_result"
	TypeQuestionResults    Type = "question_results"
	TypeGameFinished       Type = "game_finished"
	TypeGameAborted        Type = "game_aborted"
	TypePong               Type = "pong"
)

// Message is any outbound protocol value. Messages are delivered per channel
// in the order the session emits them.
type Message interface {
	MessageType() Type
}

// PlayerInfo is the public view of a player (no connection details).
type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PlayerJoined struct {
	Type    Type         `json:"type"`
	Player  PlayerInfo   `json:"player"`
	Players []PlayerInfo `json:"players"`
}

func (m PlayerJoined) MessageType() Type { return m.Type }

// NewPlayerJoined announces a join together with the full roster.
func NewPlayerJoined(player PlayerInfo, roster []PlayerInfo) PlayerJoined {
	return PlayerJoined{Type: TypePlayerJoined, Player: player, Players: roster}
}

type PlayerDisconnected struct {
	Type     Type   `json:"type"`
	PlayerID string `json:"player_id"`
}

func (m PlayerDisconnected) MessageType() Type { return m.Type }

func NewPlayerDisconnected(playerID string) PlayerDisconnected {
	return PlayerDisconnected{Type: TypePlayerDisconnected, PlayerID: playerID}
}

// QuestionView is the answer-free projection of a question sent to clients.
// Options is present only for multiple choice.
type QuestionView struct {
	Type     domain.QuestionType `json:"type"`
	AudioRef string              `json:"audio_url"`
	Options  []string            `json:"options,omitempty"`
	Duration int                 `json:"duration"`
}

type NewQuestion struct {
	Type           Type         `json:"type"`
	QuestionNumber int          `json:"question_number"`
	TotalQuestions int          `json:"total_questions"`
	Question       QuestionView `json:"question"`
}

func (m NewQuestion) MessageType() Type { return m.Type }

// NewNewQuestion builds the round-opening broadcast. number is 1-based.
func NewNewQuestion(number, total int, q domain.Question) NewQuestion {
	view := QuestionView{
		Type:     q.Type,
		AudioRef: q.AudioRef,
		Duration: q.Duration,
	}
	if q.Type == domain.MultipleChoice {
		view.Options = q.Options
	}
	return NewQuestion{
		Type:           TypeNewQuestion,
		QuestionNumber: number,
		TotalQuestions: total,
		Question:       view,
	}
}

// TimerTick is a presentation convenience; only round expiry is
// authoritative.
type TimerTick struct {
	Type        Type  `json:"type"`
	RemainingMS int64 `json:"remaining_ms"`
}

func (m TimerTick) MessageType() Type { return m.Type }

func NewTimerTick(remainingMS int64) TimerTick {
	return TimerTick{Type: TypeTimerTick, RemainingMS: remainingMS}
}

// AnswerResult is unicast to the submitting player only.
type AnswerResult struct {
	Type         Type `json:"type"`
	IsCorrect    bool `json:"is_correct"`
	PointsEarned int  `json:"points_earned"`
}

func (m AnswerResult) MessageType() Type { return m.Type }

func NewAnswerResult(correct bool, points int) AnswerResult {
	return AnswerResult{Type: TypeAnswerResult, IsCorrect: correct, PointsEarned: points}
}

type QuestionResults struct {
	Type          Type           `json:"type"`
	CorrectAnswer string         `json:"correct_answer"`
	Scores        map[string]int `json:"scores"`
}

func (m QuestionResults) MessageType() Type { return m.Type }

// NewQuestionResults reveals the stored correct answer verbatim together
// with the updated cumulative scores.
func NewQuestionResults(correctAnswer string, scores map[string]int) QuestionResults {
	return QuestionResults{Type: TypeQuestionResults, CorrectAnswer: correctAnswer, Scores: scores}
}

type GameFinished struct {
	Type        Type                `json:"type"`
	FinalScores []domain.FinalScore `json:"final_scores"`
}

func (m GameFinished) MessageType() Type { return m.Type }

func NewGameFinished(ranking []domain.FinalScore) GameFinished {
	return GameFinished{Type: TypeGameFinished, FinalScores: ranking}
}

type GameAborted struct {
	Type Type `json:"type"`
}

func (m GameAborted) MessageType() Type { return m.Type }

func NewGameAborted() GameAborted {
	return GameAborted{Type: TypeGameAborted}
}

type Pong struct {
	Type Type `json:"type"`
}

func (m Pong) MessageType() Type { return m.Type }

func NewPong() Pong {
	return Pong{Type: TypePong}
}

// Inbound is the envelope read from clients. Only ping is meaningful;
// unknown or malformed inbound messages are ignored without touching
// session state.
type Inbound struct {
	Type string `json:"type"`
}

const InboundPing = "ping"
