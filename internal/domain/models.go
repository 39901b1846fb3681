package domain

import "time"

// QuestionType discriminates how a question is answered.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	FreeText       QuestionType = "free_text"
)

// GameState is the lifecycle state of a game session.
type GameState string

const (
	StateWaiting  GameState = "waiting"
	StatePlaying  GameState = "playing"
	StateFinished GameState = "finished"
	StateAborted  GameState = "aborted"
)

// Terminal reports whether no further transitions are possible from s.
func (s GameState) Terminal() bool {
	return s == StateFinished || s == StateAborted
}

// Question is a single timed audio question. Options is populated only for
// multiple_choice, and the correct answer then equals one option verbatim.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	AudioRef      string       `json:"audio_url"`
	YouTubeURL    string       `json:"youtube_url,omitempty"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
	Duration      int          `json:"duration"`
}

// Quiz is the immutable content a game session is created from.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
}

// QuizSummary is the listing view of a quiz (no questions, no answers).
type QuizSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	QuestionsCount int       `json:"questions_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// Summary strips a quiz down to its listing form.
func (q Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:             q.ID,
		Title:          q.Title,
		QuestionsCount: len(q.Questions),
		CreatedAt:      q.CreatedAt,
	}
}

// Player is a joined participant. Connected flips on channel loss; players
// are never removed while the session is live so late scores still attribute.
type Player struct {
	ID        string
	Name      string
	Connected bool
	JoinedAt  time.Time
}

// Answer is one player's submission for a round. TimeTaken is client-reported
// and only trusted for points scaling, never for correctness.
type Answer struct {
	PlayerID  string
	Text      string
	TimeTaken float64
	Correct   bool
	Points    int
}

// FinalScore is one entry of the end-of-game ranking.
type FinalScore struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}
