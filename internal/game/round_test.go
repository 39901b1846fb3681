package game

import (
	"errors"
	"testing"
	"time"

	"blindtest-service/internal/domain"
)

var testRules = ScoringRules{BasePoints: 1000, MinPoints: 100}

func TestScoringCurve(t *testing.T) {
	cases := []struct {
		name      string
		timeTaken float64
		duration  int
		want      int
	}{
		{"instant", 0, 10, 1000},
		{"quarter", 2.5, 10, 750},
		{"half", 5, 10, 500},
		{"near end floors at minimum", 9.8, 10, 100},
		{"past duration clamps", 15, 10, 100},
		{"negative clamps", -3, 10, 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := testRules.Points(tc.timeTaken, tc.duration); got != tc.want {
				t.Fatalf("Points(%v, %d) = %d, want %d", tc.timeTaken, tc.duration, got, tc.want)
			}
		})
	}
}

func TestRoundAcceptsOneAnswerPerPlayer(t *testing.T) {
	round := newQuestionRound(0, domain.Question{
		ID:            "q1",
		Type:          domain.FreeText,
		CorrectAnswer: "Daft Punk",
		Duration:      10,
	}, time.Now())

	first, err := round.submit("p1", "Daft Punk", 2, testRules)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !first.Correct || first.Points != 800 {
		t.Fatalf("expected correct answer worth 800, got %+v", first)
	}

	if _, err := round.submit("p1", "Justice", 3, testRules); !errors.Is(err, domain.ErrDuplicateAnswer) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if kept := round.answers["p1"]; kept.Text != "Daft Punk" || kept.Points != 800 {
		t.Fatalf("first answer must be preserved, got %+v", kept)
	}
}

func TestRoundCorrectnessIsExactMatch(t *testing.T) {
	round := newQuestionRound(0, domain.Question{
		ID:            "q1",
		Type:          domain.MultipleChoice,
		Options:       []string{"Africa", "Take On Me"},
		CorrectAnswer: "Africa",
		Duration:      10,
	}, time.Now())

	answer, err := round.submit("p1", "africa", 1, testRules)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if answer.Correct || answer.Points != 0 {
		t.Fatalf("case-mismatched answer must score zero, got %+v", answer)
	}
}

func TestRoundRejectsAfterReveal(t *testing.T) {
	round := newQuestionRound(0, domain.Question{
		ID:            "q1",
		Type:          domain.FreeText,
		CorrectAnswer: "x",
		Duration:      10,
	}, time.Now())
	round.phase = roundRevealed

	if _, err := round.submit("p1", "x", 1, testRules); !errors.Is(err, domain.ErrNoActiveRound) {
		t.Fatalf("expected closed-round rejection, got %v", err)
	}
}
