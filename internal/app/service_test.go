package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"blindtest-service/internal/domain"
	"blindtest-service/internal/game"
	"blindtest-service/internal/protocol"
)

type fakeCatalog struct {
	saved []domain.Quiz
}

func (c *fakeCatalog) SaveQuiz(_ context.Context, quiz domain.Quiz) error {
	c.saved = append(c.saved, quiz)
	return nil
}

func (c *fakeCatalog) ListQuizzes(_ context.Context) ([]domain.QuizSummary, error) {
	summaries := make([]domain.QuizSummary, 0, len(c.saved))
	for _, quiz := range c.saved {
		summaries = append(summaries, quiz.Summary())
	}
	return summaries, nil
}

type fakeRepo map[string]domain.Quiz

func (r fakeRepo) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func newFlowService() *Service {
	repo := fakeRepo{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "80s Hits",
			Questions: []domain.Question{
				{ID: "q1", Type: domain.FreeText, AudioRef: "abc", CorrectAnswer: "Africa", Duration: 10},
			},
		},
	}
	registry := game.NewRegistry(clockwork.NewRealClock(), game.Config{
		RevealDelay: 10 * time.Millisecond,
	})
	return NewService(registry, repo, &fakeCatalog{})
}

func TestServiceGameFlow(t *testing.T) {
	ctx := context.Background()
	service := newFlowService()

	if _, err := service.CreateGame(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}

	session, err := service.CreateGame(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	player, err := service.JoinGame(session.ID(), "Alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.JoinGame("NOPE00", "Bob"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected game not found, got %v", err)
	}

	feed, err := service.Connect(session.ID(), player.ID)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer service.Disconnect(session.ID(), player.ID, feed)

	if err := service.StartGame(session.ID()); err != nil {
		t.Fatalf("start: %v", err)
	}

	answer, err := service.SubmitAnswer(session.ID(), player.ID, "Africa", 1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !answer.Correct || answer.Points != 900 {
		t.Fatalf("expected 900 points, got %+v", answer)
	}

	waitFeed(t, feed, protocol.TypeGameFinished)
	if session.State() != domain.StateFinished {
		t.Fatalf("expected finished, got %v", session.State())
	}
}

func TestServicePongTargetsOneClient(t *testing.T) {
	ctx := context.Background()
	service := newFlowService()

	session, err := service.CreateGame(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	display, err := service.Connect(session.ID(), "tv-display")
	if err != nil {
		t.Fatalf("connect display: %v", err)
	}
	operator, err := service.Connect(session.ID(), "admin")
	if err != nil {
		t.Fatalf("connect operator: %v", err)
	}

	service.Pong(session.ID(), "tv-display")
	waitFeed(t, display, protocol.TypePong)
	select {
	case msg := <-operator:
		t.Fatalf("pong leaked to operator: %v", msg.MessageType())
	case <-time.After(50 * time.Millisecond):
	}
}

func TestServiceDisconnectIgnoresStaleHandle(t *testing.T) {
	ctx := context.Background()
	service := newFlowService()

	session, err := service.CreateGame(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	player, err := service.JoinGame(session.ID(), "Alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	stale, err := service.Connect(session.ID(), player.ID)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	fresh, err := service.Connect(session.ID(), player.ID)
	if err != nil {
		t.Fatalf("reconnect: %v", err)
	}

	// The replaced connection's teardown must not mark the player offline.
	service.Disconnect(session.ID(), player.ID, stale)
	service.Pong(session.ID(), player.ID)
	waitFeed(t, fresh, protocol.TypePong)
}

func waitFeed(t *testing.T, feed <-chan protocol.Message, want protocol.Type) protocol.Message {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-feed:
			if !ok {
				t.Fatalf("feed closed waiting for %q", want)
			}
			if msg.MessageType() == want {
				return msg
			}
		case <-deadline:
			t.Fatalf("no %q message", want)
		}
	}
}
