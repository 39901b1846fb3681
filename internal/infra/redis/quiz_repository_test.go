package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"blindtest-service/internal/domain"
)

type countingLoader struct {
	mu      sync.Mutex
	calls   int
	quizzes map[string]domain.Quiz
}

func (l *countingLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func setupRepo(t *testing.T) (*miniredis.Miniredis, *countingLoader, *QuizRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	loader := &countingLoader{quizzes: map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "80s Hits",
			Questions: []domain.Question{
				{ID: "q1", Type: domain.FreeText, AudioRef: "abc", CorrectAnswer: "Africa", Duration: 10},
			},
		},
	}}
	return mr, loader, NewQuizRepository(client, loader, time.Hour)
}

func TestGetQuizFillsCacheOnce(t *testing.T) {
	ctx := context.Background()
	mr, loader, repo := setupRepo(t)

	quiz, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if quiz.Questions[0].CorrectAnswer != "Africa" {
		t.Fatalf("cached document must keep answers, got %+v", quiz)
	}

	raw, err := mr.Get("quiz:quiz-1")
	if err != nil {
		t.Fatalf("cache key missing: %v", err)
	}
	var cached domain.Quiz
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		t.Fatalf("cache payload not a quiz document: %v", err)
	}
	if cached.ID != "quiz-1" {
		t.Fatalf("unexpected cached quiz %+v", cached)
	}

	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("cache hit must not reach the loader, got %d calls", loader.count())
	}
}

func TestGetQuizReloadsAfterExpiry(t *testing.T) {
	ctx := context.Background()
	mr, loader, repo := setupRepo(t)

	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	mr.FastForward(2 * time.Hour)

	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expired key must reload, got %d calls", loader.count())
	}
}

func TestGetQuizIgnoresCorruptCacheEntry(t *testing.T) {
	ctx := context.Background()
	mr, loader, repo := setupRepo(t)

	if err := mr.Set("quiz:quiz-1", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	quiz, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if quiz.Title != "80s Hits" || loader.count() != 1 {
		t.Fatalf("corrupt entry must fall through to the loader, got %+v (%d calls)", quiz, loader.count())
	}
}

func TestGetQuizPropagatesNotFound(t *testing.T) {
	_, _, repo := setupRepo(t)

	if _, err := repo.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}
