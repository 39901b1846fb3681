package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"blindtest-service/internal/domain"
)

type countingLoader struct {
	mu    sync.Mutex
	calls int
	store *QuizStore
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.store.LoadQuiz(ctx, quizID)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func seededStore() *QuizStore {
	return NewQuizStore(map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "80s Hits",
			Questions: []domain.Question{
				{ID: "q1", Type: domain.FreeText, AudioRef: "abc", CorrectAnswer: "Africa", Duration: 10},
			},
		},
	})
}

func TestGetQuizCachesUntilTTL(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{store: seededStore()}
	repo := NewQuizRepository(loader, time.Hour)

	now := time.Now()
	repo.clock = func() time.Time { return now }

	first, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if first.Title != "80s Hits" {
		t.Fatalf("unexpected quiz %+v", first)
	}

	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("cached read must not hit the loader, got %d calls", loader.count())
	}

	// Past the TTL (plus jitter headroom) the loader is consulted again.
	now = now.Add(2 * time.Hour)
	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expired entry must reload, got %d calls", loader.count())
	}
}

func TestGetQuizPropagatesNotFound(t *testing.T) {
	loader := &countingLoader{store: seededStore()}
	repo := NewQuizRepository(loader, time.Hour)

	if _, err := repo.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	// Errors are not cached.
	if _, err := repo.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("error results must not be cached, got %d calls", loader.count())
	}
}

func TestQuizStoreSaveAndList(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore(nil)

	older := domain.Quiz{ID: "a", Title: "first", CreatedAt: time.Now().Add(-time.Hour)}
	newer := domain.Quiz{ID: "b", Title: "second", CreatedAt: time.Now()}
	if err := store.SaveQuiz(ctx, newer); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveQuiz(ctx, older); err != nil {
		t.Fatalf("save: %v", err)
	}

	summaries, err := store.ListQuizzes(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 || summaries[0].ID != "a" || summaries[1].ID != "b" {
		t.Fatalf("expected creation-time order, got %+v", summaries)
	}
}
