package memory

import (
	"context"
	"sort"
	"sync"

	"blindtest-service/internal/domain"
)

// QuizStore is an in-memory quiz catalog, useful for tests and demos or as
// a fallback when no Postgres is configured.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewQuizStore(seed map[string]domain.Quiz) *QuizStore {
	quizzes := make(map[string]domain.Quiz, len(seed))
	for id, quiz := range seed {
		quizzes[id] = quiz
	}
	return &QuizStore{quizzes: quizzes}
}

func (s *QuizStore) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if quiz, ok := s.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (s *QuizStore) SaveQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *QuizStore) ListQuizzes(_ context.Context) ([]domain.QuizSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]domain.QuizSummary, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		summaries = append(summaries, quiz.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries, nil
}
