package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"blindtest-service/internal/domain"
)

// QuizStore persists quizzes as JSONB documents.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}

func (s *QuizStore) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quizzes (id, data, created_at) VALUES ($1, $2::jsonb, $3)
		 ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`,
		quiz.ID, data, quiz.CreatedAt)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM quizzes ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var summaries []domain.QuizSummary
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err != nil {
			return nil, fmt.Errorf("unmarshal quiz: %w", err)
		}
		summaries = append(summaries, quiz.Summary())
	}
	return summaries, rows.Err()
}
