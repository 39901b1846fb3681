package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"blindtest-service/internal/domain"
)

const (
	maxQuestionsPerQuiz = 10
	defaultDurationSec  = 10
	minOptions          = 2
	maxOptions          = 4
)

// CreateQuestionRequest is one question of an authoring request.
type CreateQuestionRequest struct {
	Type          domain.QuestionType `json:"type"`
	YouTubeURL    string              `json:"youtube_url"`
	Options       []string            `json:"options,omitempty"`
	CorrectAnswer string              `json:"correct_answer"`
	Duration      int                 `json:"duration,omitempty"`
}

// CreateQuizRequest is the operator's quiz authoring payload.
type CreateQuizRequest struct {
	Title     string                  `json:"title"`
	Questions []CreateQuestionRequest `json:"questions"`
}

// CreateQuiz validates and stores a new quiz. The tagged question variants
// are checked at construction: multiple choice carries 2-4 options with the
// correct answer among them, free text carries none.
func (s *Service) CreateQuiz(ctx context.Context, req CreateQuizRequest) (domain.Quiz, error) {
	if strings.TrimSpace(req.Title) == "" {
		return domain.Quiz{}, fmt.Errorf("%w: quiz title required", domain.ErrValidation)
	}
	if len(req.Questions) == 0 {
		return domain.Quiz{}, fmt.Errorf("%w: quiz needs at least one question", domain.ErrValidation)
	}
	if len(req.Questions) > maxQuestionsPerQuiz {
		return domain.Quiz{}, fmt.Errorf("%w: at most %d questions per quiz", domain.ErrValidation, maxQuestionsPerQuiz)
	}

	questions := make([]domain.Question, 0, len(req.Questions))
	for i, qr := range req.Questions {
		question, err := buildQuestion(qr)
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, question)
	}

	quiz := domain.Quiz{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(req.Title),
		Questions: questions,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.catalog.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("save quiz: %w", err)
	}
	return quiz, nil
}

func buildQuestion(req CreateQuestionRequest) (domain.Question, error) {
	if strings.TrimSpace(req.YouTubeURL) == "" {
		return domain.Question{}, fmt.Errorf("%w: youtube_url required", domain.ErrValidation)
	}
	if strings.TrimSpace(req.CorrectAnswer) == "" {
		return domain.Question{}, fmt.Errorf("%w: correct_answer required", domain.ErrValidation)
	}
	duration := req.Duration
	if duration == 0 {
		duration = defaultDurationSec
	}
	if duration < 0 {
		return domain.Question{}, fmt.Errorf("%w: duration must be positive", domain.ErrValidation)
	}

	switch req.Type {
	case domain.MultipleChoice:
		if len(req.Options) < minOptions || len(req.Options) > maxOptions {
			return domain.Question{}, fmt.Errorf("%w: multiple_choice needs %d-%d options", domain.ErrValidation, minOptions, maxOptions)
		}
		found := false
		for _, opt := range req.Options {
			if strings.TrimSpace(opt) == "" {
				return domain.Question{}, fmt.Errorf("%w: empty option", domain.ErrValidation)
			}
			if opt == req.CorrectAnswer {
				found = true
			}
		}
		if !found {
			return domain.Question{}, fmt.Errorf("%w: correct_answer must equal one option", domain.ErrValidation)
		}
	case domain.FreeText:
		if len(req.Options) != 0 {
			return domain.Question{}, fmt.Errorf("%w: free_text takes no options", domain.ErrValidation)
		}
	default:
		return domain.Question{}, fmt.Errorf("%w: unknown question type %q", domain.ErrValidation, req.Type)
	}

	return domain.Question{
		ID:            uuid.NewString(),
		Type:          req.Type,
		AudioRef:      ExtractVideoID(req.YouTubeURL),
		YouTubeURL:    req.YouTubeURL,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Duration:      duration,
	}, nil
}
