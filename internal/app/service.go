package app

import (
	"context"

	"blindtest-service/internal/domain"
	"blindtest-service/internal/game"
	"blindtest-service/internal/protocol"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizCatalog is the authoring side of quiz storage.
type QuizCatalog interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
}

// Service bundles the quiz collaborator and the game core behind one facade
// for the transport layer.
type Service struct {
	registry *game.Registry
	quizzes  QuizRepository
	catalog  QuizCatalog
}

func NewService(registry *game.Registry, quizzes QuizRepository, catalog QuizCatalog) *Service {
	return &Service{registry: registry, quizzes: quizzes, catalog: catalog}
}

// GetQuiz returns full quiz content, including correct answers. Transport
// must only expose it on operator surfaces.
func (s *Service) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// ListQuizzes returns quiz summaries for the operator role.
func (s *Service) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	return s.catalog.ListQuizzes(ctx)
}

// CreateGame resolves the quiz and opens a waiting session for it.
func (s *Service) CreateGame(ctx context.Context, quizID string) (*game.Session, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return s.registry.Create(quiz)
}

// JoinGame adds a player to a live session.
func (s *Service) JoinGame(gameID, playerName string) (domain.Player, error) {
	session, err := s.registry.Get(gameID)
	if err != nil {
		return domain.Player{}, err
	}
	return session.Join(playerName)
}

// StartGame begins question 1 of a waiting session.
func (s *Service) StartGame(gameID string) error {
	session, err := s.registry.Get(gameID)
	if err != nil {
		return err
	}
	return session.Start()
}

// SubmitAnswer records one answer for the active round.
func (s *Service) SubmitAnswer(gameID, playerID, answer string, timeTaken float64) (domain.Answer, error) {
	session, err := s.registry.Get(gameID)
	if err != nil {
		return domain.Answer{}, err
	}
	return session.SubmitAnswer(playerID, answer, timeTaken)
}

// AbortGame terminates a session administratively. Idempotent.
func (s *Service) AbortGame(gameID string) error {
	session, err := s.registry.Get(gameID)
	if err != nil {
		return err
	}
	session.Abort()
	return nil
}

// Connect registers a client channel against a game. Player client ids flip
// the player back to connected; passive role ids (tv-display, admin) just
// listen.
func (s *Service) Connect(gameID, clientID string) (<-chan protocol.Message, error) {
	session, err := s.registry.Get(gameID)
	if err != nil {
		return nil, err
	}
	ch, err := s.registry.Register(gameID, clientID)
	if err != nil {
		return nil, err
	}
	if session.HasPlayer(clientID) {
		session.HandleReconnect(clientID)
	}
	return ch, nil
}

// Disconnect unregisters a client channel; a player client is flagged
// disconnected on its session. The channel handle keeps a stale connection's
// cleanup from tearing down a newer one under the same client id.
func (s *Service) Disconnect(gameID, clientID string, ch <-chan protocol.Message) {
	if !s.registry.Unregister(gameID, clientID, ch) {
		return
	}
	if session, err := s.registry.Get(gameID); err == nil && session.HasPlayer(clientID) {
		session.HandleDisconnect(clientID)
	}
}

// Pong answers a client liveness ping on its own channel.
func (s *Service) Pong(gameID, clientID string) {
	s.registry.Unicast(gameID, clientID, protocol.NewPong())
}
