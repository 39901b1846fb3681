package game

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"blindtest-service/internal/domain"
	"blindtest-service/internal/protocol"
)

// maxPlayerNameLen bounds display names at join time.
const maxPlayerNameLen = 32

// Broadcaster delivers protocol messages to a session's registered channels.
// Implemented by the Registry; sessions call it while holding their own lock,
// so implementations must never block.
type Broadcaster interface {
	Broadcast(gameID string, msg protocol.Message)
	Unicast(gameID, playerID string, msg protocol.Message)
}

// Session drives one run of a quiz from creation to finish. Every mutation
// is serialized by the session mutex; timer expiry and answer convergence
// both funnel through it, so a round can only close once.
type Session struct {
	id    string
	quiz  domain.Quiz
	clock clockwork.Clock
	cfg   Config
	bc    Broadcaster

	mu             sync.Mutex
	state          domain.GameState
	questionIndex  int
	players        map[string]*domain.Player
	joinOrder      []string
	scores         map[string]int
	round          *questionRound
	joinedMidRound map[string]int
	revealTimer    clockwork.Timer
	terminalAt     time.Time
	finalRanking   []domain.FinalScore
}

func newSession(id string, quiz domain.Quiz, clock clockwork.Clock, cfg Config, bc Broadcaster) *Session {
	return &Session{
		id:            id,
		quiz:          quiz,
		clock:         clock,
		cfg:           cfg,
		bc:            bc,
		state:          domain.StateWaiting,
		questionIndex:  -1,
		players:        make(map[string]*domain.Player),
		scores:         make(map[string]int),
		joinedMidRound: make(map[string]int),
	}
}

// ID returns the short game code.
func (s *Session) ID() string { return s.id }

// QuizID returns the id of the quiz this session plays.
func (s *Session) QuizID() string { return s.quiz.ID }

// State returns the current lifecycle state.
func (s *Session) State() domain.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Join adds a player. Late joins during play are accepted; they spectate the
// current round and score on subsequent rounds only.
func (s *Session) Join(name string) (domain.Player, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxPlayerNameLen {
		return domain.Player{}, fmt.Errorf("%w: player name must be 1-%d characters", domain.ErrValidation, maxPlayerNameLen)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return domain.Player{}, domain.ErrGameFinished
	}
	if len(s.players) >= s.cfg.MaxPlayers {
		return domain.Player{}, domain.ErrGameFull
	}

	player := &domain.Player{
		ID:        uuid.NewString(),
		Name:      trimmed,
		Connected: true,
		JoinedAt:  s.clock.Now(),
	}
	s.players[player.ID] = player
	s.joinOrder = append(s.joinOrder, player.ID)
	s.scores[player.ID] = 0
	if s.state == domain.StatePlaying && s.round != nil && s.round.phase == roundActive {
		// Joined while this question is live: spectate it, score from the next.
		s.joinedMidRound[player.ID] = s.round.index
	}

	s.bc.Broadcast(s.id, protocol.NewPlayerJoined(
		protocol.PlayerInfo{ID: player.ID, Name: player.Name},
		s.rosterLocked(),
	))
	log.Info().Str("game_id", s.id).Str("player_id", player.ID).Str("name", player.Name).Msg("player joined")
	return *player, nil
}

// Start begins question 1. Legal only while waiting with at least one player.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateWaiting {
		return domain.ErrInvalidState
	}
	if len(s.players) == 0 {
		return fmt.Errorf("%w: no players joined", domain.ErrInvalidState)
	}

	s.state = domain.StatePlaying
	s.startRoundLocked(0)
	log.Info().Str("game_id", s.id).Int("questions", len(s.quiz.Questions)).Msg("game started")
	return nil
}

// SubmitAnswer ingests one answer into the active round's ledger, unicasts
// the result to the submitting player, and closes the round early when every
// connected player has answered.
func (s *Session) SubmitAnswer(playerID, text string, timeTaken float64) (domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return domain.Answer{}, domain.ErrGameFinished
	}
	if _, ok := s.players[playerID]; !ok {
		return domain.Answer{}, domain.ErrPlayerNotFound
	}
	if s.state != domain.StatePlaying || s.round == nil || s.round.phase != roundActive {
		return domain.Answer{}, domain.ErrNoActiveRound
	}
	if idx, ok := s.joinedMidRound[playerID]; ok && idx == s.round.index {
		return domain.Answer{}, domain.ErrNoActiveRound
	}

	answer, err := s.round.submit(playerID, text, timeTaken, s.cfg.Scoring)
	if err != nil {
		return domain.Answer{}, err
	}

	s.bc.Unicast(s.id, playerID, protocol.NewAnswerResult(answer.Correct, answer.Points))

	if s.allConnectedAnsweredLocked() {
		s.closeRoundLocked()
	}
	return answer, nil
}

// HandleDisconnect flags a player's channel loss. The player stays in the
// session and an unsubmitted answer simply counts as zero at round close.
func (s *Session) HandleDisconnect(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.players[playerID]
	if !ok || s.state.Terminal() {
		return
	}
	if !player.Connected {
		return
	}
	player.Connected = false
	s.bc.Broadcast(s.id, protocol.NewPlayerDisconnected(playerID))
	log.Info().Str("game_id", s.id).Str("player_id", playerID).Msg("player disconnected")
}

// HasPlayer reports whether the id belongs to a joined player.
func (s *Session) HasPlayer(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.players[playerID]
	return ok
}

// HandleReconnect flips a player back to connected.
func (s *Session) HandleReconnect(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if player, ok := s.players[playerID]; ok && !s.state.Terminal() {
		player.Connected = true
	}
}

// Abort terminates the session immediately. Idempotent: a terminal session
// stays as it is. The final-score computation is skipped.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return
	}
	s.stopTimersLocked()
	s.state = domain.StateAborted
	s.terminalAt = s.clock.Now()
	s.bc.Broadcast(s.id, protocol.NewGameAborted())
	log.Info().Str("game_id", s.id).Msg("game aborted")
}

// TerminalMessage returns the closing broadcast for a terminal session, so a
// client attaching during the grace period still learns how the game ended.
func (s *Session) TerminalMessage() (protocol.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case domain.StateFinished:
		return protocol.NewGameFinished(s.finalRanking), true
	case domain.StateAborted:
		return protocol.NewGameAborted(), true
	}
	return nil, false
}

// TerminalSince reports when the session reached a terminal state; ok is
// false while it is still live.
func (s *Session) TerminalSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Terminal() {
		return time.Time{}, false
	}
	return s.terminalAt, true
}

// startRoundLocked opens round index: broadcasts the question (without its
// answer) and arms the authoritative timer.
func (s *Session) startRoundLocked(index int) {
	question := s.quiz.Questions[index]
	s.questionIndex = index
	s.round = newQuestionRound(index, question, s.clock.Now())

	duration := time.Duration(question.Duration) * time.Second
	s.round.timer = startRoundTimer(s.clock, duration,
		func(remaining time.Duration) {
			s.bc.Broadcast(s.id, protocol.NewTimerTick(remaining.Milliseconds()))
		},
		func() { s.handleRoundTimeout(index) },
	)

	s.bc.Broadcast(s.id, protocol.NewNewQuestion(index+1, len(s.quiz.Questions), question))
}

// handleRoundTimeout is the timer driver's expiry signal. The index guard
// drops stale signals from an already-replaced round.
func (s *Session) handleRoundTimeout(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StatePlaying || s.round == nil {
		return
	}
	if s.round.index != index || s.round.phase != roundActive {
		return
	}
	s.closeRoundLocked()
}

// closeRoundLocked transitions the active round to revealed exactly once:
// stops the timer, merges the ledger into cumulative scores, broadcasts the
// results, and schedules the advance to the next round.
func (s *Session) closeRoundLocked() {
	round := s.round
	if round == nil || round.phase != roundActive {
		return
	}
	round.phase = roundRevealed
	round.timer.Stop()

	for playerID, answer := range round.answers {
		s.scores[playerID] += answer.Points
	}

	delay := s.cfg.RevealDelay
	if delay <= 0 {
		delay = time.Millisecond
	}
	index := round.index
	s.revealTimer = s.clock.AfterFunc(delay, func() { s.advanceAfterReveal(index) })

	s.bc.Broadcast(s.id, protocol.NewQuestionResults(round.question.CorrectAnswer, s.scoresCopyLocked()))
	log.Debug().Str("game_id", s.id).Int("question", round.index+1).Msg("round revealed")
}

// advanceAfterReveal moves from a revealed round to the next question, or to
// the final ranking when the revealed round was the last.
func (s *Session) advanceAfterReveal(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StatePlaying || s.round == nil {
		return
	}
	if s.round.index != index || s.round.phase != roundRevealed {
		return
	}

	next := index + 1
	if next >= len(s.quiz.Questions) {
		s.finishLocked()
		return
	}
	s.startRoundLocked(next)
}

// finishLocked broadcasts the final ranking once: score descending, ties
// broken by earlier join order.
func (s *Session) finishLocked() {
	s.state = domain.StateFinished
	s.terminalAt = s.clock.Now()
	s.round = nil

	ranking := make([]domain.FinalScore, 0, len(s.joinOrder))
	for _, playerID := range s.joinOrder {
		ranking = append(ranking, domain.FinalScore{
			PlayerID: playerID,
			Name:     s.players[playerID].Name,
			Score:    s.scores[playerID],
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Score > ranking[j].Score
	})
	s.finalRanking = ranking

	s.bc.Broadcast(s.id, protocol.NewGameFinished(ranking))
	log.Info().Str("game_id", s.id).Int("players", len(ranking)).Msg("game finished")
}

func (s *Session) stopTimersLocked() {
	if s.round != nil && s.round.timer != nil {
		s.round.timer.Stop()
	}
	if s.revealTimer != nil {
		s.revealTimer.Stop()
	}
}

// allConnectedAnsweredLocked reports whether no connected player is still
// missing an answer for the active round. Mid-round joiners are spectators
// of this round and never hold up convergence.
func (s *Session) allConnectedAnsweredLocked() bool {
	for playerID, player := range s.players {
		if !player.Connected {
			continue
		}
		if idx, ok := s.joinedMidRound[playerID]; ok && idx == s.round.index {
			continue
		}
		if _, ok := s.round.answers[playerID]; !ok {
			return false
		}
	}
	return true
}

func (s *Session) rosterLocked() []protocol.PlayerInfo {
	roster := make([]protocol.PlayerInfo, 0, len(s.joinOrder))
	for _, playerID := range s.joinOrder {
		player := s.players[playerID]
		roster = append(roster, protocol.PlayerInfo{ID: player.ID, Name: player.Name})
	}
	return roster
}

func (s *Session) scoresCopyLocked() map[string]int {
	scores := make(map[string]int, len(s.scores))
	for playerID, score := range s.scores {
		scores[playerID] = score
	}
	return scores
}
