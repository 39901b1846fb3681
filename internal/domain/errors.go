package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrGameNotFound is returned for an unknown game code.
	ErrGameNotFound = errors.New("game not found")
	// ErrPlayerNotFound is returned when a player id is not part of the game.
	ErrPlayerNotFound = errors.New("player not found in game")
	// ErrGameFull is returned when the player cap is reached.
	ErrGameFull = errors.New("game is full")
	// ErrGameFinished is returned for joins or answers after the game ended.
	ErrGameFinished = errors.New("game already finished")
	// ErrInvalidState is returned when an operation is not legal in the
	// session's current state (e.g. start on a playing game).
	ErrInvalidState = errors.New("operation not allowed in current game state")
	// ErrNoActiveRound is returned for answers outside an active round.
	ErrNoActiveRound = errors.New("no active question round")
	// ErrDuplicateAnswer is returned for a second answer in the same round.
	ErrDuplicateAnswer = errors.New("answer already submitted for this round")
	// ErrRegistryFull is returned when no new sessions can be created.
	ErrRegistryFull = errors.New("session registry at capacity")
	// ErrValidation wraps malformed-request failures rejected before any
	// session state is touched.
	ErrValidation = errors.New("validation failed")
)
