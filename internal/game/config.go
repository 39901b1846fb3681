package game

import "time"

// Config tunes the game core. Zero values are replaced by defaults.
type Config struct {
	// MaxPlayers caps simultaneous players per session.
	MaxPlayers int
	// Scoring is the points curve applied to correct answers.
	Scoring ScoringRules
	// RevealDelay is how long results stay on screen before the next round.
	RevealDelay time.Duration
	// GracePeriod keeps finished sessions around for late redelivery, and
	// bounds how long a channel-less session survives before eviction.
	GracePeriod time.Duration
	// MaxSessions caps live sessions in the registry.
	MaxSessions int
}

// DefaultConfig is the stock tuning: 5 players, 1000 base points, 5 s
// between reveal and the next question.
func DefaultConfig() Config {
	return Config{
		MaxPlayers:  5,
		Scoring:     ScoringRules{BasePoints: 1000, MinPoints: 100},
		RevealDelay: 5 * time.Second,
		GracePeriod: 5 * time.Minute,
		MaxSessions: 100,
	}
}

// withDefaults fills in any unset field.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = def.MaxPlayers
	}
	if c.Scoring.BasePoints <= 0 {
		c.Scoring.BasePoints = def.Scoring.BasePoints
	}
	if c.Scoring.MinPoints <= 0 {
		c.Scoring.MinPoints = def.Scoring.MinPoints
	}
	if c.RevealDelay <= 0 {
		c.RevealDelay = def.RevealDelay
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = def.GracePeriod
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = def.MaxSessions
	}
	return c
}
