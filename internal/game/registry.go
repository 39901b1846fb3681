package game

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"blindtest-service/internal/domain"
	"blindtest-service/internal/protocol"
)

// channelBuffer is the per-client delivery queue depth. A client that falls
// this far behind is treated as a delivery failure and unregistered.
const channelBuffer = 64

// janitorInterval is how often the eviction sweep runs.
const janitorInterval = 30 * time.Second

// Registry maps short game codes to live sessions and to their connected
// client channels, and implements the Broadcaster the sessions emit through.
// It is the only structure shared across sessions.
type Registry struct {
	clock clockwork.Clock
	cfg   Config

	mu         sync.RWMutex
	sessions   map[string]*Session
	channels   map[string]map[string]chan protocol.Message
	emptySince map[string]time.Time
}

func NewRegistry(clock clockwork.Clock, cfg Config) *Registry {
	return &Registry{
		clock:      clock,
		cfg:        cfg.withDefaults(),
		sessions:   make(map[string]*Session),
		channels:   make(map[string]map[string]chan protocol.Message),
		emptySince: make(map[string]time.Time),
	}
}

// Create builds a session for the quiz under a fresh short code. Codes are
// six uppercase characters, retried on collision among live sessions.
func (r *Registry) Create(quiz domain.Quiz) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.cfg.MaxSessions {
		return nil, domain.ErrRegistryFull
	}

	var code string
	for {
		code = newGameCode()
		if _, taken := r.sessions[code]; !taken {
			break
		}
	}

	session := newSession(code, quiz, r.clock, r.cfg, r)
	r.sessions[code] = session
	r.emptySince[code] = r.clock.Now()
	log.Info().Str("game_id", code).Str("quiz_id", quiz.ID).Msg("game created")
	return session, nil
}

// Get looks up a live session by code.
func (r *Registry) Get(gameID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[gameID]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return session, nil
}

// Register attaches a client channel to a game. The returned channel is a
// FIFO of protocol messages; the caller drains it until it is closed. A
// session lingering terminal in its grace period replays its closing message
// to the new channel.
func (r *Registry) Register(gameID, clientID string) (<-chan protocol.Message, error) {
	r.mu.Lock()
	session, ok := r.sessions[gameID]
	if !ok {
		r.mu.Unlock()
		return nil, domain.ErrGameNotFound
	}
	clients, ok := r.channels[gameID]
	if !ok {
		clients = make(map[string]chan protocol.Message)
		r.channels[gameID] = clients
	}
	if old, ok := clients[clientID]; ok {
		// Duplicate connect for the same client id: the newer channel wins.
		close(old)
	}
	ch := make(chan protocol.Message, channelBuffer)
	clients[clientID] = ch
	delete(r.emptySince, gameID)
	r.mu.Unlock()

	if msg, ok := session.TerminalMessage(); ok {
		// Re-check under the lock: the janitor may have evicted the game and
		// closed the channel in the meantime. The fresh buffer cannot block.
		r.mu.RLock()
		if r.channels[gameID][clientID] == ch {
			ch <- msg
		}
		r.mu.RUnlock()
	}
	return ch, nil
}

// Unregister detaches and closes a client channel. When expect is non-nil
// only that exact channel is removed, so a stale connection's cleanup cannot
// tear down its replacement. Reports whether a channel was removed.
func (r *Registry) Unregister(gameID, clientID string, expect <-chan protocol.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unregisterLocked(gameID, clientID, expect)
}

func (r *Registry) unregisterLocked(gameID, clientID string, expect <-chan protocol.Message) bool {
	clients, ok := r.channels[gameID]
	if !ok {
		return false
	}
	ch, ok := clients[clientID]
	if !ok {
		return false
	}
	if expect != nil && (<-chan protocol.Message)(ch) != expect {
		return false
	}
	delete(clients, clientID)
	close(ch)
	if len(clients) == 0 {
		delete(r.channels, gameID)
		r.emptySince[gameID] = r.clock.Now()
	}
	return true
}

// Broadcast delivers a message to every channel of a game. A full channel is
// a delivery failure for that client alone: it is logged and unregistered
// without affecting the remaining recipients.
func (r *Registry) Broadcast(gameID string, msg protocol.Message) {
	r.deliver(gameID, "", msg)
}

// Unicast delivers a message to a single client of a game.
func (r *Registry) Unicast(gameID, clientID string, msg protocol.Message) {
	r.deliver(gameID, clientID, msg)
}

func (r *Registry) deliver(gameID, onlyClient string, msg protocol.Message) {
	type stalledClient struct {
		clientID string
		ch       chan protocol.Message
	}

	r.mu.RLock()
	var stalled []stalledClient
	for clientID, ch := range r.channels[gameID] {
		if onlyClient != "" && clientID != onlyClient {
			continue
		}
		select {
		case ch <- msg:
		default:
			stalled = append(stalled, stalledClient{clientID: clientID, ch: ch})
		}
	}
	r.mu.RUnlock()

	for _, sc := range stalled {
		log.Warn().Str("game_id", gameID).Str("client_id", sc.clientID).
			Str("message_type", string(msg.MessageType())).
			Msg("client channel full, unregistering")
		r.Unregister(gameID, sc.clientID, sc.ch)
	}
}

// StartJanitor sweeps the registry until ctx is done: terminal sessions are
// evicted after the grace period, and sessions with no channels for longer
// than the grace period are aborted as abandoned.
func (r *Registry) StartJanitor(ctx context.Context) {
	go func() {
		ticker := r.clock.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				r.sweep()
			}
		}
	}()
}

func (r *Registry) sweep() {
	now := r.clock.Now()

	// Snapshot under the registry lock, inspect sessions outside of it: a
	// session holding its own lock may be broadcasting through ours.
	r.mu.RLock()
	live := make(map[string]*Session, len(r.sessions))
	idle := make(map[string]time.Time, len(r.emptySince))
	for code, session := range r.sessions {
		live[code] = session
	}
	for code, since := range r.emptySince {
		idle[code] = since
	}
	r.mu.RUnlock()

	var expired, abandoned []string
	for code, session := range live {
		if since, terminal := session.TerminalSince(); terminal {
			if now.Sub(since) >= r.cfg.GracePeriod {
				expired = append(expired, code)
			}
			continue
		}
		if since, ok := idle[code]; ok && now.Sub(since) >= r.cfg.GracePeriod {
			abandoned = append(abandoned, code)
		}
	}

	for _, code := range abandoned {
		if session, err := r.Get(code); err == nil {
			log.Info().Str("game_id", code).Msg("aborting abandoned game")
			session.Abort()
		}
		r.evict(code)
	}
	for _, code := range expired {
		r.evict(code)
	}
}

func (r *Registry) evict(gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for clientID := range r.channels[gameID] {
		r.unregisterLocked(gameID, clientID, nil)
	}
	delete(r.sessions, gameID)
	delete(r.emptySince, gameID)
	log.Info().Str("game_id", gameID).Msg("game evicted")
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// newGameCode derives a short human-typeable code from a fresh UUID.
func newGameCode() string {
	return strings.ToUpper(uuid.NewString()[:6])
}
