package bombrps

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tkahng/bombrps/logger"
)

var (
	ErrAtCapacity      = errors.New("server at capacity")
	ErrBrokerStopped   = errors.New("broker is shutting down")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session is closed")
)

// Session is one player's game against the bot. Its methods are safe for
// concurrent use.
type Session struct {
	ID        string
	PlayerID  string
	Context   context.Context
	Cancel    context.CancelFunc
	StartTime time.Time

	mu         sync.Mutex
	match      *Match
	lastActive time.Time
}

// Play submits a raw move for the next round.
func (s *Session) Play(raw string) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Context.Err() != nil {
		return Turn{}, ErrSessionClosed
	}
	s.lastActive = time.Now()
	return s.match.Play(raw)
}

// State returns a snapshot of the session's game.
func (s *Session) State() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.match.State()
}

// Apply patches the session's game state out of band.
func (s *Session) Apply(p StatePatch) (GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Context.Err() != nil {
		return GameState{}, ErrSessionClosed
	}
	s.lastActive = time.Now()
	return s.match.Apply(p), nil
}

func (s *Session) finishedBefore(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.match.Over() && s.lastActive.Before(t)
}

// Broker owns the live sessions. Each session gets its own GameState and
// MoveSource, so games never share state.
type Broker struct {
	// Configuration
	maxConcurrentGames int
	gameTimeout        time.Duration
	finishedLinger     time.Duration
	cleanupInterval    time.Duration
	monitorInterval    time.Duration
	newSource          func() MoveSource
	logger             *slog.Logger

	sessions      map[string]*Session
	sessionsMutex *sync.RWMutex

	// Limits concurrent games
	gameSemaphore chan struct{}

	// mu orders OpenSession against Stop so no session is added to wg
	// once Stop is waiting on it.
	mu      sync.Mutex
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

type BrokerOption func(*Broker)

// WithGameTimeout bounds how long a single session may live.
func WithGameTimeout(d time.Duration) BrokerOption {
	return func(b *Broker) { b.gameTimeout = d }
}

// WithFinishedLinger sets how long a finished game stays queryable after its
// last activity before the cleanup worker closes it.
func WithFinishedLinger(d time.Duration) BrokerOption {
	return func(b *Broker) { b.finishedLinger = d }
}

func WithCleanupInterval(d time.Duration) BrokerOption {
	return func(b *Broker) { b.cleanupInterval = d }
}

func WithMonitorInterval(d time.Duration) BrokerOption {
	return func(b *Broker) { b.monitorInterval = d }
}

// WithSourceFactory sets how each new session gets its bot policy.
func WithSourceFactory(f func() MoveSource) BrokerOption {
	return func(b *Broker) { b.newSource = f }
}

func WithLogger(l *slog.Logger) BrokerOption {
	return func(b *Broker) { b.logger = l }
}

func NewBroker(maxConcurrentGames int, opts ...BrokerOption) *Broker {
	ctx, cancel := context.WithCancel(context.Background())

	b := &Broker{
		maxConcurrentGames: maxConcurrentGames,
		gameTimeout:        30 * time.Minute,
		finishedLinger:     time.Minute,
		cleanupInterval:    time.Minute,
		monitorInterval:    10 * time.Second,
		newSource: func() MoveSource {
			return NewRandomPolicy(DefaultBombChance)
		},
		logger:        logger.Get(),
		sessions:      make(map[string]*Session),
		sessionsMutex: new(sync.RWMutex),
		gameSemaphore: make(chan struct{}, maxConcurrentGames),
		ctx:           ctx,
		cancel:        cancel,
		wg:            new(sync.WaitGroup),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start launches the cleanup and monitoring workers.
func (b *Broker) Start() {
	b.wg.Add(2)
	go b.cleanupWorker()
	go b.monitoringWorker()

	b.logger.Info("broker started", slog.Int("max_concurrent_games", b.maxConcurrentGames))
}

// Stop closes every session and waits for the workers to exit.
func (b *Broker) Stop() {
	b.mu.Lock()
	b.stopped = true
	b.cancel()
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("broker stopped")
}

// OpenSession starts a new game for playerID.
func (b *Broker) OpenSession(playerID string) (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return nil, ErrBrokerStopped
	}

	select {
	case b.gameSemaphore <- struct{}{}:
	default:
		return nil, ErrAtCapacity
	}

	id := uuid.NewString()
	ctx, cancel := context.WithTimeout(b.ctx, b.gameTimeout)
	now := time.Now()
	session := &Session{
		ID:         id,
		PlayerID:   playerID,
		Context:    ctx,
		Cancel:     cancel,
		StartTime:  now,
		match:      NewMatch(id, b.newSource()),
		lastActive: now,
	}

	b.sessionsMutex.Lock()
	b.sessions[id] = session
	b.sessionsMutex.Unlock()
	activeSessions.Inc()

	b.wg.Add(1)
	go b.manageSession(session)

	b.logger.Info("session opened", slog.String("session_id", id), slog.String("player_id", playerID))
	return session, nil
}

// Session looks up a live session.
func (b *Broker) Session(id string) (*Session, bool) {
	b.sessionsMutex.RLock()
	defer b.sessionsMutex.RUnlock()
	session, ok := b.sessions[id]
	return session, ok
}

// CloseSession ends a session and frees its slot.
func (b *Broker) CloseSession(id string) error {
	session, ok := b.Session(id)
	if !ok {
		return ErrSessionNotFound
	}
	session.Cancel()
	return nil
}

// manageSession releases the session's resources once its context ends.
func (b *Broker) manageSession(session *Session) {
	defer b.wg.Done()

	<-session.Context.Done()

	b.sessionsMutex.Lock()
	delete(b.sessions, session.ID)
	b.sessionsMutex.Unlock()

	<-b.gameSemaphore
	activeSessions.Dec()

	state := session.State()
	b.logger.Info("session closed",
		slog.String("session_id", session.ID),
		slog.Duration("duration", time.Since(session.StartTime)),
		slog.Bool("game_over", state.GameOver),
		slog.Any("cause", context.Cause(session.Context)),
	)
}

func (b *Broker) cleanupWorker() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.cleanupFinishedSessions()
		case <-b.ctx.Done():
			return
		}
	}
}

// cleanupFinishedSessions closes finished games nobody has touched for the
// linger period.
func (b *Broker) cleanupFinishedSessions() {
	cutoff := time.Now().Add(-b.finishedLinger)

	b.sessionsMutex.RLock()
	var stale []*Session
	for _, session := range b.sessions {
		if session.finishedBefore(cutoff) {
			stale = append(stale, session)
		}
	}
	b.sessionsMutex.RUnlock()

	for _, session := range stale {
		b.logger.Debug("cleaning up finished session", slog.String("session_id", session.ID))
		session.Cancel()
	}
}

func (b *Broker) monitoringWorker() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.logger.Debug("broker metrics",
				slog.Int("active_sessions", b.ActiveSessionCount()),
				slog.Int("available_slots", b.AvailableSlots()),
			)
		case <-b.ctx.Done():
			return
		}
	}
}

// ActiveSessionCount returns the number of live sessions.
func (b *Broker) ActiveSessionCount() int {
	b.sessionsMutex.RLock()
	defer b.sessionsMutex.RUnlock()
	return len(b.sessions)
}

// AvailableSlots returns how many more sessions can be opened.
func (b *Broker) AvailableSlots() int {
	return cap(b.gameSemaphore) - len(b.gameSemaphore)
}
