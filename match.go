package bombrps

import (
	"errors"
	"fmt"
)

var (
	ErrGameOver = errors.New("game is over")
	// ErrPolicyMove is returned when a MoveSource hands the bot a bomb it no
	// longer has.
	ErrPolicyMove = errors.New("opponent policy returned an unavailable move")
)

// Turn is what a driver gets back after submitting a raw move.
type Turn struct {
	Outcome   RoundOutcome
	Forfeited bool
	Reason    error
	State     GameState
}

// Match drives one user-versus-bot game: validation, the bot's pick and
// resolution or forfeit.
type Match struct {
	ID     string
	state  *GameState
	source MoveSource
}

func NewMatch(id string, source MoveSource) *Match {
	return &Match{
		ID:     id,
		state:  NewGameState(),
		source: source,
	}
}

// State returns a snapshot of the game.
func (m *Match) State() GameState {
	return m.state.Snapshot()
}

// Over reports whether the game has ended. A patched state that reached the
// round limit without setting GameOver still counts as over.
func (m *Match) Over() bool {
	return m.state.GameOver || m.state.RoundNumber >= MaxRounds
}

// Apply patches the underlying state. It bypasses the round rules.
func (m *Match) Apply(p StatePatch) GameState {
	return m.state.Apply(p)
}

// Play runs one round with the user's raw input.
func (m *Match) Play(raw string) (Turn, error) {
	if m.Over() {
		return Turn{}, ErrGameOver
	}

	userMove, err := m.state.ValidateMove(SideUser, raw)
	if err != nil {
		state := m.state.Forfeit()
		recordForfeit(err)
		m.recordEnd()
		return Turn{Forfeited: true, Reason: err, State: state}, nil
	}

	botMove := m.source.NextMove(!m.state.BotBombUsed)
	if !botMove.Valid() || (botMove == MoveBomb && m.state.BotBombUsed) {
		return Turn{}, fmt.Errorf("%w: %s", ErrPolicyMove, botMove)
	}

	outcome := m.state.Resolve(userMove, botMove)
	recordRound(outcome)
	m.recordEnd()
	return Turn{Outcome: outcome, State: m.state.Snapshot()}, nil
}

func (m *Match) recordEnd() {
	if m.state.GameOver {
		gamesFinished.WithLabelValues(string(m.state.Champion())).Inc()
	}
}
