package bombrps

// MaxRounds is the number of rounds in a game, counting forfeits.
const MaxRounds = 3

// GameState is the authoritative record of one game. It is not safe for
// concurrent use; every game owns its own GameState.
type GameState struct {
	RoundNumber  int  `json:"round_number"`
	UserScore    int  `json:"user_score"`
	BotScore     int  `json:"bot_score"`
	UserBombUsed bool `json:"user_bomb_used"`
	BotBombUsed  bool `json:"bot_bomb_used"`
	GameOver     bool `json:"game_over"`
}

// RoundOutcome describes a resolved round and the state right after it.
type RoundOutcome struct {
	Winner    Winner `json:"winner"`
	UserMove  Move   `json:"user_move"`
	BotMove   Move   `json:"bot_move"`
	Round     int    `json:"round"`
	UserScore int    `json:"user_score"`
	BotScore  int    `json:"bot_score"`
	GameOver  bool   `json:"game_over"`
}

func NewGameState() *GameState {
	return &GameState{}
}

// BombUsed reports whether side has spent its bomb.
func (s *GameState) BombUsed(side Side) bool {
	if side == SideBot {
		return s.BotBombUsed
	}
	return s.UserBombUsed
}

// ValidateMove validates raw against side's bomb availability. It never
// changes the state.
func (s *GameState) ValidateMove(side Side, raw string) (Move, error) {
	return ValidateMove(raw, s.BombUsed(side))
}

// Resolve plays one round with two already validated moves.
func (s *GameState) Resolve(user, bot Move) RoundOutcome {
	if user == MoveBomb {
		s.UserBombUsed = true
	}
	if bot == MoveBomb {
		s.BotBombUsed = true
	}

	winner := Decide(user, bot)
	switch winner {
	case WinnerUser:
		s.UserScore++
	case WinnerBot:
		s.BotScore++
	}

	s.advanceRound()

	return RoundOutcome{
		Winner:    winner,
		UserMove:  user,
		BotMove:   bot,
		Round:     s.RoundNumber,
		UserScore: s.UserScore,
		BotScore:  s.BotScore,
		GameOver:  s.GameOver,
	}
}

// Forfeit burns the current round without touching scores or bombs.
func (s *GameState) Forfeit() GameState {
	s.advanceRound()
	return *s
}

// advanceRound is the only place RoundNumber is incremented during play.
func (s *GameState) advanceRound() {
	s.RoundNumber++
	if s.RoundNumber >= MaxRounds {
		s.GameOver = true
	}
}

// Snapshot returns a copy of the state.
func (s *GameState) Snapshot() GameState {
	return *s
}

// Champion returns the overall winner by score. A tie is a draw.
func (s GameState) Champion() Winner {
	switch {
	case s.UserScore > s.BotScore:
		return WinnerUser
	case s.BotScore > s.UserScore:
		return WinnerBot
	default:
		return WinnerDraw
	}
}
