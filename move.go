package bombrps

import (
	"errors"
	"fmt"
	"strings"
)

// Move is one of the four plays a side can make in a round.
type Move int

const (
	MoveRock Move = iota + 1
	MovePaper
	MoveScissors
	MoveBomb
)

var (
	// ErrInvalidMove is wrapped by every validation failure.
	ErrInvalidMove = errors.New("invalid move")
	// ErrUnknownMove means the token is not rock, paper, scissors or bomb.
	ErrUnknownMove = fmt.Errorf("%w: unknown move", ErrInvalidMove)
	// ErrBombAlreadyUsed means the side asked for a bomb it already spent.
	ErrBombAlreadyUsed = fmt.Errorf("%w: bomb already used", ErrInvalidMove)
)

var moveNames = map[Move]string{
	MoveRock:     "rock",
	MovePaper:    "paper",
	MoveScissors: "scissors",
	MoveBomb:     "bomb",
}

// BasicMoves are the moves available every round.
var BasicMoves = []Move{MoveRock, MovePaper, MoveScissors}

func (m Move) String() string {
	if name, ok := moveNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Move(%d)", int(m))
}

// Valid reports whether m is one of the four defined moves.
func (m Move) Valid() bool {
	_, ok := moveNames[m]
	return ok
}

func (m Move) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w %d", ErrUnknownMove, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Move) UnmarshalText(text []byte) error {
	parsed, err := ParseMove(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMove normalizes raw (case and surrounding whitespace) and maps it to a
// Move. It does not look at bomb availability.
func ParseMove(raw string) (Move, error) {
	token := strings.ToLower(strings.TrimSpace(raw))
	for m, name := range moveNames {
		if name == token {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownMove, raw)
}

// ReasonCode gives a stable machine readable code for a validation error.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrBombAlreadyUsed):
		return "bomb_already_used"
	case errors.Is(err, ErrUnknownMove):
		return "unknown_move"
	default:
		return "invalid_move"
	}
}

// ValidateMove parses raw and rejects a bomb when bombUsed is set.
func ValidateMove(raw string, bombUsed bool) (Move, error) {
	m, err := ParseMove(raw)
	if err != nil {
		return 0, err
	}
	if m == MoveBomb && bombUsed {
		return 0, ErrBombAlreadyUsed
	}
	return m, nil
}
