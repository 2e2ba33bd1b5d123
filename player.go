package bombrps

// Side identifies one of the two players at the table.
type Side int

const (
	SideUser Side = iota
	SideBot
)

func (s Side) String() string {
	if s == SideBot {
		return "bot"
	}
	return "user"
}

// Winner is the verdict of a round or of a whole game.
type Winner string

const (
	WinnerUser Winner = "user"
	WinnerBot  Winner = "bot"
	WinnerDraw Winner = "draw"
)

func (s Side) winner() Winner {
	if s == SideBot {
		return WinnerBot
	}
	return WinnerUser
}
