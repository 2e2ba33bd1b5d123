package bombrps

// beats maps each basic move to the move it defeats.
var beats = map[Move]Move{
	MoveRock:     MoveScissors,
	MovePaper:    MoveRock,
	MoveScissors: MovePaper,
}

// Decide returns the winner of a single round.
//
// Equal moves draw (bomb against bomb included). A bomb beats any other
// move. Otherwise rock beats scissors, paper beats rock and scissors beats
// paper.
func Decide(user, bot Move) Winner {
	switch {
	case user == bot:
		return WinnerDraw
	case user == MoveBomb:
		return WinnerUser
	case bot == MoveBomb:
		return WinnerBot
	case beats[user] == bot:
		return WinnerUser
	default:
		return WinnerBot
	}
}
