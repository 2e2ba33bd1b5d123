package bombrps

import "testing"

func TestDecide(t *testing.T) {
	tests := []struct {
		user, bot Move
		want      Winner
	}{
		{MoveRock, MoveScissors, WinnerUser},
		{MovePaper, MoveRock, WinnerUser},
		{MoveScissors, MovePaper, WinnerUser},
		{MoveScissors, MoveRock, WinnerBot},
		{MoveRock, MovePaper, WinnerBot},
		{MovePaper, MoveScissors, WinnerBot},
		{MoveRock, MoveRock, WinnerDraw},
		{MovePaper, MovePaper, WinnerDraw},
		{MoveScissors, MoveScissors, WinnerDraw},
		{MoveBomb, MoveRock, WinnerUser},
		{MoveBomb, MovePaper, WinnerUser},
		{MoveBomb, MoveScissors, WinnerUser},
		{MoveRock, MoveBomb, WinnerBot},
		{MovePaper, MoveBomb, WinnerBot},
		{MoveScissors, MoveBomb, WinnerBot},
		{MoveBomb, MoveBomb, WinnerDraw},
	}
	for _, tt := range tests {
		t.Run(tt.user.String()+"_vs_"+tt.bot.String(), func(t *testing.T) {
			if got := Decide(tt.user, tt.bot); got != tt.want {
				t.Errorf("Decide(%v, %v) = %v, want %v", tt.user, tt.bot, got, tt.want)
			}
		})
	}
}

func TestDecide_Symmetric(t *testing.T) {
	moves := []Move{MoveRock, MovePaper, MoveScissors, MoveBomb}
	for _, a := range moves {
		for _, b := range moves {
			ab, ba := Decide(a, b), Decide(b, a)
			switch ab {
			case WinnerDraw:
				if ba != WinnerDraw {
					t.Errorf("Decide(%v,%v) draw but Decide(%v,%v) = %v", a, b, b, a, ba)
				}
			case WinnerUser:
				if ba != WinnerBot {
					t.Errorf("Decide(%v,%v) user but Decide(%v,%v) = %v", a, b, b, a, ba)
				}
			case WinnerBot:
				if ba != WinnerUser {
					t.Errorf("Decide(%v,%v) bot but Decide(%v,%v) = %v", a, b, b, a, ba)
				}
			}
		}
	}
}
