package bombrps

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Rules is the short rule sheet shown before the first round.
const Rules = `Rules: Best of 3 rounds. Valid moves: rock, paper, scissors, bomb.
Rock beats scissors, paper beats rock, scissors beats paper.
Bomb beats everything but can only be used ONCE per game.
Bomb vs bomb = draw. Invalid input wastes your round.
Game ends after 3 rounds automatically.`

var banner = strings.Repeat("=", 50)

// Referee runs a Match over a line based text stream, such as a terminal.
type Referee struct {
	In    io.Reader
	Out   io.Writer
	Match *Match
}

func NewReferee(in io.Reader, out io.Writer, match *Match) *Referee {
	return &Referee{In: in, Out: out, Match: match}
}

// Run plays until the game is over. It returns io.ErrUnexpectedEOF if the
// input ends first and ctx.Err() if ctx is cancelled between rounds.
func (r *Referee) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.In)

	r.printf("%s\nROCK-PAPER-SCISSORS-PLUS GAME REFEREE\n%s\n\n%s\n", banner, banner, Rules)

	for !r.Match.Over() {
		if err := ctx.Err(); err != nil {
			return err
		}

		state := r.Match.State()
		r.printf("\n--- ROUND %d ---\n", state.RoundNumber+1)
		r.printf("Score - You: %d | Bot: %d\n", state.UserScore, state.BotScore)
		if state.UserBombUsed {
			r.printf("(Your bomb is used)\n")
		} else {
			r.printf("(You still have your bomb available)\n")
		}
		r.printf("\nYour move (rock/paper/scissors/bomb): ")

		// no line length limit: oversized input is just an invalid move
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("read move: %w", err)
			}
			if line == "" {
				return io.ErrUnexpectedEOF
			}
		}

		turn, err := r.Match.Play(line)
		if err != nil {
			return err
		}
		r.printTurn(turn)
	}

	r.printFinal(r.Match.State())
	return nil
}

func (r *Referee) printTurn(turn Turn) {
	if turn.Forfeited {
		r.printf("\n%s\nThis round is wasted!\n", ForfeitMessage(turn.Reason))
		return
	}

	o := turn.Outcome
	r.printf("\nYou played: %s\nBot played: %s\n", o.UserMove, o.BotMove)
	switch o.Winner {
	case WinnerUser:
		r.printf("You win this round!\n")
	case WinnerBot:
		r.printf("Bot wins this round!\n")
	default:
		r.printf("It's a draw!\n")
	}
	r.printf("\nScore after Round %d: You %d - %d Bot\n", o.Round, o.UserScore, o.BotScore)
}

func (r *Referee) printFinal(state GameState) {
	r.printf("\n%s\nGAME OVER!\n%s\n", banner, banner)
	r.printf("Final Score: You %d - %d Bot\n", state.UserScore, state.BotScore)
	switch state.Champion() {
	case WinnerUser:
		r.printf("YOU WIN THE GAME!\n")
	case WinnerBot:
		r.printf("BOT WINS THE GAME!\n")
	default:
		r.printf("IT'S A DRAW!\n")
	}
	r.printf("%s\n", banner)
}

func (r *Referee) printf(format string, args ...any) {
	fmt.Fprintf(r.Out, format, args...)
}

// ForfeitMessage is the player facing explanation for a rejected move.
func ForfeitMessage(reason error) string {
	if errors.Is(reason, ErrBombAlreadyUsed) {
		return "You already used your bomb!"
	}
	return "Invalid move. Use: rock, paper, scissors, or bomb"
}
