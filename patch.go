package bombrps

import "fmt"

// StatePatch is a sparse update of GameState. A nil field is absent and left
// untouched by Apply.
type StatePatch struct {
	RoundNumber  *int  `json:"round_number,omitempty"`
	UserScore    *int  `json:"user_score,omitempty"`
	BotScore     *int  `json:"bot_score,omitempty"`
	UserBombUsed *bool `json:"user_bomb_used,omitempty"`
	BotBombUsed  *bool `json:"bot_bomb_used,omitempty"`
	GameOver     *bool `json:"game_over,omitempty"`
}

// Empty reports whether the patch carries no field at all.
func (p StatePatch) Empty() bool {
	return p.RoundNumber == nil && p.UserScore == nil && p.BotScore == nil &&
		p.UserBombUsed == nil && p.BotBombUsed == nil && p.GameOver == nil
}

// Validate rejects negative counters.
func (p StatePatch) Validate() error {
	for name, v := range map[string]*int{
		"round_number": p.RoundNumber,
		"user_score":   p.UserScore,
		"bot_score":    p.BotScore,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, *v)
		}
	}
	return nil
}

// Apply copies every present field of p into s and returns the resulting
// state.
func (s *GameState) Apply(p StatePatch) GameState {
	if p.RoundNumber != nil {
		s.RoundNumber = *p.RoundNumber
	}
	if p.UserScore != nil {
		s.UserScore = *p.UserScore
	}
	if p.BotScore != nil {
		s.BotScore = *p.BotScore
	}
	if p.UserBombUsed != nil {
		s.UserBombUsed = *p.UserBombUsed
	}
	if p.BotBombUsed != nil {
		s.BotBombUsed = *p.BotBombUsed
	}
	if p.GameOver != nil {
		s.GameOver = *p.GameOver
	}
	return *s
}
