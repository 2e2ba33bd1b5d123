package bombrps

import (
	"errors"
	"testing"
)

func TestParseMove(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Move
		wantErr error
	}{
		{name: "rock", raw: "rock", want: MoveRock},
		{name: "upper case paper", raw: "PAPER", want: MovePaper},
		{name: "mixed case with spaces", raw: "  ScIsSoRs\n", want: MoveScissors},
		{name: "bomb", raw: "bomb", want: MoveBomb},
		{name: "unknown token", raw: "xyz", wantErr: ErrUnknownMove},
		{name: "empty input", raw: "   ", wantErr: ErrUnknownMove},
		{name: "inner whitespace is not trimmed", raw: "ro ck", wantErr: ErrUnknownMove},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMove(tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseMove(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMove(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidateMove(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		bombUsed bool
		want     Move
		wantErr  error
	}{
		{name: "bomb available", raw: "bomb", bombUsed: false, want: MoveBomb},
		{name: "bomb already used", raw: " BOMB ", bombUsed: true, wantErr: ErrBombAlreadyUsed},
		{name: "rock after bomb used", raw: "rock", bombUsed: true, want: MoveRock},
		{name: "unknown with bomb used", raw: "lizard", bombUsed: true, wantErr: ErrUnknownMove},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateMove(tt.raw, tt.bombUsed)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateMove() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateMove() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidationErrorsAreDistinct(t *testing.T) {
	if !errors.Is(ErrUnknownMove, ErrInvalidMove) || !errors.Is(ErrBombAlreadyUsed, ErrInvalidMove) {
		t.Fatal("validation errors must wrap ErrInvalidMove")
	}
	if errors.Is(ErrUnknownMove, ErrBombAlreadyUsed) || errors.Is(ErrBombAlreadyUsed, ErrUnknownMove) {
		t.Fatal("unknown move and bomb reuse must be distinguishable")
	}
	if got := ReasonCode(ErrBombAlreadyUsed); got != "bomb_already_used" {
		t.Errorf("ReasonCode(ErrBombAlreadyUsed) = %q", got)
	}
	if _, err := ParseMove("xyz"); ReasonCode(err) != "unknown_move" {
		t.Errorf("ReasonCode(unknown) = %q", ReasonCode(err))
	}
}

func TestMove_Text(t *testing.T) {
	for _, m := range []Move{MoveRock, MovePaper, MoveScissors, MoveBomb} {
		text, err := m.MarshalText()
		if err != nil {
			t.Fatalf("%v.MarshalText() error = %v", m, err)
		}
		var back Move
		if err := back.UnmarshalText(text); err != nil || back != m {
			t.Errorf("UnmarshalText(%q) = %v, %v; want %v", text, back, err, m)
		}
	}

	if _, err := Move(0).MarshalText(); err == nil {
		t.Error("zero Move must not marshal")
	}
	if got := Move(42).String(); got != "Move(42)" {
		t.Errorf("Move(42).String() = %q", got)
	}
}
