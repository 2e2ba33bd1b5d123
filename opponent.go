package bombrps

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// DefaultBombChance is the per-round probability that the bot detonates its
// bomb while it still has one.
const DefaultBombChance = 0.15

// MoveSource produces the bot's move for the next round.
type MoveSource interface {
	NextMove(bombAvailable bool) Move
}

// MoveSourceFunc adapts a plain function to MoveSource.
type MoveSourceFunc func(bombAvailable bool) Move

func (f MoveSourceFunc) NextMove(bombAvailable bool) Move {
	return f(bombAvailable)
}

// RandomPolicy picks uniformly among rock, paper and scissors and swaps in
// the bomb with probability BombChance while the bomb is available. It is
// not safe for concurrent use.
type RandomPolicy struct {
	BombChance float64
	rng        *rand.Rand
}

var _ MoveSource = (*RandomPolicy)(nil)

// NewRandomPolicy returns a policy seeded from crypto/rand.
func NewRandomPolicy(bombChance float64) *RandomPolicy {
	var b [16]byte
	_, _ = crand.Read(b[:])
	return NewSeededPolicy(bombChance, binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:]))
}

// NewSeededPolicy returns a reproducible policy.
func NewSeededPolicy(bombChance float64, seed1, seed2 uint64) *RandomPolicy {
	return &RandomPolicy{
		BombChance: bombChance,
		rng:        rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (p *RandomPolicy) NextMove(bombAvailable bool) Move {
	if bombAvailable && p.rng.Float64() < p.BombChance {
		return MoveBomb
	}
	return BasicMoves[p.rng.IntN(len(BasicMoves))]
}

// Script replays a fixed list of moves, wrapping around at the end. It
// ignores bomb availability.
type Script struct {
	moves []Move
	next  int
}

var _ MoveSource = (*Script)(nil)

func NewScript(moves ...Move) *Script {
	return &Script{moves: moves}
}

func (s *Script) NextMove(bool) Move {
	if len(s.moves) == 0 {
		return MoveRock
	}
	m := s.moves[s.next%len(s.moves)]
	s.next++
	return m
}
