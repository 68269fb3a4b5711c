package engine

import (
	"math/rand"

	"github.com/dylhunn/dragontoothmg"
)

// FallbackEngine plays uniformly random legal moves. It stands in when the
// full engine fails to initialize, and backs up ChooseMove whenever a search
// comes up empty, preserving liveness.
type FallbackEngine struct {
	rng *rand.Rand
}

func NewFallbackEngine(seed int64) *FallbackEngine {
	return &FallbackEngine{rng: rand.New(rand.NewSource(seed))}
}

// ChooseMove returns a random legal move, or false when there is none.
func (f *FallbackEngine) ChooseMove(b *dragontoothmg.Board) (dragontoothmg.Move, bool) {
	moves := b.GenerateLegalMoves()
	if len(moves) == 0 {
		return 0, false
	}
	return moves[f.rng.Intn(len(moves))], true
}
