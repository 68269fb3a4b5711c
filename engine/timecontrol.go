package engine

import (
	"math/bits"
	"time"

	"github.com/dylhunn/dragontoothmg"
)

// piecePhase scores the non-pawn material left on the board: 24 at the
// starting position, 0 with bare kings. Minors count 1, rooks 2, queens 4.
func piecePhase(b *dragontoothmg.Board) int {
	phase := bits.OnesCount64(b.White.Knights | b.Black.Knights)
	phase += bits.OnesCount64(b.White.Bishops | b.Black.Bishops)
	phase += 2 * bits.OnesCount64(b.White.Rooks|b.Black.Rooks)
	phase += 4 * bits.OnesCount64(b.White.Queens|b.Black.Queens)
	return min(phase, 24)
}

// estimateMovesRemaining interpolates the expected game length from the
// phase: 45 moves left in the opening down to 20 in the endgame.
func estimateMovesRemaining(phase int) int {
	return (phase*25)/24 + 20
}

// TimeBudget allocates clock time for the next move from the remaining
// clock and increment, both in milliseconds. The allocation spends an even
// share of the estimated remaining moves plus the increment, banks the
// increment when the clock runs critically low, and never commits more
// than 70% of what is left.
func TimeBudget(b *dragontoothmg.Board, remainingMs, incrementMs int) time.Duration {
	const (
		overheadMs    = 30 // reserve for I/O jitter
		minMoveMs     = 5
		maxFrac       = 0.7
		panicThreshMs = 1000
		panicFrac     = 0.90
	)

	movesLeft := estimateMovesRemaining(piecePhase(b))

	var moveTime int
	if incrementMs > 0 {
		if remainingMs < panicThreshMs {
			moveTime = int(float64(incrementMs) * panicFrac)
		} else {
			moveTime = remainingMs/movesLeft + incrementMs
		}
	} else {
		moveTime = remainingMs / 40
	}

	moveTime = max(moveTime, minMoveMs)
	moveTime = min(moveTime, int(float64(remainingMs)*maxFrac))
	moveTime = min(moveTime, remainingMs-overheadMs)
	moveTime = max(moveTime, minMoveMs)

	return time.Duration(moveTime) * time.Millisecond
}
