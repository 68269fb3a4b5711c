package engine

import (
	"math/bits"

	"github.com/dylhunn/dragontoothmg"
)

// Evaluator scores positions in centipawns from white's perspective.
// With Positional disabled it degrades to a bare material count.
type Evaluator struct {
	Positional bool
}

func NewEvaluator() *Evaluator {
	return &Evaluator{Positional: true}
}

// Evaluate returns the static score of the position. Checkmate short-circuits
// to +-MateScore (negative when the side to move is mated), stalemate and
// insufficient material to 0.
func (e *Evaluator) Evaluate(b *dragontoothmg.Board) int {
	moves := b.GenerateLegalMoves()
	if len(moves) == 0 {
		if b.OurKingInCheck() {
			if b.Wtomove {
				return -MateScore
			}
			return MateScore
		}
		return 0
	}
	if insufficientMaterial(b) {
		return 0
	}

	score := evaluateMaterial(b)
	if !e.Positional {
		return score
	}

	endgame := isEndgame(b)
	score += evaluatePiecePosition(b, endgame)
	score += evaluatePawnStructure(b)
	if !endgame {
		score += evaluateKingSafety(b)
	}
	score += evaluateMobility(b)
	score += evaluateOtherFactors(b)
	return score
}

func evaluateMaterial(b *dragontoothmg.Board) int {
	score := 0
	score += bits.OnesCount64(b.White.Pawns) * PieceValue[dragontoothmg.Pawn]
	score += bits.OnesCount64(b.White.Knights) * PieceValue[dragontoothmg.Knight]
	score += bits.OnesCount64(b.White.Bishops) * PieceValue[dragontoothmg.Bishop]
	score += bits.OnesCount64(b.White.Rooks) * PieceValue[dragontoothmg.Rook]
	score += bits.OnesCount64(b.White.Queens) * PieceValue[dragontoothmg.Queen]
	score -= bits.OnesCount64(b.Black.Pawns) * PieceValue[dragontoothmg.Pawn]
	score -= bits.OnesCount64(b.Black.Knights) * PieceValue[dragontoothmg.Knight]
	score -= bits.OnesCount64(b.Black.Bishops) * PieceValue[dragontoothmg.Bishop]
	score -= bits.OnesCount64(b.Black.Rooks) * PieceValue[dragontoothmg.Rook]
	score -= bits.OnesCount64(b.Black.Queens) * PieceValue[dragontoothmg.Queen]
	return score
}

func evaluatePiecePosition(b *dragontoothmg.Board, endgame bool) int {
	kingTable := &kingMiddleTable
	if endgame {
		kingTable = &kingEndTable
	}

	score := 0
	for pt := dragontoothmg.Piece(dragontoothmg.Pawn); pt <= dragontoothmg.King; pt++ {
		table := pieceSquareTables[pt]
		if pt == dragontoothmg.King {
			table = kingTable
		}
		for x := pieceBitboard(&b.White, pt); x != 0; x &= x - 1 {
			score += table[bits.TrailingZeros64(x)]
		}
		for x := pieceBitboard(&b.Black, pt); x != 0; x &= x - 1 {
			// Mirror the square vertically for black.
			score -= table[bits.TrailingZeros64(x)^56]
		}
	}
	return score
}

func pieceBitboard(bb *dragontoothmg.Bitboards, pt dragontoothmg.Piece) uint64 {
	switch pt {
	case dragontoothmg.Pawn:
		return bb.Pawns
	case dragontoothmg.Knight:
		return bb.Knights
	case dragontoothmg.Bishop:
		return bb.Bishops
	case dragontoothmg.Rook:
		return bb.Rooks
	case dragontoothmg.Queen:
		return bb.Queens
	case dragontoothmg.King:
		return bb.Kings
	}
	return 0
}

func squareBit(file, rank int) uint64 {
	return 1 << uint(rank*8+file)
}

func evaluatePawnStructure(b *dragontoothmg.Board) int {
	var whiteFiles, blackFiles [8]int
	for x := b.White.Pawns; x != 0; x &= x - 1 {
		whiteFiles[bits.TrailingZeros64(x)&7]++
	}
	for x := b.Black.Pawns; x != 0; x &= x - 1 {
		blackFiles[bits.TrailingZeros64(x)&7]++
	}

	score := 0

	for x := b.White.Pawns; x != 0; x &= x - 1 {
		sq := bits.TrailingZeros64(x)
		file, rank := sq&7, sq>>3

		if whiteFiles[file] > 1 {
			score -= doubledPawnPenalty
		}

		isolated := true
		for _, af := range [2]int{file - 1, file + 1} {
			if af >= 0 && af < 8 && whiteFiles[af] > 0 {
				isolated = false
				break
			}
		}
		if isolated {
			score -= isolatedPawnPenalty
		}

		passed := true
	passedWhite:
		for af := max(0, file-1); af <= min(7, file+1); af++ {
			for r := rank + 1; r < 8; r++ {
				if b.Black.Pawns&squareBit(af, r) != 0 {
					passed = false
					break passedWhite
				}
			}
		}
		if passed {
			score += passedPawnBonus[rank]
		}

		backward := true
		for _, af := range [2]int{file - 1, file + 1} {
			if af < 0 || af > 7 {
				continue
			}
			for r := 0; r < rank; r++ {
				if b.White.Pawns&squareBit(af, r) != 0 {
					backward = false
					break
				}
			}
		}
		if backward && (file == 0 || whiteFiles[file-1] == 0) && (file == 7 || whiteFiles[file+1] == 0) {
			score -= backwardPawnPenalty
		}
	}

	for x := b.Black.Pawns; x != 0; x &= x - 1 {
		sq := bits.TrailingZeros64(x)
		file, rank := sq&7, sq>>3

		if blackFiles[file] > 1 {
			score += doubledPawnPenalty
		}

		isolated := true
		for _, af := range [2]int{file - 1, file + 1} {
			if af >= 0 && af < 8 && blackFiles[af] > 0 {
				isolated = false
				break
			}
		}
		if isolated {
			score += isolatedPawnPenalty
		}

		passed := true
	passedBlack:
		for af := max(0, file-1); af <= min(7, file+1); af++ {
			for r := 0; r < rank; r++ {
				if b.White.Pawns&squareBit(af, r) != 0 {
					passed = false
					break passedBlack
				}
			}
		}
		if passed {
			score -= passedPawnBonus[7-rank]
		}

		backward := true
		for _, af := range [2]int{file - 1, file + 1} {
			if af < 0 || af > 7 {
				continue
			}
			for r := rank + 1; r < 8; r++ {
				if b.Black.Pawns&squareBit(af, r) != 0 {
					backward = false
					break
				}
			}
		}
		if backward && (file == 0 || blackFiles[file-1] == 0) && (file == 7 || blackFiles[file+1] == 0) {
			score += backwardPawnPenalty
		}
	}

	return score
}

func evaluateKingSafety(b *dragontoothmg.Board) int {
	if b.White.Kings == 0 || b.Black.Kings == 0 {
		return 0
	}

	score := 0
	whiteKing := bits.TrailingZeros64(b.White.Kings)
	blackKing := bits.TrailingZeros64(b.Black.Kings)

	// Pawn shield only counts for a castled (back rank) king.
	wkFile, wkRank := whiteKing&7, whiteKing>>3
	if wkRank == 0 {
		for file := max(0, wkFile-1); file <= min(7, wkFile+1); file++ {
			for rank := 1; rank <= 2; rank++ {
				if b.White.Pawns&squareBit(file, rank) != 0 {
					score += pawnShieldBonus
				}
			}
		}
	}

	bkFile, bkRank := blackKing&7, blackKing>>3
	if bkRank == 7 {
		for file := max(0, bkFile-1); file <= min(7, bkFile+1); file++ {
			for rank := 5; rank <= 6; rank++ {
				if b.Black.Pawns&squareBit(file, rank) != 0 {
					score -= pawnShieldBonus
				}
			}
		}
	}

	score -= kingRingAttackers(whiteKing, &b.Black) * kingAttackerMultiplier
	score += kingRingAttackers(blackKing, &b.White) * kingAttackerMultiplier
	return score
}

// kingRingAttackers sums the attack weights of enemy pieces standing in the
// 8-square ring around the king.
func kingRingAttackers(kingSq int, enemy *dragontoothmg.Bitboards) int {
	kFile, kRank := kingSq&7, kingSq>>3
	total := 0
	for file := max(0, kFile-1); file <= min(7, kFile+1); file++ {
		for rank := max(0, kRank-1); rank <= min(7, kRank+1); rank++ {
			if file == kFile && rank == kRank {
				continue
			}
			pt, occupied := GetPieceTypeAtPosition(uint8(rank*8+file), enemy)
			if occupied {
				total += kingAttackWeight[pt]
			}
		}
	}
	return total
}

func evaluateMobility(b *dragontoothmg.Board) int {
	// Mobility is counted for both sides by toggling side-to-move on a
	// scratch copy, so the real position is never disturbed.
	scratch := *b
	scratch.Wtomove = true
	whiteMobility := pieceMobility(&scratch)
	scratch.Wtomove = false
	blackMobility := pieceMobility(&scratch)

	score := 0
	for pt := dragontoothmg.Knight; pt <= dragontoothmg.Queen; pt++ {
		score += whiteMobility[pt] * mobilityBonus[pt]
		score -= blackMobility[pt] * mobilityBonus[pt]
	}
	return score
}

func pieceMobility(b *dragontoothmg.Board) [7]int {
	var mobility [7]int
	own := &b.White
	if !b.Wtomove {
		own = &b.Black
	}
	for _, move := range b.GenerateLegalMoves() {
		pt, occupied := GetPieceTypeAtPosition(move.From(), own)
		if occupied {
			mobility[pt]++
		}
	}
	return mobility
}

func evaluateOtherFactors(b *dragontoothmg.Board) int {
	score := 0

	if bits.OnesCount64(b.White.Bishops) >= 2 {
		score += bishopPairBonus
	}
	if bits.OnesCount64(b.Black.Bishops) >= 2 {
		score -= bishopPairBonus
	}

	allPawns := b.White.Pawns | b.Black.Pawns
	for x := b.White.Rooks; x != 0; x &= x - 1 {
		file := bits.TrailingZeros64(x) & 7
		if allPawns&fileMask(file) == 0 {
			score += rookOpenFileBonus
		} else if b.White.Pawns&fileMask(file) == 0 {
			score += rookSemiOpenFileBonus
		}
	}
	for x := b.Black.Rooks; x != 0; x &= x - 1 {
		file := bits.TrailingZeros64(x) & 7
		if allPawns&fileMask(file) == 0 {
			score -= rookOpenFileBonus
		} else if b.Black.Pawns&fileMask(file) == 0 {
			score -= rookSemiOpenFileBonus
		}
	}

	for x := b.White.Knights; x != 0; x &= x - 1 {
		if isOutpost(b, bits.TrailingZeros64(x), true) {
			score += knightOutpostBonus
		}
	}
	for x := b.Black.Knights; x != 0; x &= x - 1 {
		if isOutpost(b, bits.TrailingZeros64(x), false) {
			score -= knightOutpostBonus
		}
	}

	return score
}

func fileMask(file int) uint64 {
	return 0x0101010101010101 << uint(file)
}

// isOutpost reports whether a knight square sits in enemy territory, cannot
// be driven off by an enemy pawn, and has friendly pawn support.
func isOutpost(b *dragontoothmg.Board, sq int, white bool) bool {
	file, rank := sq&7, sq>>3

	if white && rank < 4 {
		return false
	}
	if !white && rank > 3 {
		return false
	}

	if white {
		for _, af := range [2]int{file - 1, file + 1} {
			if af >= 0 && af < 8 && rank-1 >= 0 {
				if b.Black.Pawns&squareBit(af, rank-1) != 0 {
					return false
				}
			}
		}
		for _, sf := range [2]int{file - 1, file + 1} {
			if sf >= 0 && sf < 8 && rank-1 >= 0 {
				if b.White.Pawns&squareBit(sf, rank-1) != 0 {
					return true
				}
			}
		}
		return false
	}

	for _, af := range [2]int{file - 1, file + 1} {
		if af >= 0 && af < 8 && rank+1 < 8 {
			if b.White.Pawns&squareBit(af, rank+1) != 0 {
				return false
			}
		}
	}
	for _, sf := range [2]int{file - 1, file + 1} {
		if sf >= 0 && sf < 8 && rank+1 < 8 {
			if b.Black.Pawns&squareBit(sf, rank+1) != 0 {
				return true
			}
		}
	}
	return false
}

// isEndgame holds when both sides are down to at most three non-pawn pieces,
// or a side has nothing but a lone queen. The same predicate gates both the
// endgame king table and null-move pruning.
func isEndgame(b *dragontoothmg.Board) bool {
	whitePieces := bits.OnesCount64(b.White.Knights | b.White.Bishops | b.White.Rooks | b.White.Queens)
	blackPieces := bits.OnesCount64(b.Black.Knights | b.Black.Bishops | b.Black.Rooks | b.Black.Queens)

	if whitePieces <= 3 && blackPieces <= 3 {
		return true
	}
	if whitePieces == 1 && bits.OnesCount64(b.White.Queens) == 1 {
		return true
	}
	if blackPieces == 1 && bits.OnesCount64(b.Black.Queens) == 1 {
		return true
	}
	return false
}

// insufficientMaterial covers the bare-king and king-plus-single-minor draws.
func insufficientMaterial(b *dragontoothmg.Board) bool {
	if b.White.Pawns|b.Black.Pawns != 0 {
		return false
	}
	if b.White.Rooks|b.Black.Rooks|b.White.Queens|b.Black.Queens != 0 {
		return false
	}
	whiteMinors := bits.OnesCount64(b.White.Knights | b.White.Bishops)
	blackMinors := bits.OnesCount64(b.Black.Knights | b.Black.Bishops)
	return whiteMinors <= 1 && blackMinors <= 1
}
