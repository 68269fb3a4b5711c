package engine

import (
	"github.com/dylhunn/dragontoothmg"
)

// Move ordering values, indexed by dragontoothmg.Piece. These are coarser
// than the evaluation piece values on purpose; only relative order matters.
var orderingValue = [7]int32{0, 10, 30, 30, 50, 90, 900}

const (
	promotionOrderBonus = 900
	checkOrderBonus     = 50
)

type scoredMove struct {
	move  dragontoothmg.Move
	score int32
}

type moveList struct {
	moves []scoredMove
}

// GetPieceTypeAtPosition returns the piece type occupying a square within
// the given side's bitboards, if any.
func GetPieceTypeAtPosition(position uint8, bitboards *dragontoothmg.Bitboards) (pieceType dragontoothmg.Piece, occupied bool) {
	if bitboards.Pawns&(1<<position) > 0 {
		return dragontoothmg.Pawn, true
	} else if bitboards.Knights&(1<<position) > 0 {
		return dragontoothmg.Knight, true
	} else if bitboards.Bishops&(1<<position) > 0 {
		return dragontoothmg.Bishop, true
	} else if bitboards.Rooks&(1<<position) > 0 {
		return dragontoothmg.Rook, true
	} else if bitboards.Queens&(1<<position) > 0 {
		return dragontoothmg.Queen, true
	} else if bitboards.Kings&(1<<position) > 0 {
		return dragontoothmg.King, true
	}
	return 0, false
}

// givesCheck reports whether the move leaves the opponent in check. The move
// is applied and immediately taken back.
func givesCheck(b *dragontoothmg.Board, move dragontoothmg.Move) bool {
	unapply := b.Apply(move)
	inCheck := b.OurKingInCheck()
	unapply()
	return inCheck
}

// orderNextMove selection-sorts a single move into place: the best remaining
// move is swapped to currIndex. Ordering one move at a time means a beta
// cutoff never pays for sorting moves it will not visit.
func orderNextMove(currIndex int, moves *moveList) {
	bestIndex := currIndex
	bestScore := moves.moves[bestIndex].score

	for index := bestIndex + 1; index < len(moves.moves); index++ {
		if moves.moves[index].score > bestScore {
			bestIndex = index
			bestScore = moves.moves[index].score
		}
	}

	moves.moves[currIndex], moves.moves[bestIndex] = moves.moves[bestIndex], moves.moves[currIndex]
}

// scoreMoves assigns ordering scores: MVV-LVA for captures, flat bonuses for
// promotions and checking moves, and a small hash-derived tiebreak so equal
// moves are not always explored in generation order. The tiebreak depends
// only on the move and the salt, keeping searches reproducible.
func (s *SearchEngine) scoreMoves(board *dragontoothmg.Board, moves []dragontoothmg.Move) moveList {
	own, opponent := &board.White, &board.Black
	if !board.Wtomove {
		own, opponent = &board.Black, &board.White
	}

	list := moveList{moves: make([]scoredMove, len(moves))}
	for i, move := range moves {
		var score int32

		if dragontoothmg.IsCapture(move, board) {
			victim, occupied := GetPieceTypeAtPosition(move.To(), opponent)
			if !occupied {
				victim = dragontoothmg.Pawn // en passant
			}
			aggressor, _ := GetPieceTypeAtPosition(move.From(), own)
			score += 10*orderingValue[victim] - orderingValue[aggressor]
		}

		if move.Promote() > 0 {
			score += promotionOrderBonus
		}

		if givesCheck(board, move) {
			score += checkOrderBonus
		}

		tiebreakState := uint64(move) ^ s.tiebreakSalt
		score += int32(splitmix64(&tiebreakState) % 100)

		list.moves[i] = scoredMove{move: move, score: score}
	}
	return list
}
