package engine

// Piece values in centipawns, indexed by dragontoothmg.Piece.
// The king value never enters material sums; it only exists so the
// array lines up with the piece enum.
var PieceValue = [7]int{0, 100, 320, 330, 500, 900, 20000}

// Piece-square tables, in centipawns. Indexed by square (a1 = 0), applied
// as-is for white and mirrored vertically (sq ^ 56) for black.
var pawnTable = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightTable = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopTable = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 5, 5, 5, 5, -10,
	-10, 0, 5, 0, 0, 5, 0, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookTable = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenTable = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingMiddleTable = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

var kingEndTable = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

// Indexed by piece type; the king slot holds the middlegame table, the
// endgame king table is swapped in by the evaluator when appropriate.
var pieceSquareTables = [7]*[64]int{
	nil,
	&pawnTable,
	&knightTable,
	&bishopTable,
	&rookTable,
	&queenTable,
	&kingMiddleTable,
}

// Pawn structure terms.
const (
	isolatedPawnPenalty = 20
	doubledPawnPenalty  = 10
	backwardPawnPenalty = 8
	pawnShieldBonus     = 10
)

// Passed pawn bonus by rank, white perspective; flipped for black.
var passedPawnBonus = [8]int{0, 10, 20, 40, 60, 90, 120, 0}

// Mobility weight per moving piece type.
var mobilityBonus = [7]int{0, 0, 4, 3, 2, 1, 0}

// King-ring attacker weight per attacker type.
var kingAttackWeight = [7]int{0, 0, 2, 2, 3, 5, 0}

const (
	bishopPairBonus        = 30
	knightOutpostBonus     = 15
	rookOpenFileBonus      = 20
	rookSemiOpenFileBonus  = 10
	kingAttackerMultiplier = 5
)

// MateScore is the checkmate score magnitude; mate-distance adjustments
// subtract plies from it so quicker mates score higher.
const MateScore = 10000
