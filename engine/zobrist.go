package engine

import (
	"math/bits"
	"strings"

	"github.com/dylhunn/dragontoothmg"
)

// zobristSeed is fixed so every table instance hashes identically across
// runs, which keeps cache behavior reproducible.
const zobristSeed uint64 = 0x9E3779B97F4A7C15

// zobristTable holds one pseudorandom 64-bit constant per (color, piece,
// square) combination plus castling, en-passant and side-to-move constants.
// Built once at construction and never mutated afterwards.
type zobristTable struct {
	pieces     [2][7][64]uint64
	castling   [4]uint64 // K, Q, k, q
	epSquare   [64]uint64
	sideToMove uint64
}

// splitmix64 steps the seed state and returns the next pseudorandom value.
func splitmix64(state *uint64) uint64 {
	*state += 0x9E3779B97F4A7C15
	z := *state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func newZobristTable(seed uint64) *zobristTable {
	state := seed
	t := &zobristTable{}
	for color := 0; color < 2; color++ {
		for pt := dragontoothmg.Pawn; pt <= dragontoothmg.King; pt++ {
			for sq := 0; sq < 64; sq++ {
				t.pieces[color][pt][sq] = splitmix64(&state)
			}
		}
	}
	for i := range t.castling {
		t.castling[i] = splitmix64(&state)
	}
	for sq := range t.epSquare {
		t.epSquare[sq] = splitmix64(&state)
	}
	t.sideToMove = splitmix64(&state)
	return t
}

// hash computes the full Zobrist hash of a position. Piece placement comes
// straight off the bitboards; castling rights and the en-passant square are
// taken from the FEN serialization since the board does not expose them.
func (t *zobristTable) hash(b *dragontoothmg.Board) uint64 {
	var h uint64

	for pt := dragontoothmg.Piece(dragontoothmg.Pawn); pt <= dragontoothmg.King; pt++ {
		for x := pieceBitboard(&b.White, pt); x != 0; x &= x - 1 {
			h ^= t.pieces[0][pt][bits.TrailingZeros64(x)]
		}
		for x := pieceBitboard(&b.Black, pt); x != 0; x &= x - 1 {
			h ^= t.pieces[1][pt][bits.TrailingZeros64(x)]
		}
	}

	fields := strings.Fields(b.ToFen())
	if len(fields) >= 3 {
		if strings.Contains(fields[2], "K") {
			h ^= t.castling[0]
		}
		if strings.Contains(fields[2], "Q") {
			h ^= t.castling[1]
		}
		if strings.Contains(fields[2], "k") {
			h ^= t.castling[2]
		}
		if strings.Contains(fields[2], "q") {
			h ^= t.castling[3]
		}
	}
	if len(fields) >= 4 && fields[3] != "-" && len(fields[3]) == 2 {
		file := int(fields[3][0] - 'a')
		rank := int(fields[3][1] - '1')
		if file >= 0 && file < 8 && rank >= 0 && rank < 8 {
			h ^= t.epSquare[rank*8+file]
		}
	}

	if !b.Wtomove {
		h ^= t.sideToMove
	}
	return h
}
