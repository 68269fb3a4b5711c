package engine

import (
	"testing"

	"github.com/dylhunn/dragontoothmg"
	"github.com/matryer/is"
)

func TestTransTableStoreAndLookup(t *testing.T) {
	is := is.New(t)
	tt := NewTransTable(16)
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)
	move, ok := MoveFromUCI(&board, "e2e4")
	is.True(ok)

	tt.Put(&board, 42, move, 3)

	entry, hit := tt.Get(&board, 3)
	is.True(hit)
	is.Equal(entry.Score, 42)
	is.Equal(entry.BestMove, move)
	is.Equal(entry.Depth, 3)

	// A deeper request must not be served by a shallower entry.
	_, hit = tt.Get(&board, 4)
	is.True(!hit)

	_, hit = tt.Get(&board, 2)
	is.True(hit)
}

func TestZobristHashIsDeterministic(t *testing.T) {
	is := is.New(t)
	tt := NewTransTable(16)
	a := dragontoothmg.ParseFen(dragontoothmg.Startpos)
	b := dragontoothmg.ParseFen(dragontoothmg.Startpos)
	is.Equal(tt.Hash(&a), tt.Hash(&b))

	move, ok := MoveFromUCI(&a, "e2e4")
	is.True(ok)
	a.Apply(move)
	is.True(tt.Hash(&a) != tt.Hash(&b))
}

func TestZobristHashCoversCastlingAndEnPassant(t *testing.T) {
	is := is.New(t)
	tt := NewTransTable(16)

	full := dragontoothmg.ParseFen("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	noCastle := dragontoothmg.ParseFen("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1")
	is.True(tt.Hash(&full) != tt.Hash(&noCastle))

	withEp := dragontoothmg.ParseFen("rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2")
	withoutEp := dragontoothmg.ParseFen("rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2")
	is.True(tt.Hash(&withEp) != tt.Hash(&withoutEp))
}

func TestDepthPreferredReplacement(t *testing.T) {
	is := is.New(t)
	tt := NewTransTable(16)
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)

	tt.Put(&board, 100, 0, 4)
	tt.Put(&board, -50, 0, 2) // shallower, must be rejected

	entry, hit := tt.Get(&board, 0)
	is.True(hit)
	is.Equal(entry.Score, 100)
	is.Equal(entry.Depth, 4)
	is.Equal(tt.Collisions, uint64(1))

	tt.Put(&board, 7, 0, 5)
	entry, hit = tt.Get(&board, 5)
	is.True(hit)
	is.Equal(entry.Score, 7)
}

func TestLRUEvictionDropsColdestEntry(t *testing.T) {
	is := is.New(t)
	tt := NewTransTable(2)

	first := dragontoothmg.ParseFen(dragontoothmg.Startpos)
	second := dragontoothmg.ParseFen("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	third := dragontoothmg.ParseFen("rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2")

	tt.Put(&first, 1, 0, 1)
	tt.Put(&second, 2, 0, 1)

	// Touch the first entry so the second becomes the eviction candidate.
	_, hit := tt.Get(&first, 1)
	is.True(hit)

	tt.Put(&third, 3, 0, 1)
	is.Equal(tt.Len(), 2)

	_, hit = tt.Get(&second, 1)
	is.True(!hit)
	_, hit = tt.Get(&first, 1)
	is.True(hit)
	_, hit = tt.Get(&third, 1)
	is.True(hit)
}

func TestClearEmptiesTable(t *testing.T) {
	is := is.New(t)
	tt := NewTransTable(16)
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)
	tt.Put(&board, 1, 0, 1)
	is.Equal(tt.Len(), 1)

	tt.Clear()
	is.Equal(tt.Len(), 0)
	_, hit := tt.Get(&board, 1)
	is.True(!hit)
}
