package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"
)

func newTestBook(t *testing.T, path string) *OpeningBook {
	t.Helper()
	book, err := NewOpeningBook(path, 1, zerolog.Nop())
	if err != nil {
		t.Fatalf("building opening book: %v", err)
	}
	return book
}

func TestStartingPositionIsInBook(t *testing.T) {
	book := newTestBook(t, "")
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)
	if !book.InBook(&board) {
		t.Fatalf("expected the starting position in the book")
	}
}

func TestBookMoveIsLegal(t *testing.T) {
	book := newTestBook(t, "")
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)

	move, ok := book.TryMove(&board)
	if !ok {
		t.Fatalf("expected a book move from the starting position")
	}
	for _, legal := range board.GenerateLegalMoves() {
		if legal == move {
			return
		}
	}
	t.Fatalf("book move %s is not legal", move.String())
}

func TestTrapFiresInTrickyStyle(t *testing.T) {
	book := newTestBook(t, "")
	if err := book.SetStyle(StyleTricky); err != nil {
		t.Fatalf("setting style: %v", err)
	}

	// Stafford Gambit bait position; the trap line grabs the pawn.
	board := dragontoothmg.ParseFen("r1bqkbnr/ppp2ppp/2n5/3p4/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 0 4")
	move, ok := book.TryMove(&board)
	if !ok {
		t.Fatalf("expected the trap move to fire in tricky style")
	}
	if got := move.String(); got != "e4d5" {
		t.Fatalf("expected trap move e4d5, got %s", got)
	}
}

func TestLoadBookFileReplacesEmbeddedSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.json")
	custom := `{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR": [{"uci": "d2d4", "weight": 100}]}`
	if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
		t.Fatalf("writing book file: %v", err)
	}

	book := newTestBook(t, "")
	if err := book.LoadBookFile(path); err != nil {
		t.Fatalf("loading book file: %v", err)
	}

	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)
	moves := book.Moves(&board, 10)
	if len(moves) != 1 || moves[0].UCI != "d2d4" {
		t.Fatalf("expected only d2d4 after replacement, got %v", moves)
	}
	if err := book.LoadBookFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected an error for a missing book file")
	}
}

func TestMovesAreSortedByWeight(t *testing.T) {
	book := newTestBook(t, "")
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)

	moves := book.Moves(&board, 3)
	if len(moves) != 3 {
		t.Fatalf("expected 3 book moves, got %d", len(moves))
	}
	for i := 1; i < len(moves); i++ {
		if moves[i].Weight > moves[i-1].Weight {
			t.Fatalf("moves not sorted by weight: %v", moves)
		}
	}
	if moves[0].UCI != "e2e4" {
		t.Fatalf("expected e2e4 to carry the top weight, got %s", moves[0].UCI)
	}
}

func TestMinWeightFiltersThinMoves(t *testing.T) {
	book := newTestBook(t, "")
	book.MinWeight = 1 << 20
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)

	if _, ok := book.TryMove(&board); ok {
		t.Fatalf("expected no book move once every entry is filtered out")
	}
	if moves := book.Moves(&board, 5); len(moves) != 0 {
		t.Fatalf("expected empty move list, got %v", moves)
	}
}

func TestWeightedSelectionFavorsHeavyMoves(t *testing.T) {
	book := newTestBook(t, "")
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)

	counts := make(map[string]int)
	for i := 0; i < 400; i++ {
		move, ok := book.TryMove(&board)
		if !ok {
			t.Fatalf("expected a book move on attempt %d", i)
		}
		counts[move.String()]++
	}
	// e2e4 carries weight 40 of 102; g1f3 only 12.
	if counts["e2e4"] <= counts["g1f3"] {
		t.Fatalf("weighted pick did not favor the heavy move: %v", counts)
	}
	if len(counts) < 2 {
		t.Fatalf("expected some variety in picks, got %v", counts)
	}
}

func TestRecordGameMovesUpdatesRepertoire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repertoire.json")
	book := newTestBook(t, path)

	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)
	e4, ok := MoveFromUCI(&board, "e2e4")
	if !ok {
		t.Fatalf("resolving e2e4")
	}
	after := board
	after.Apply(e4)
	e5, ok := MoveFromUCI(&after, "e7e5")
	if !ok {
		t.Fatalf("resolving e7e5")
	}

	book.RecordGameMoves([]dragontoothmg.Move{e4, e5}, 1.0)

	whiteKey := positionMoveKey(placementKey(&board), "e2e4")
	stat, ok := book.repertoire.Openings[whiteKey]
	if !ok {
		t.Fatalf("expected repertoire entry for %s", whiteKey)
	}
	if stat.Games != 1 || stat.Wins != 1 || stat.SuccessRate != 1.0 {
		t.Fatalf("unexpected white stat: %+v", stat)
	}

	blackKey := positionMoveKey(placementKey(&after), "e7e5")
	stat, ok = book.repertoire.Openings[blackKey]
	if !ok {
		t.Fatalf("expected repertoire entry for %s", blackKey)
	}
	// Black lost this game, so its move is charged the loss.
	if stat.Games != 1 || stat.Losses != 1 || stat.SuccessRate != 0.0 {
		t.Fatalf("unexpected black stat: %+v", stat)
	}

	// The repertoire round-trips through the file.
	reloaded := newTestBook(t, path)
	if _, ok := reloaded.repertoire.Openings[whiteKey]; !ok {
		t.Fatalf("expected persisted repertoire entry after reload")
	}
}

func TestStyleWeightClamping(t *testing.T) {
	rep := newRepertoire()
	key := "somepos:e2e4"

	for i := 0; i < 30; i++ {
		rep.adjustStyleWeight(StyleAggressive, key, 1.0)
	}
	if w := rep.Styles[StyleAggressive][key]; w != 2.0 {
		t.Fatalf("expected weight clamped at 2.0, got %v", w)
	}

	for i := 0; i < 30; i++ {
		rep.adjustStyleWeight(StyleAggressive, key, 0.0)
	}
	if w := rep.Styles[StyleAggressive][key]; w != 0.5 {
		t.Fatalf("expected weight clamped at 0.5, got %v", w)
	}
}
