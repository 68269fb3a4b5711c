package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dylhunn/dragontoothmg"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	opts := DefaultOptions()
	opts.Seed = 1
	eng := New(opts)
	if !eng.Initialized() {
		t.Fatalf("engine failed to initialize")
	}
	return eng
}

func TestDifficultyBands(t *testing.T) {
	eng := newTestEngine(t)

	cases := []struct {
		level           int
		depth           int
		quiescenceDepth int
	}{
		{1, 1, 0},
		{5, 1, 0},
		{6, 2, 1},
		{10, 2, 1},
		{11, 3, 2},
		{15, 3, 2},
		{16, 4, 3},
		{20, 4, 3},
	}
	for _, tc := range cases {
		if err := eng.SetDifficulty(tc.level); err != nil {
			t.Fatalf("level %d: %v", tc.level, err)
		}
		if eng.SkillLevel() != tc.level {
			t.Fatalf("level %d not stored, got %d", tc.level, eng.SkillLevel())
		}
		if eng.search.MaxDepth != tc.depth {
			t.Fatalf("level %d: expected depth %d, got %d", tc.level, tc.depth, eng.search.MaxDepth)
		}
		if eng.search.QuiescenceDepth != tc.quiescenceDepth {
			t.Fatalf("level %d: expected quiescence depth %d, got %d",
				tc.level, tc.quiescenceDepth, eng.search.QuiescenceDepth)
		}
	}
}

func TestDifficultyRejectsOutOfRange(t *testing.T) {
	eng := newTestEngine(t)
	for _, level := range []int{0, -3, 21, 100} {
		err := eng.SetDifficulty(level)
		if !errors.Is(err, ErrInvalidDifficulty) {
			t.Fatalf("level %d: expected ErrInvalidDifficulty, got %v", level, err)
		}
	}
}

func TestSettersRequireInitialization(t *testing.T) {
	var eng Engine
	if err := eng.SetNullMove(true); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if err := eng.SetDifficulty(10); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if err := eng.SetOpeningStyle(StyleSolid); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestChooseMoveReturnsLegalMove(t *testing.T) {
	eng := newTestEngine(t)
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)

	move, lines, _ := eng.ChooseMove(&board, time.Second)
	if move == 0 {
		t.Fatalf("expected a move from the starting position")
	}
	if len(lines) == 0 {
		t.Fatalf("expected analysis lines")
	}
	for _, legal := range board.GenerateLegalMoves() {
		if legal == move {
			return
		}
	}
	t.Fatalf("chosen move %s is not legal", move.String())
}

func TestChooseMoveSearchesOutOfBook(t *testing.T) {
	eng := newTestEngine(t)
	if err := eng.SetOpeningBook(false); err != nil {
		t.Fatalf("disabling book: %v", err)
	}
	if err := eng.SetDifficulty(8); err != nil {
		t.Fatalf("setting difficulty: %v", err)
	}

	board := dragontoothmg.ParseFen("8/5pk1/6p1/8/3R4/6P1/5PK1/3r4 w - - 0 40")
	move, lines, _ := eng.ChooseMove(&board, 0)
	if move == 0 {
		t.Fatalf("expected a move")
	}
	if len(lines) == 0 {
		t.Fatalf("expected one analysis line per search depth")
	}
	for _, legal := range board.GenerateLegalMoves() {
		if legal == move {
			return
		}
	}
	t.Fatalf("chosen move %s is not legal", move.String())
}

func TestBookScoreIsSideRelative(t *testing.T) {
	opts := DefaultOptions()
	opts.Seed = 1
	opts.UseLearning = false
	eng := New(opts)
	if !eng.Initialized() {
		t.Fatalf("engine failed to initialize")
	}

	// After 1.e4 black is to move and still in book.
	board := dragontoothmg.ParseFen("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	move, lines, score := eng.ChooseMove(&board, 0)
	if move == 0 {
		t.Fatalf("expected a book move")
	}
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "book:") {
		t.Fatalf("expected the book path, got %v", lines)
	}
	if want := -eng.GetEvaluation(&board); score != want {
		t.Fatalf("expected the mover-relative score %d, got %d", want, score)
	}
}

func TestLearningBufferHoldsMoverRelativeEvals(t *testing.T) {
	opts := DefaultOptions()
	opts.Seed = 1
	opts.UseOpeningBook = false
	eng := New(opts)
	if !eng.Initialized() {
		t.Fatalf("engine failed to initialize")
	}

	// Black to move, up a full queen.
	board := dragontoothmg.ParseFen("4k3/8/q7/8/8/8/8/4K3 b - - 0 1")
	if eval := eng.GetEvaluation(&board); eval >= 0 {
		t.Fatalf("expected a white-relative eval below zero, got %d", eval)
	}
	move, _, score := eng.ChooseMove(&board, 0)
	if move == 0 {
		t.Fatalf("expected a move")
	}
	if score <= 0 {
		t.Fatalf("expected a positive mover-relative search score, got %d", score)
	}

	if err := eng.RecordGameResult(0); err != nil {
		t.Fatalf("recording result: %v", err)
	}
	if err := eng.LearnFromGame(); err != nil {
		t.Fatalf("learning: %v", err)
	}

	record, ok := eng.learning.positions[placementKey(&board)]
	if !ok {
		t.Fatalf("expected the position in the learning store")
	}
	if record.Count != 2 {
		t.Fatalf("expected both record paths to buffer the position, got count %d", record.Count)
	}
	if record.Eval <= 0 {
		t.Fatalf("expected a mover-relative stored eval above zero, got %f", record.Eval)
	}
}

func TestChooseMoveOnTerminalPosition(t *testing.T) {
	eng := newTestEngine(t)
	board := dragontoothmg.ParseFen("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")

	move, _, _ := eng.ChooseMove(&board, time.Second)
	if move != 0 {
		t.Fatalf("expected no move from a mated position, got %s", move.String())
	}
}

func TestRecordGameResultValidation(t *testing.T) {
	eng := newTestEngine(t)
	for _, result := range []float64{-1, 0.3, 2} {
		if err := eng.RecordGameResult(result); err == nil {
			t.Fatalf("expected rejection of result %v", result)
		}
	}
	for _, result := range []float64{0, 0.5, 1} {
		if err := eng.RecordGameResult(result); err != nil {
			t.Fatalf("unexpected error for result %v: %v", result, err)
		}
	}
}

func TestInvalidStyleRejected(t *testing.T) {
	eng := newTestEngine(t)
	if err := eng.SetOpeningStyle("hypermodern"); err == nil {
		t.Fatalf("expected invalid style to be rejected")
	}
	if err := eng.SetOpeningStyle(StyleAggressive); err != nil {
		t.Fatalf("unexpected error for valid style: %v", err)
	}
}

func TestFallbackEngineChoosesLegalMove(t *testing.T) {
	fallback := NewFallbackEngine(7)
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)

	move, ok := fallback.ChooseMove(&board)
	if !ok {
		t.Fatalf("expected a random move from the starting position")
	}
	for _, legal := range board.GenerateLegalMoves() {
		if legal == move {
			return
		}
	}
	t.Fatalf("random move %s is not legal", move.String())
}

func TestFallbackEngineOnTerminalPosition(t *testing.T) {
	fallback := NewFallbackEngine(7)
	board := dragontoothmg.ParseFen("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")

	if _, ok := fallback.ChooseMove(&board); ok {
		t.Fatalf("expected no move from a mated position")
	}
}

func TestTimeBudgetStaysWithinClock(t *testing.T) {
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)

	budget := TimeBudget(&board, 60_000, 1_000)
	if budget <= 0 {
		t.Fatalf("expected a positive budget")
	}
	if budget > time.Duration(0.7*60_000)*time.Millisecond {
		t.Fatalf("budget %s exceeds 70%% of the clock", budget)
	}

	// With the clock nearly gone, bank most of the increment instead.
	banked := TimeBudget(&board, 500, 1_000)
	if banked != 350*time.Millisecond {
		t.Fatalf("expected panic budget capped at 70%% of 500ms, got %s", banked)
	}
}
