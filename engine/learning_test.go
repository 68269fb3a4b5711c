package engine

import (
	"path/filepath"
	"testing"

	"github.com/dylhunn/dragontoothmg"
	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestLearningNudgesTowardOutcome(t *testing.T) {
	is := is.New(t)
	ls := NewLearningStore("", zerolog.Nop())
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)

	ls.RecordPosition(&board, 0)
	ls.RecordResult(1.0) // white won
	ls.LearnFromGame()

	is.Equal(ls.Len(), 1)
	record := ls.positions[placementKey(&board)]
	is.Equal(record.Count, 1)
	is.Equal(record.ResultSum, 1.0)
	// A neutral eval expects 0.5; a win nudges it up by rate * 0.5.
	is.True(record.Eval > 0.04 && record.Eval < 0.06)
}

func TestLearningInvertsResultForBlack(t *testing.T) {
	is := is.New(t)
	ls := NewLearningStore("", zerolog.Nop())
	board := dragontoothmg.ParseFen("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1")

	ls.RecordPosition(&board, 0)
	ls.RecordResult(1.0) // white won, so black's side result is 0
	ls.LearnFromGame()

	record := ls.positions[placementKey(&board)]
	is.True(record.Eval < 0)
	is.Equal(record.ResultSum, 0.0)
}

func TestLearnFromGameNeedsBothBufferAndResult(t *testing.T) {
	is := is.New(t)
	ls := NewLearningStore("", zerolog.Nop())
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)

	ls.LearnFromGame() // nothing recorded
	is.Equal(ls.Len(), 0)

	ls.RecordPosition(&board, 10)
	ls.LearnFromGame() // no result yet
	is.Equal(ls.Len(), 0)

	ls.RecordResult(0.5)
	ls.LearnFromGame()
	is.Equal(ls.Len(), 1)
	is.Equal(ls.Stats().GamesLearned, 1)
}

func TestAdjustEvaluationBlendsWithConfidence(t *testing.T) {
	is := is.New(t)
	ls := NewLearningStore("", zerolog.Nop())
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)

	// Unknown positions pass the base eval through untouched.
	is.Equal(ls.AdjustEvaluation(&board, 123), 123)

	// A heavily sampled winning position pulls the eval up, capped at an
	// even split between base and learned value.
	ls.positions[placementKey(&board)] = &LearnedPosition{Eval: 200, Count: 40, ResultSum: 40}
	adjusted := ls.AdjustEvaluation(&board, 0)
	is.True(adjusted > 400)  // half of winRateToEval(0.999) is ~600
	is.True(adjusted < 700)
}

func TestSaveTrimsLeastSampledPositions(t *testing.T) {
	is := is.New(t)
	ls := NewLearningStore("", zerolog.Nop())
	ls.MaxPositions = 2

	ls.positions["a"] = &LearnedPosition{Count: 1}
	ls.positions["b"] = &LearnedPosition{Count: 5}
	ls.positions["c"] = &LearnedPosition{Count: 3}

	is.NoErr(ls.Save())
	is.Equal(ls.Len(), 2)
	_, kept := ls.positions["b"]
	is.True(kept)
	_, kept = ls.positions["c"]
	is.True(kept)
	_, stillThere := ls.positions["a"]
	is.True(!stillThere)
}

func TestLearningPersistenceRoundtrip(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "learning.json.zst")

	ls := NewLearningStore(path, zerolog.Nop())
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)
	ls.RecordPosition(&board, 25)
	ls.RecordResult(1.0)
	ls.LearnFromGame() // saves

	reloaded := NewLearningStore(path, zerolog.Nop())
	is.Equal(reloaded.Len(), 1)
	is.Equal(reloaded.Stats().GamesLearned, 1)
	record := reloaded.positions[placementKey(&board)]
	is.Equal(record.Count, 1)
}

func TestExpectedResultCurve(t *testing.T) {
	is := is.New(t)
	is.Equal(expectedResult(0), 0.5)
	is.True(expectedResult(400) > 0.9)
	is.True(expectedResult(-400) < 0.1)

	// winRateToEval is the inverse mapping, clamped away from 0 and 1.
	is.True(winRateToEval(0.5) == 0)
	is.True(winRateToEval(1.0) > 1000)
	is.True(winRateToEval(0.0) < -1000)
}
