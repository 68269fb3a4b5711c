package engine

import (
	"math"
	"os"
	"time"

	"github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

const (
	defaultLearningRate = 0.1
	defaultMaxPositions = 10000
)

// LearnedPosition is the per-position record in the learning database.
// Eval is centipawns; ResultSum accumulates side-relative game outcomes.
type LearnedPosition struct {
	Eval      float64 `json:"eval"`
	Count     int     `json:"count"`
	ResultSum float64 `json:"result_sum"`
}

type learningFileStats struct {
	PositionsLearned int    `json:"positions_learned"`
	GamesLearned     int    `json:"games_learned"`
	LastUpdate       string `json:"last_update"`
}

type learningFile struct {
	Positions map[string]*LearnedPosition `json:"positions"`
	Stats     learningFileStats           `json:"stats"`
}

type bufferedPosition struct {
	key         string
	eval        float64
	whiteToMove bool
}

// LearningStore nudges the engine's evaluations toward observed game
// outcomes. Positions are keyed by piece placement only, deliberately
// generalizing across move counters and castling detail. Per-game positions
// sit in a memory buffer until LearnFromGame folds them into the database.
type LearningStore struct {
	path string

	LearningRate float64
	MaxPositions int

	positions  map[string]*LearnedPosition
	buffer     []bufferedPosition
	gameResult *float64

	positionsLearned int
	gamesLearned     int
	cacheHits        int

	logger zerolog.Logger
}

// NewLearningStore opens the database at path, starting empty when the file
// is missing or unreadable. An empty path keeps the store memory-only.
func NewLearningStore(path string, logger zerolog.Logger) *LearningStore {
	ls := &LearningStore{
		path:         path,
		LearningRate: defaultLearningRate,
		MaxPositions: defaultMaxPositions,
		positions:    make(map[string]*LearnedPosition),
		logger:       logger,
	}
	if path == "" {
		return ls
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Debug().Str("path", path).Msg("no learning data found, starting fresh")
		return ls
	}
	var file learningFile
	if err := loadJSONFile(path, &file); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("loading learning data failed, starting fresh")
		return ls
	}
	if file.Positions != nil {
		ls.positions = file.Positions
	}
	ls.positionsLearned = file.Stats.PositionsLearned
	ls.gamesLearned = file.Stats.GamesLearned
	logger.Info().Int("positions", len(ls.positions)).Int("games", ls.gamesLearned).Msg("loaded learning data")
	return ls
}

// Len returns the number of stored positions.
func (ls *LearningStore) Len() int {
	return len(ls.positions)
}

// RecordPosition buffers a position and its side-to-move-relative evaluation
// for the running game. learnedEvaluation flips stored evals back to white's
// perspective for black-to-move positions, so both record paths must agree.
func (ls *LearningStore) RecordPosition(b *dragontoothmg.Board, eval int) {
	ls.buffer = append(ls.buffer, bufferedPosition{
		key:         placementKey(b),
		eval:        float64(eval),
		whiteToMove: b.Wtomove,
	})
}

// RecordResult stores the finished game's outcome: 1 for a white win,
// 0.5 for a draw, 0 for a black win.
func (ls *LearningStore) RecordResult(result float64) {
	ls.gameResult = &result
}

// LearnFromGame folds every buffered position into the database: the stored
// evaluation moves toward the actual outcome in proportion to how far the
// outcome sat from the evaluation's own expectation. Saves afterwards.
func (ls *LearningStore) LearnFromGame() {
	if ls.gameResult == nil || len(ls.buffer) == 0 {
		ls.logger.Debug().Msg("no game data to learn from")
		return
	}

	result := *ls.gameResult
	for _, pos := range ls.buffer {
		sideResult := result
		if !pos.whiteToMove {
			sideResult = 1.0 - result
		}

		record, ok := ls.positions[pos.key]
		if !ok {
			record = &LearnedPosition{Eval: pos.eval}
			ls.positions[pos.key] = record
		}
		record.Count++
		record.ResultSum += sideResult

		expected := expectedResult(pos.eval)
		record.Eval += ls.LearningRate * (sideResult - expected)

		ls.positionsLearned++
	}
	ls.gamesLearned++

	ls.buffer = nil
	ls.gameResult = nil

	if err := ls.Save(); err != nil {
		ls.logger.Warn().Err(err).Msg("saving learning data failed")
	}
}

// AdjustEvaluation blends a base evaluation with the learned one for the
// position, weighted by sample count and capped at an even split.
func (ls *LearningStore) AdjustEvaluation(b *dragontoothmg.Board, baseEval int) int {
	learned, ok := ls.learnedEvaluation(b)
	if !ok {
		return baseEval
	}
	count := ls.positions[placementKey(b)].Count
	weight := min(0.5, float64(count)/20.0)
	return int((1-weight)*float64(baseEval) + weight*learned)
}

// learnedEvaluation derives the stored estimate for a position, blending the
// nudged evaluation with the observed win rate as samples accumulate.
func (ls *LearningStore) learnedEvaluation(b *dragontoothmg.Board) (float64, bool) {
	record, ok := ls.positions[placementKey(b)]
	if !ok {
		return 0, false
	}
	ls.cacheHits++

	winRate := 0.5
	if record.Count > 0 {
		winRate = record.ResultSum / float64(record.Count)
	}
	confidence := min(1.0, float64(record.Count)/10.0)
	blended := (1-confidence)*record.Eval + confidence*winRateToEval(winRate)

	if !b.Wtomove {
		blended = -blended
	}
	return blended, true
}

// Save trims the database to MaxPositions, dropping the least-sampled
// entries first, then rewrites the file.
func (ls *LearningStore) Save() error {
	if len(ls.positions) > ls.MaxPositions {
		keys := make([]string, 0, len(ls.positions))
		for key := range ls.positions {
			keys = append(keys, key)
		}
		slices.SortFunc(keys, func(a, b string) bool {
			return ls.positions[a].Count > ls.positions[b].Count
		})
		trimmed := make(map[string]*LearnedPosition, ls.MaxPositions)
		for _, key := range keys[:ls.MaxPositions] {
			trimmed[key] = ls.positions[key]
		}
		ls.positions = trimmed
	}

	if ls.path == "" {
		return nil
	}
	file := learningFile{
		Positions: ls.positions,
		Stats: learningFileStats{
			PositionsLearned: ls.positionsLearned,
			GamesLearned:     ls.gamesLearned,
			LastUpdate:       time.Now().Format(time.RFC3339),
		},
	}
	return saveJSONFile(ls.path, file)
}

// Clear drops everything and persists the empty database.
func (ls *LearningStore) Clear() {
	ls.positions = make(map[string]*LearnedPosition)
	ls.buffer = nil
	ls.gameResult = nil
	ls.positionsLearned = 0
	ls.gamesLearned = 0
	ls.cacheHits = 0
	if err := ls.Save(); err != nil {
		ls.logger.Warn().Err(err).Msg("saving learning data failed")
	}
}

// expectedResult maps a centipawn evaluation to a win expectancy in [0, 1];
// +400cp comes out near 0.91, mirroring Elo expectancy.
func expectedResult(eval float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, -eval/400.0))
}

// winRateToEval is the inverse transform, clamped away from the poles.
func winRateToEval(winRate float64) float64 {
	winRate = max(0.001, min(0.999, winRate))
	return 400.0 * math.Log10(winRate/(1.0-winRate))
}

// LearningStats summarizes the store for diagnostics.
type LearningStats struct {
	PositionsStored  int
	PositionsLearned int
	GamesLearned     int
	CacheHits        int
}

func (ls *LearningStore) Stats() LearningStats {
	return LearningStats{
		PositionsStored:  len(ls.positions),
		PositionsLearned: ls.positionsLearned,
		GamesLearned:     ls.gamesLearned,
		CacheHits:        ls.cacheHits,
	}
}
