package engine

import (
	"fmt"
	"time"

	"github.com/dylhunn/dragontoothmg"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Engine composes the search, evaluator, transposition cache, opening book
// and learning store behind the single interface front ends call. Every
// subsystem can be toggled at runtime without reinitialization.
//
// Construction never fails outright: after MaxRetries failed initialization
// attempts the engine degrades to a random-move fallback instead of taking
// the application down with it.
type Engine struct {
	opts   Options
	logger zerolog.Logger

	eval     *Evaluator
	tt       *TransTable
	search   *SearchEngine
	book     *OpeningBook
	learning *LearningStore
	fallback *FallbackEngine

	skillLevel    int
	initialized   bool
	usingFallback bool
}

// adjustedEvaluator is the leaf evaluator the search sees: the static
// evaluation plus the learning store's bias when learning is enabled.
type adjustedEvaluator struct {
	e *Engine
}

func (a adjustedEvaluator) Evaluate(b *dragontoothmg.Board) int {
	score := a.e.eval.Evaluate(b)
	if a.e.opts.UseLearning && a.e.learning != nil {
		score = a.e.learning.AdjustEvaluation(b, score)
	}
	return score
}

// New builds an engine from opts, retrying initialization up to
// opts.MaxRetries times before settling for the fallback random mover.
func New(opts Options) *Engine {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.SkillLevel == 0 {
		opts.SkillLevel = DefaultSkillLevel
	}
	if opts.Style == "" {
		opts.Style = StyleBalanced
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	e := &Engine{
		opts:     opts,
		logger:   opts.Logger,
		fallback: NewFallbackEngine(opts.Seed),
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		if err := e.initialize(); err != nil {
			lastErr = err
			e.logger.Warn().Err(err).Int("attempt", attempt).Msg("engine initialization failed")
			continue
		}
		e.initialized = true
		break
	}
	if !e.initialized {
		e.logger.Error().Err(lastErr).Msg("all initialization attempts failed, using random-move fallback")
		e.usingFallback = true
	}
	return e
}

func (e *Engine) initialize() error {
	e.eval = NewEvaluator()
	e.eval.Positional = e.opts.UsePositionalEval

	e.tt = nil
	if e.opts.UseTransposition {
		e.tt = NewTransTable(e.opts.TransTableSize)
	}

	book, err := NewOpeningBook(e.opts.RepertoirePath, e.opts.Seed, e.logger)
	if err != nil {
		return errors.Wrap(err, "initializing opening book")
	}
	if err := book.SetStyle(e.opts.Style); err != nil {
		return errors.Wrap(err, "setting opening style")
	}
	if e.opts.BookPath != "" {
		if err := book.LoadBookFile(e.opts.BookPath); err != nil {
			return errors.Wrap(err, "loading opening book file")
		}
	}
	e.book = book

	e.learning = NewLearningStore(e.opts.LearningPath, e.logger)

	e.search = NewSearchEngine(adjustedEvaluator{e}, e.tt)
	e.search.UseQuiescence = e.opts.UseQuiescence
	e.search.UseNullMove = e.opts.UseNullMove
	e.search.SetTiebreakSalt(uint64(e.opts.Seed))
	e.search.SetLogger(e.logger)

	e.skillLevel = e.opts.SkillLevel
	e.search.MaxDepth = depthForSkillLevel(e.skillLevel)
	e.search.QuiescenceDepth = quiescenceDepthForSkillLevel(e.skillLevel)
	return nil
}

// Initialized reports whether the full engine came up; false means the
// random-move fallback is serving all requests.
func (e *Engine) Initialized() bool {
	return e.initialized
}

// SetDifficulty maps a 1-20 skill level onto search and quiescence depth.
func (e *Engine) SetDifficulty(level int) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	if level < MinSkillLevel || level > MaxSkillLevel {
		return errors.Wrapf(ErrInvalidDifficulty, "level %d", level)
	}
	e.skillLevel = level
	e.search.MaxDepth = depthForSkillLevel(level)
	e.search.QuiescenceDepth = quiescenceDepthForSkillLevel(level)
	e.logger.Debug().
		Int("level", level).
		Int("depth", e.search.MaxDepth).
		Int("qdepth", e.search.QuiescenceDepth).
		Msg("difficulty set")
	return nil
}

// SkillLevel returns the current difficulty setting.
func (e *Engine) SkillLevel() int {
	return e.skillLevel
}

// SetOpeningBook toggles book consultation.
func (e *Engine) SetOpeningBook(enabled bool) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	e.opts.UseOpeningBook = enabled
	return nil
}

// SetTranspositionTable toggles the cache; maxSize <= 0 keeps the default
// capacity. Disabling drops all cached entries.
func (e *Engine) SetTranspositionTable(enabled bool, maxSize int) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	e.opts.UseTransposition = enabled
	if enabled {
		e.tt = NewTransTable(maxSize)
	} else {
		e.tt = nil
	}
	e.search.SetTranspositionTable(e.tt)
	return nil
}

// SetSearchDepth overrides the search depth directly, bypassing the skill
// level bands. Front ends use this for explicit "go depth" requests.
func (e *Engine) SetSearchDepth(depth int) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	if depth < 1 {
		return errors.Errorf("search depth must be positive, got %d", depth)
	}
	e.search.MaxDepth = depth
	return nil
}

// SetNullMove toggles null-move pruning.
func (e *Engine) SetNullMove(enabled bool) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	e.opts.UseNullMove = enabled
	e.search.UseNullMove = enabled
	return nil
}

// SetQuiescence toggles quiescence search.
func (e *Engine) SetQuiescence(enabled bool) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	e.opts.UseQuiescence = enabled
	e.search.UseQuiescence = enabled
	return nil
}

// SetPositionalEval toggles the positional evaluation terms; disabled, the
// evaluator counts bare material.
func (e *Engine) SetPositionalEval(enabled bool) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	e.opts.UsePositionalEval = enabled
	e.eval.Positional = enabled
	return nil
}

// SetLearning toggles the learning store's influence and recording.
func (e *Engine) SetLearning(enabled bool) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	e.opts.UseLearning = enabled
	return nil
}

// SetOpeningStyle switches the book's style partition.
func (e *Engine) SetOpeningStyle(style string) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	if err := e.book.SetStyle(style); err != nil {
		return err
	}
	e.opts.Style = style
	return nil
}

// ChooseMove picks a move for the position within timeBudget (<= 0 means
// unbounded). The returned analysis lines trace the decision; the score is
// centipawns from the side to move's perspective. A zero move means the position has
// no legal moves. Internal failures degrade to a random legal move rather
// than returning nothing.
func (e *Engine) ChooseMove(b *dragontoothmg.Board, timeBudget time.Duration) (move dragontoothmg.Move, lines []string, score int) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Msg("move selection failed, picking random move")
			move, _ = e.fallback.ChooseMove(b)
			lines = []string{"recovered: random move"}
			score = 0
		}
	}()

	legal := b.GenerateLegalMoves()
	if len(legal) == 0 {
		return 0, nil, 0
	}

	if e.usingFallback {
		move, _ = e.fallback.ChooseMove(b)
		return move, []string{fmt.Sprintf("%s: 0.00 (random)", move.String())}, 0
	}

	if e.opts.UseOpeningBook {
		if bookMove, ok := e.book.TryMove(b); ok {
			e.logger.Debug().Str("move", bookMove.String()).Msg("book move")
			eval := e.GetEvaluation(b)
			if !b.Wtomove {
				eval = -eval
			}
			return bookMove, []string{fmt.Sprintf("book: %s", bookMove.String())}, eval
		}
	}

	result := e.search.Search(b, 0, timeBudget)
	if result.BestMove == 0 {
		// First iteration ran out of time; any legal move beats none.
		move, _ = e.fallback.ChooseMove(b)
		return move, []string{fmt.Sprintf("%s: 0.00 (random)", move.String())}, 0
	}

	if e.opts.UseLearning {
		e.learning.RecordPosition(b, result.Score)
	}
	return result.BestMove, result.Lines, result.Score
}

// GetEvaluation returns the centipawn score of the position from white's
// perspective, learning-adjusted when learning is on, and buffers the
// position for end-of-game learning.
func (e *Engine) GetEvaluation(b *dragontoothmg.Board) int {
	if !e.initialized {
		return 0
	}
	score := adjustedEvaluator{e}.Evaluate(b)
	if e.opts.UseLearning {
		// The learning buffer holds side-to-move-relative evals, matching
		// the search scores recorded by ChooseMove.
		relative := score
		if !b.Wtomove {
			relative = -relative
		}
		e.learning.RecordPosition(b, relative)
	}
	return score
}

// RecordGameResult stores the finished game's outcome: 1 for a white win,
// 0.5 for a draw, 0 for a black win.
func (e *Engine) RecordGameResult(result float64) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	if result != 0 && result != 0.5 && result != 1 {
		return errors.Errorf("invalid game result %v", result)
	}
	e.learning.RecordResult(result)
	return nil
}

// RecordGameMoves feeds the finished game's move list to the opening
// repertoire.
func (e *Engine) RecordGameMoves(moves []dragontoothmg.Move, result float64) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	e.book.RecordGameMoves(moves, result)
	return nil
}

// LearnFromGame folds the buffered positions and recorded result into the
// learning store.
func (e *Engine) LearnFromGame() error {
	if !e.initialized {
		return ErrNotInitialized
	}
	e.learning.LearnFromGame()
	return nil
}

// ResetGame clears per-game state: the learning buffer and the
// transposition cache.
func (e *Engine) ResetGame() {
	if !e.initialized {
		return
	}
	e.learning.buffer = nil
	e.learning.gameResult = nil
	if e.tt != nil {
		e.tt.Clear()
	}
}

// BookMoves exposes the book's top choices for the position, heaviest first.
func (e *Engine) BookMoves(b *dragontoothmg.Board, maxMoves int) []WeightedMove {
	if !e.initialized {
		return nil
	}
	return e.book.Moves(b, maxMoves)
}

// SearchStats returns the counters from the most recent search.
func (e *Engine) SearchStats() SearchStats {
	if e.search == nil {
		return SearchStats{}
	}
	return e.search.Stats()
}

// CacheStats renders the transposition table usage summary.
func (e *Engine) CacheStats() string {
	if e.tt == nil {
		return "tt: disabled"
	}
	return e.tt.Stats()
}

// LearningStats summarizes the learning store.
func (e *Engine) LearningStats() LearningStats {
	if e.learning == nil {
		return LearningStats{}
	}
	return e.learning.Stats()
}

// BookStats summarizes the opening repertoire.
func (e *Engine) BookStats() BookStats {
	if e.book == nil {
		return BookStats{}
	}
	return e.book.Stats()
}
