package engine

import (
	"fmt"
	"time"

	"github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"
)

const (
	infinityScore     = 1 << 30
	nullMoveReduction = 2 // the classic R value
)

// PositionEvaluator is the leaf-scoring contract the search depends on.
// Scores are centipawns from white's perspective.
type PositionEvaluator interface {
	Evaluate(b *dragontoothmg.Board) int
}

// SearchStats collects per-search counters. Reset at every Search call.
type SearchStats struct {
	Nodes           uint64
	QNodes          uint64
	NullMoveCutoffs uint64
	CacheHits       uint64
	PositionsCached uint64
	Elapsed         time.Duration
}

// NPS returns total visited nodes per second for the completed search.
func (st SearchStats) NPS() uint64 {
	if st.Elapsed <= 0 {
		return 0
	}
	total := st.Nodes + st.QNodes
	return uint64(float64(total) / st.Elapsed.Seconds())
}

// SearchResult carries the outcome of one Search call. A zero BestMove means
// no move was found (no legal moves, or the first iteration ran out of time).
type SearchResult struct {
	BestMove dragontoothmg.Move
	Score    int
	Lines    []string
	Stats    SearchStats
}

// SearchEngine runs iterative-deepening alpha-beta with quiescence and
// null-move pruning. It mutates the caller's board via make/unmake and
// restores it before returning, so a single engine must not search the same
// board from two goroutines.
type SearchEngine struct {
	eval PositionEvaluator
	tt   *TransTable // nil disables memoization

	MaxDepth        int
	UseQuiescence   bool
	QuiescenceDepth int
	UseNullMove     bool

	tiebreakSalt uint64

	stats     SearchStats
	startTime time.Time
	timeLimit time.Duration
	rootDepth int
	bestMove  dragontoothmg.Move
	lines     []string

	logger zerolog.Logger
}

func NewSearchEngine(eval PositionEvaluator, tt *TransTable) *SearchEngine {
	return &SearchEngine{
		eval:            eval,
		tt:              tt,
		MaxDepth:        3,
		UseQuiescence:   true,
		QuiescenceDepth: 3,
		UseNullMove:     true,
		tiebreakSalt:    zobristSeed,
		logger:          zerolog.Nop(),
	}
}

// SetTranspositionTable swaps the cache in or out between searches.
func (s *SearchEngine) SetTranspositionTable(tt *TransTable) {
	s.tt = tt
}

// SetTiebreakSalt reseeds the move-ordering tiebreak. Identical salts give
// identical orderings, which keeps searches reproducible.
func (s *SearchEngine) SetTiebreakSalt(salt uint64) {
	s.tiebreakSalt = salt
}

// SetLogger attaches a logger; the default discards everything.
func (s *SearchEngine) SetLogger(logger zerolog.Logger) {
	s.logger = logger
}

// Stats returns the counters from the most recent search.
func (s *SearchEngine) Stats() SearchStats {
	return s.stats
}

func (s *SearchEngine) timeUp() bool {
	if s.timeLimit <= 0 {
		return false
	}
	return time.Since(s.startTime) >= s.timeLimit
}

// Search runs iterative deepening up to depth plies within timeLimit
// (timeLimit <= 0 means unbounded). The best move of the deepest completed
// iteration wins; an iteration interrupted by the clock is discarded.
func (s *SearchEngine) Search(b *dragontoothmg.Board, depth int, timeLimit time.Duration) SearchResult {
	if depth > 0 {
		s.MaxDepth = depth
	}
	s.timeLimit = timeLimit
	s.stats = SearchStats{}
	s.startTime = time.Now()
	s.bestMove = 0
	s.lines = nil

	bestScore := 0
	for d := 1; d <= s.MaxDepth; d++ {
		if s.timeUp() {
			break
		}
		s.rootDepth = d
		score := s.alphaBeta(b, d, -infinityScore, infinityScore, true)
		if s.timeUp() {
			break
		}
		bestScore = score
		if s.bestMove != 0 {
			s.lines = append(s.lines, fmt.Sprintf("depth %d: %s (%.2f)", d, s.bestMove.String(), float64(score)/100))
		}
		s.logger.Debug().
			Int("depth", d).
			Str("move", s.bestMove.String()).
			Int("score", score).
			Uint64("nodes", s.stats.Nodes).
			Msg("iteration complete")
	}

	s.stats.Elapsed = time.Since(s.startTime)
	return SearchResult{
		BestMove: s.bestMove,
		Score:    bestScore,
		Lines:    s.lines,
		Stats:    s.stats,
	}
}

// applyNullMove passes the turn without touching any pieces and returns the
// closure that passes it back.
func applyNullMove(b *dragontoothmg.Board) func() {
	b.Wtomove = !b.Wtomove
	return func() {
		b.Wtomove = !b.Wtomove
	}
}

// isSearchDraw covers the draw terminals the search handles itself; threefold
// repetition is the front end's job since the search never sees game history.
func isSearchDraw(b *dragontoothmg.Board) bool {
	return b.Halfmoveclock >= 100 || insufficientMaterial(b)
}

func (s *SearchEngine) alphaBeta(b *dragontoothmg.Board, depth, alpha, beta int, maximizing bool) int {
	s.stats.Nodes++

	// A zero return after time-up is invalid by contract; the deepening
	// loop discards the whole iteration.
	if s.timeUp() {
		return 0
	}

	// Cached scores are stored relative to the side to move, so they stay
	// valid no matter which side the probing search is rooted on.
	if s.tt != nil {
		if entry, ok := s.tt.Get(b, depth); ok {
			s.stats.CacheHits++
			// A hit at the root still has to produce a move.
			if depth == s.rootDepth && entry.BestMove != 0 {
				s.bestMove = entry.BestMove
			}
			if maximizing {
				return entry.Score
			}
			return -entry.Score
		}
	}

	moves := b.GenerateLegalMoves()
	if len(moves) == 0 {
		if b.OurKingInCheck() {
			// The side to move is mated. Spent plies shrink the magnitude
			// so quicker mates score better.
			if maximizing {
				return -MateScore + (s.rootDepth - depth)
			}
			return MateScore - (s.rootDepth - depth)
		}
		return 0
	}
	if isSearchDraw(b) {
		return 0
	}

	// Leaf handoff. Quiescence runs negamax from the side to move, so the
	// result needs its sign restored for minimizing nodes.
	if depth <= 0 {
		if maximizing {
			if s.UseQuiescence {
				return s.quiescence(b, alpha, beta, s.QuiescenceDepth)
			}
			return s.evaluateRelative(b)
		}
		if s.UseQuiescence {
			return -s.quiescence(b, -beta, -alpha, s.QuiescenceDepth)
		}
		return -s.evaluateRelative(b)
	}

	// Null move: hand the opponent a free turn; if our position still beats
	// the cutoff bound, the node is good enough to prune.
	if s.UseNullMove && depth >= 2 && !b.OurKingInCheck() && !isEndgame(b) {
		unapply := applyNullMove(b)
		if maximizing {
			nullScore := s.alphaBeta(b, depth-1-nullMoveReduction, beta-1, beta, false)
			unapply()
			if nullScore >= beta && !s.timeUp() {
				s.stats.NullMoveCutoffs++
				return beta
			}
		} else {
			nullScore := s.alphaBeta(b, depth-1-nullMoveReduction, alpha, alpha+1, true)
			unapply()
			if nullScore <= alpha && !s.timeUp() {
				s.stats.NullMoveCutoffs++
				return alpha
			}
		}
	}

	ordered := s.scoreMoves(b, moves)

	var nodeBest dragontoothmg.Move
	if maximizing {
		best := -infinityScore
		for i := 0; i < len(ordered.moves); i++ {
			orderNextMove(i, &ordered)
			move := ordered.moves[i].move

			unapply := b.Apply(move)
			score := s.alphaBeta(b, depth-1, alpha, beta, false)
			unapply()

			if score > best {
				best = score
				nodeBest = move
				if depth == s.rootDepth {
					s.bestMove = move
				}
			}
			alpha = max(alpha, best)
			if beta <= alpha {
				break
			}
			if s.timeUp() {
				break
			}
		}
		if s.tt != nil && !s.timeUp() {
			s.tt.Put(b, best, nodeBest, depth)
			s.stats.PositionsCached++
		}
		return best
	}

	best := infinityScore
	for i := 0; i < len(ordered.moves); i++ {
		orderNextMove(i, &ordered)
		move := ordered.moves[i].move

		unapply := b.Apply(move)
		score := s.alphaBeta(b, depth-1, alpha, beta, true)
		unapply()

		if score < best {
			best = score
			nodeBest = move
			if depth == s.rootDepth {
				s.bestMove = move
			}
		}
		beta = min(beta, best)
		if beta <= alpha {
			break
		}
		if s.timeUp() {
			break
		}
	}
	if s.tt != nil && !s.timeUp() {
		s.tt.Put(b, -best, nodeBest, depth)
		s.stats.PositionsCached++
	}
	return best
}

// evaluateRelative returns the static evaluation from the side to move's
// point of view.
func (s *SearchEngine) evaluateRelative(b *dragontoothmg.Board) int {
	score := s.eval.Evaluate(b)
	if b.Wtomove {
		return score
	}
	return -score
}

// quiescence extends the search along captures and checks only, using the
// stand-pat evaluation as a lower bound so quiet positions cut off early.
func (s *SearchEngine) quiescence(b *dragontoothmg.Board, alpha, beta int, depth int) int {
	s.stats.QNodes++

	if s.timeUp() {
		return 0
	}

	standPat := s.evaluateRelative(b)
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}
	if depth <= 0 {
		return standPat
	}

	tactical := tacticalMoves(b)
	if len(tactical) == 0 {
		return standPat
	}

	ordered := s.scoreMoves(b, tactical)
	for i := 0; i < len(ordered.moves); i++ {
		orderNextMove(i, &ordered)
		move := ordered.moves[i].move

		unapply := b.Apply(move)
		score := -s.quiescence(b, -beta, -alpha, depth-1)
		unapply()

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}

// tacticalMoves filters the legal moves down to captures and checks.
func tacticalMoves(b *dragontoothmg.Board) []dragontoothmg.Move {
	var tactical []dragontoothmg.Move
	for _, move := range b.GenerateLegalMoves() {
		if dragontoothmg.IsCapture(move, b) {
			tactical = append(tactical, move)
			continue
		}
		if givesCheck(b, move) {
			tactical = append(tactical, move)
		}
	}
	return tactical
}
