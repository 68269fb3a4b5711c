package engine

import (
	_ "embed"
	"encoding/json"
	"math/rand"
	"strings"

	"github.com/dylhunn/dragontoothmg"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

//go:embed book_seed.json
var bookSeedJSON []byte

// Trap lines fire with this probability outside the tricky style, and
// always inside it.
const trapProbability = 0.8

// Book entries below this raw weight are never considered.
const defaultMinBookWeight = 10

type bookSeedEntry struct {
	UCI    string `json:"uci"`
	Weight int    `json:"weight"`
}

// WeightedMove is a book move with its fully adjusted selection weight.
type WeightedMove struct {
	Move   dragontoothmg.Move
	UCI    string
	Weight int
}

type trapLine struct {
	name        string
	placement   string
	whiteToMove bool
	uci         string
}

// Hard-coded trap table: exact piece placement plus side to move.
var openingTraps = []trapLine{
	{"Stafford Gambit", "r1bqkbnr/ppp2ppp/2n5/3p4/4P3/5N2/PPPP1PPP/RNBQKB1R", true, "e4d5"},
	{"Fried Liver Attack", "r1bqkb1r/ppp2ppp/2n5/3np3/2B5/5N2/PPPP1PPP/RNBQK2R", true, "f3g5"},
	{"Legal Trap", "rnbqkbnr/ppp2ppp/8/3pp3/2B1P3/5N2/PPPP1PPP/RNBQK2R", false, "d8g5"},
	{"Blackburne Shilling Gambit", "rnbqkb1r/pppp1ppp/5n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R", false, "f6e4"},
	{"Budapest Gambit", "rnbqkb1r/pppp1ppp/8/4p3/2PPn3/8/PP2PPPP/RNBQKBNR", true, "d2d3"},
}

// OpeningBook serves weighted book moves for early-game positions. Base
// weights come from the embedded seed data; style preference and learned
// repertoire success stack multiplicatively on top at every query.
type OpeningBook struct {
	entries map[string][]bookSeedEntry
	traps   []trapLine

	style          string
	repertoire     *Repertoire
	repertoirePath string

	// WeightByScore selects proportionally to adjusted weights; when false
	// the pick is uniform over the surviving entries.
	WeightByScore bool
	MinWeight     int

	rng    *rand.Rand
	logger zerolog.Logger

	totalGames      int
	successfulGames int
}

// NewOpeningBook builds the book from the embedded seed and loads the
// repertoire file at repertoirePath (absent files start an empty
// repertoire). The seed parameter fixes the selection randomness.
func NewOpeningBook(repertoirePath string, seed int64, logger zerolog.Logger) (*OpeningBook, error) {
	entries := make(map[string][]bookSeedEntry)
	if err := json.Unmarshal(bookSeedJSON, &entries); err != nil {
		return nil, errors.Wrap(err, "parsing embedded book seed")
	}
	return &OpeningBook{
		entries:        entries,
		traps:          openingTraps,
		style:          StyleBalanced,
		repertoire:     loadRepertoire(repertoirePath, logger),
		repertoirePath: repertoirePath,
		WeightByScore:  true,
		MinWeight:      defaultMinBookWeight,
		rng:            rand.New(rand.NewSource(seed)),
		logger:         logger,
	}, nil
}

// LoadBookFile replaces the embedded seed with book entries read from
// path (same JSON shape as the seed, .zst accepted). Trap lines and the
// learned repertoire are unaffected.
func (ob *OpeningBook) LoadBookFile(path string) error {
	entries := make(map[string][]bookSeedEntry)
	if err := loadJSONFile(path, &entries); err != nil {
		return errors.Wrap(err, "loading book file")
	}
	if len(entries) == 0 {
		return errors.Errorf("book file %s holds no positions", path)
	}
	ob.entries = entries
	ob.logger.Info().Str("path", path).Int("positions", len(entries)).Msg("opening book replaced")
	return nil
}

// SetStyle switches the opening style.
func (ob *OpeningBook) SetStyle(style string) error {
	if !ValidStyle(style) {
		return errors.Errorf("invalid opening style %q", style)
	}
	ob.style = style
	return nil
}

func (ob *OpeningBook) Style() string {
	return ob.style
}

func placementKey(b *dragontoothmg.Board) string {
	return strings.Fields(b.ToFen())[0]
}

// legalMoveFromUCI resolves a coordinate-notation move against the legal
// move set, which guarantees anything the book returns is playable.
func legalMoveFromUCI(b *dragontoothmg.Board, uci string) (dragontoothmg.Move, bool) {
	for _, move := range b.GenerateLegalMoves() {
		if move.String() == uci {
			return move, true
		}
	}
	return 0, false
}

// MoveFromUCI resolves coordinate notation ("e2e4", "e7e8q") against the
// position's legal moves. Front ends use this to apply user-supplied moves.
func MoveFromUCI(b *dragontoothmg.Board, uci string) (dragontoothmg.Move, bool) {
	return legalMoveFromUCI(b, uci)
}

// TryMove returns a book move for the position, if any. Trap lines take
// precedence over regular entries.
func (ob *OpeningBook) TryMove(b *dragontoothmg.Board) (dragontoothmg.Move, bool) {
	if move, ok := ob.trapMove(b); ok {
		return move, true
	}

	adjusted := ob.adjustedMoves(b)
	if len(adjusted) == 0 {
		return 0, false
	}

	if ob.WeightByScore {
		total := 0
		for _, wm := range adjusted {
			total += wm.Weight
		}
		if total > 0 {
			choice := ob.rng.Intn(total) + 1
			sum := 0
			for _, wm := range adjusted {
				sum += wm.Weight
				if sum >= choice {
					return wm.Move, true
				}
			}
		}
	}
	pick := adjusted[ob.rng.Intn(len(adjusted))]
	return pick.Move, true
}

func (ob *OpeningBook) trapMove(b *dragontoothmg.Board) (dragontoothmg.Move, bool) {
	if ob.style != StyleTricky && ob.rng.Float64() > trapProbability {
		return 0, false
	}
	placement := placementKey(b)
	for _, trap := range ob.traps {
		if trap.placement != placement || trap.whiteToMove != b.Wtomove {
			continue
		}
		if move, ok := legalMoveFromUCI(b, trap.uci); ok {
			ob.logger.Debug().Str("trap", trap.name).Str("move", trap.uci).Msg("playing trap line")
			return move, true
		}
	}
	return 0, false
}

// adjustedMoves filters the raw entries by minimum weight, resolves them to
// legal moves, and applies the style and repertoire multipliers.
func (ob *OpeningBook) adjustedMoves(b *dragontoothmg.Board) []WeightedMove {
	placement := placementKey(b)
	seeds := ob.entries[placement]
	if len(seeds) == 0 {
		return nil
	}

	styleWeights := ob.repertoire.Styles[ob.style]
	var adjusted []WeightedMove
	for _, seed := range seeds {
		if seed.Weight < ob.MinWeight {
			continue
		}
		move, ok := legalMoveFromUCI(b, seed.UCI)
		if !ok {
			continue
		}

		weight := seed.Weight
		key := positionMoveKey(placement, seed.UCI)

		if factor, ok := styleWeights[key]; ok {
			weight = int(float64(weight) * factor)
		}

		switch ob.style {
		case StyleAggressive:
			if dragontoothmg.IsCapture(move, b) || givesCheck(b, move) {
				weight = int(float64(weight) * 1.5)
			}
		case StyleSolid:
			if !dragontoothmg.IsCapture(move, b) {
				weight = int(float64(weight) * 1.3)
			}
		}

		if stat, ok := ob.repertoire.Openings[key]; ok && stat.Games > 0 {
			// 0% success => x0.5, 50% => x1.0, 100% => x2.0, damped by a
			// confidence term that saturates at ten games.
			successFactor := 0.5 + stat.SuccessRate*1.5
			confidence := min(1.0, float64(stat.Games)/10.0)
			weight = int(float64(weight) * (1.0 + (successFactor-1.0)*confidence))
		}

		adjusted = append(adjusted, WeightedMove{Move: move, UCI: seed.UCI, Weight: weight})
	}
	return adjusted
}

// Moves returns up to maxMoves book moves for the position, heaviest first.
func (ob *OpeningBook) Moves(b *dragontoothmg.Board, maxMoves int) []WeightedMove {
	adjusted := ob.adjustedMoves(b)
	slices.SortFunc(adjusted, func(a, b WeightedMove) bool {
		return a.Weight > b.Weight
	})
	if len(adjusted) > maxMoves {
		adjusted = adjusted[:maxMoves]
	}
	return adjusted
}

// InBook reports whether the position has any regular book entries.
func (ob *OpeningBook) InBook(b *dragontoothmg.Board) bool {
	return len(ob.entries[placementKey(b)]) > 0
}

// RecordGameMoves replays a finished game from the starting position,
// identifies which of the first 30 plies were book moves, and folds the
// result into the repertoire. result is 1 for a white win, 0.5 for a draw,
// 0 for a black win.
func (ob *OpeningBook) RecordGameMoves(moves []dragontoothmg.Move, result float64) {
	if len(moves) == 0 {
		return
	}

	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)

	type playedBookMove struct {
		key string
		ply int
	}
	var bookMoves []playedBookMove

	limit := min(len(moves), 30)
	for i := 0; i < limit; i++ {
		if ob.InBook(&board) {
			key := positionMoveKey(placementKey(&board), moves[i].String())
			bookMoves = append(bookMoves, playedBookMove{key: key, ply: i})
		}
		board.Apply(moves[i])
		if i >= 10 && !ob.InBook(&board) {
			break
		}
	}

	for _, played := range bookMoves {
		success := result
		if played.ply%2 != 0 {
			// Black played this ply; its success is the inverted result.
			success = 1.0 - result
		}
		ob.repertoire.recordOutcome(played.key, success)
		ob.repertoire.adjustStyleWeight(ob.style, played.key, success)
	}

	ob.totalGames++
	if (result == 1.0 && len(moves)%2 == 0) || (result == 0.0 && len(moves)%2 == 1) {
		ob.successfulGames++
	}

	if err := ob.repertoire.save(ob.repertoirePath); err != nil {
		ob.logger.Warn().Err(err).Msg("saving repertoire failed")
	}
}

// BookStats summarizes the repertoire for diagnostics.
type BookStats struct {
	TotalPositions int
	TotalGames     int
	SuccessRate    float64
	Style          string
}

func (ob *OpeningBook) Stats() BookStats {
	stats := BookStats{
		TotalPositions: len(ob.repertoire.Openings),
		TotalGames:     ob.totalGames,
		Style:          ob.style,
	}
	if ob.totalGames > 0 {
		stats.SuccessRate = float64(ob.successfulGames) / float64(ob.totalGames)
	}
	return stats
}
