package main

import (
	"flag"
	"os"
	"time"

	"github.com/dylhunn/dragontoothmg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/STHS24/Chess-Player-x-Ai/engine"
)

func main() {
	games := flag.Int("games", 10, "number of games to play")
	skill := flag.Int("skill", 10, "skill level (1-20)")
	movetime := flag.Duration("movetime", 500*time.Millisecond, "time budget per move")
	maxPlies := flag.Int("maxplies", 300, "ply cap before adjudicating a draw")
	style := flag.String("style", "balanced", "opening style: solid, aggressive, tricky, balanced")
	repertoire := flag.String("repertoire", "data/repertoire.json.zst", "repertoire file")
	learning := flag.String("learning", "data/learning.json.zst", "learned positions file")
	verbose := flag.Bool("v", false, "log every move")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	opts := engine.DefaultOptions()
	opts.Style = *style
	opts.RepertoirePath = *repertoire
	opts.LearningPath = *learning
	opts.Logger = logger
	eng := engine.New(opts)
	if err := eng.SetDifficulty(*skill); err != nil {
		logger.Fatal().Err(err).Msg("setting skill level")
	}

	var wins, draws, losses int
	for i := 0; i < *games; i++ {
		gameID := uuid.New().String()
		gameLog := logger.With().Str("game", gameID).Logger()
		result := playGame(eng, gameLog, *movetime, *maxPlies, *verbose)
		switch result {
		case 1:
			wins++
		case 0.5:
			draws++
		default:
			losses++
		}

		if err := eng.RecordGameResult(result); err != nil {
			gameLog.Error().Err(err).Msg("recording result")
		}
		if err := eng.LearnFromGame(); err != nil {
			gameLog.Error().Err(err).Msg("learning from game")
		}
		gameLog.Info().Float64("result", result).Msg("game finished")
		eng.ResetGame()
	}

	logger.Info().
		Int("games", *games).
		Int("white_wins", wins).
		Int("draws", draws).
		Int("black_wins", losses).
		Msg("selfplay complete")
	ls := eng.LearningStats()
	logger.Info().
		Int("positions", ls.PositionsStored).
		Int("games_learned", ls.GamesLearned).
		Msg("learning store")
	bs := eng.BookStats()
	logger.Info().
		Int("positions", bs.TotalPositions).
		Float64("success_rate", bs.SuccessRate).
		Msg("repertoire")
}

// playGame runs the engine against itself and returns the result from
// white's perspective: 1 win, 0.5 draw, 0 loss.
func playGame(eng *engine.Engine, logger zerolog.Logger, movetime time.Duration, maxPlies int, verbose bool) float64 {
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)
	var moves []dragontoothmg.Move

	for ply := 0; ply < maxPlies; ply++ {
		if len(board.GenerateLegalMoves()) == 0 {
			break
		}
		if board.Halfmoveclock >= 100 {
			break
		}
		move, _, score := eng.ChooseMove(&board, movetime)
		if move == 0 {
			break
		}
		if verbose {
			logger.Debug().Int("ply", ply).Str("move", move.String()).Int("cp", score).Msg("played")
		}
		board.Apply(move)
		moves = append(moves, move)
	}

	result := adjudicate(&board)
	if err := eng.RecordGameMoves(moves, result); err != nil {
		logger.Error().Err(err).Msg("recording game moves")
	}
	return result
}

func adjudicate(board *dragontoothmg.Board) float64 {
	if len(board.GenerateLegalMoves()) > 0 {
		return 0.5 // clock or ply cap
	}
	if !board.OurKingInCheck() {
		return 0.5 // stalemate
	}
	if board.Wtomove {
		return 0 // white is mated
	}
	return 1
}
