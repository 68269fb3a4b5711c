package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"

	"github.com/STHS24/Chess-Player-x-Ai/engine"
)

func main() {
	uciLoop()
}

func uciLoop() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	opts := engine.DefaultOptions()
	opts.Logger = zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
	eng := engine.New(opts)
	board := dragontoothmg.ParseFen(dragontoothmg.Startpos)

	for scanner.Scan() {
		line := scanner.Text()
		tokens := strings.Fields(line)
		if len(tokens) == 0 { // ignore blank lines
			continue
		}
		switch strings.ToLower(tokens[0]) {
		case "uci":
			fmt.Println("id name Chess-Player-x-Ai")
			fmt.Println("id author STHS24")
			fmt.Println("option name SkillLevel type spin default 10 min 1 max 20")
			fmt.Println("option name Hash type spin default 64 min 1 max 1024")
			fmt.Println("option name Style type combo default balanced var solid var aggressive var tricky var balanced")
			fmt.Println("option name OwnBook type check default true")
			fmt.Println("option name NullMove type check default true")
			fmt.Println("option name Quiescence type check default true")
			fmt.Println("option name Positional type check default true")
			fmt.Println("option name Learning type check default true")
			fmt.Println("uciok")
		case "isready":
			fmt.Println("readyok")
		case "ucinewgame":
			board = dragontoothmg.ParseFen(dragontoothmg.Startpos)
			eng.ResetGame()
		case "position":
			handlePosition(tokens[1:], &board)
		case "go":
			handleGo(tokens[1:], eng, &board)
		case "setoption":
			handleSetOption(tokens[1:], eng)
		case "eval":
			fmt.Printf("info string static eval %d cp\n", eng.GetEvaluation(&board))
		case "stats":
			printStats(eng)
		case "quit":
			return
		}
	}
}

func printStats(eng *engine.Engine) {
	fmt.Println("info string", eng.CacheStats())
	bs := eng.BookStats()
	fmt.Printf("info string book: %d positions tracked, %d games, %.1f%% success, style %s\n",
		bs.TotalPositions, bs.TotalGames, bs.SuccessRate*100, bs.Style)
	ls := eng.LearningStats()
	fmt.Printf("info string learning: %d positions stored, %d learned, %d games\n",
		ls.PositionsStored, ls.PositionsLearned, ls.GamesLearned)
}

func handlePosition(tokens []string, board *dragontoothmg.Board) {
	if len(tokens) == 0 {
		fmt.Println("info string Malformed position command")
		return
	}
	movesAt := -1
	switch tokens[0] {
	case "startpos":
		*board = dragontoothmg.ParseFen(dragontoothmg.Startpos)
		movesAt = 1
	case "fen":
		fenEnd := len(tokens)
		for i, tok := range tokens {
			if tok == "moves" {
				fenEnd = i
				break
			}
		}
		*board = dragontoothmg.ParseFen(strings.Join(tokens[1:fenEnd], " "))
		movesAt = fenEnd
	default:
		fmt.Println("info string Malformed position command")
		return
	}
	if movesAt >= len(tokens) || tokens[movesAt] != "moves" {
		return
	}
	for _, uci := range tokens[movesAt+1:] {
		move, ok := engine.MoveFromUCI(board, uci)
		if !ok {
			fmt.Println("info string Illegal move in position command:", uci)
			return
		}
		board.Apply(move)
	}
}

func handleGo(tokens []string, eng *engine.Engine, board *dragontoothmg.Board) {
	var wtime, btime, winc, binc, movetime, depth int
	for i := 0; i < len(tokens); i++ {
		var target *int
		switch tokens[i] {
		case "wtime":
			target = &wtime
		case "btime":
			target = &btime
		case "winc":
			target = &winc
		case "binc":
			target = &binc
		case "movetime":
			target = &movetime
		case "depth":
			target = &depth
		default:
			continue
		}
		if i+1 >= len(tokens) {
			fmt.Println("info string Malformed go command option", tokens[i])
			return
		}
		v, err := strconv.Atoi(tokens[i+1])
		if err != nil {
			fmt.Println("info string Malformed go command option", tokens[i])
			return
		}
		*target = v
		i++
	}

	if depth > 0 {
		if err := eng.SetSearchDepth(depth); err != nil {
			fmt.Println("info string", err)
		}
	}

	budget := searchBudget(board, wtime, btime, winc, binc, movetime)
	move, lines, score := eng.ChooseMove(board, budget)
	for _, l := range lines {
		fmt.Println("info string", l)
	}
	if move == 0 {
		fmt.Println("bestmove 0000")
		return
	}
	fmt.Printf("info score cp %d\n", score)
	fmt.Println("bestmove", move.String())
}

// searchBudget converts clock state into a per-move time budget. An explicit
// movetime wins; with no clock information at all, default to two seconds.
func searchBudget(board *dragontoothmg.Board, wtime, btime, winc, binc, movetime int) time.Duration {
	if movetime > 0 {
		return time.Duration(movetime) * time.Millisecond
	}
	remaining, inc := wtime, winc
	if !board.Wtomove {
		remaining, inc = btime, binc
	}
	if remaining <= 0 {
		return 2 * time.Second
	}
	return engine.TimeBudget(board, remaining, inc)
}

func handleSetOption(tokens []string, eng *engine.Engine) {
	// setoption name <id> [value <x>]
	name, value := "", ""
	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case "name":
			if i+1 < len(tokens) {
				name = tokens[i+1]
				i++
			}
		case "value":
			if i+1 < len(tokens) {
				value = tokens[i+1]
				i++
			}
		}
	}
	if name == "" {
		fmt.Println("info string Malformed setoption command")
		return
	}

	var err error
	switch strings.ToLower(name) {
	case "skilllevel":
		level, convErr := strconv.Atoi(value)
		if convErr != nil {
			fmt.Println("info string SkillLevel requires a numeric value")
			return
		}
		err = eng.SetDifficulty(level)
	case "hash":
		mb, convErr := strconv.Atoi(value)
		if convErr != nil || mb < 1 {
			fmt.Println("info string Hash requires a positive numeric value")
			return
		}
		// ~40 bytes per cached entry
		err = eng.SetTranspositionTable(true, mb*1024*1024/40)
	case "style":
		err = eng.SetOpeningStyle(strings.ToLower(value))
	case "ownbook":
		err = eng.SetOpeningBook(parseCheck(value))
	case "nullmove":
		err = eng.SetNullMove(parseCheck(value))
	case "quiescence":
		err = eng.SetQuiescence(parseCheck(value))
	case "positional":
		err = eng.SetPositionalEval(parseCheck(value))
	case "learning":
		err = eng.SetLearning(parseCheck(value))
	default:
		fmt.Println("info string Unknown option", name)
		return
	}
	if err != nil {
		fmt.Println("info string", err)
	}
}

func parseCheck(value string) bool {
	return strings.EqualFold(value, "true")
}
