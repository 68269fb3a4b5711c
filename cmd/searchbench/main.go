package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/dylhunn/dragontoothmg"

	"github.com/STHS24/Chess-Player-x-Ai/engine"
)

// Benchmark positions spanning opening, middlegame, and endgame.
var benchFens = []string{
	dragontoothmg.Startpos,
	"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
	"r1bq1rk1/ppp2ppp/2np1n2/2b1p3/2B1P3/2NP1N2/PPP2PPP/R1BQ1RK1 w - - 0 7",
	"8/5pk1/6p1/8/3R4/6P1/5PK1/3r4 w - - 0 40",
	"4k3/8/8/8/8/8/4P3/4K3 w - - 0 1",
}

func main() {
	depthFlag := flag.Int("depth", 4, "search depth in plies")
	repeatFlag := flag.Int("repeat", 1, "number of passes over the position set")
	fenFlag := flag.String("fen", "", "single FEN to search (empty = built-in suite)")
	cpuProfile := flag.String("cpuprofile", "", "write CPU profile to file")
	flag.Parse()

	if *depthFlag <= 0 {
		log.Fatalf("depth must be positive, got %d", *depthFlag)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatalf("creating CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("starting CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	fens := benchFens
	if *fenFlag != "" {
		fens = []string{*fenFlag}
	}

	search := engine.NewSearchEngine(engine.NewEvaluator(), engine.NewTransTable(engine.DefaultTransTableSize))

	var totalNodes uint64
	start := time.Now()
	for pass := 0; pass < *repeatFlag; pass++ {
		for _, fen := range fens {
			board := dragontoothmg.ParseFen(fen)
			result := search.Search(&board, *depthFlag, 0)
			totalNodes += result.Stats.Nodes + result.Stats.QNodes
			fmt.Printf("%-72s %8s  score %6d  nodes %10d  qnodes %10d\n",
				fen, result.BestMove.String(), result.Score,
				result.Stats.Nodes, result.Stats.QNodes)
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("\ntotal: %d nodes in %s (%.0f nps)\n",
		totalNodes, elapsed, float64(totalNodes)/elapsed.Seconds())
}
