package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dylhunn/dragontoothmg"
)

func main() {
	fen := flag.String("fen", dragontoothmg.Startpos, "FEN string (defaults to initial position)")
	depth := flag.Int("depth", 0, "perft depth (required)")
	divide := flag.Bool("divide", false, "print per-move node counts at root")
	flag.Parse()

	if *depth <= 0 {
		fmt.Fprintln(os.Stderr, "perft: -depth must be positive")
		os.Exit(1)
	}

	board := dragontoothmg.ParseFen(*fen)

	start := time.Now()
	var total uint64
	if *divide {
		moves := board.GenerateLegalMoves()
		names := make([]string, 0, len(moves))
		counts := make(map[string]uint64, len(moves))
		for _, move := range moves {
			unapply := board.Apply(move)
			n := perft(&board, *depth-1)
			unapply()
			names = append(names, move.String())
			counts[move.String()] = n
			total += n
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%s: %d\n", name, counts[name])
		}
	} else {
		total = perft(&board, *depth)
	}
	elapsed := time.Since(start)

	nps := float64(total) / elapsed.Seconds()
	fmt.Printf("perft(%d) = %d in %s (%.0f nps)\n", *depth, total, elapsed, nps)
}

func perft(b *dragontoothmg.Board, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	var nodes uint64
	for _, move := range b.GenerateLegalMoves() {
		unapply := b.Apply(move)
		nodes += perft(b, depth-1)
		unapply()
	}
	return nodes
}
