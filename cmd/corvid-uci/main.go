// Command corvid-uci is the engine's process entry point: it wires the
// search engine to a UCI session on stdin/stdout. The -perft flag instead
// runs the move-generation validation suite and exits non-zero on any
// mismatch, for use in CI.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/sorenvik/corvid/internal/board"
	"github.com/sorenvik/corvid/internal/engine"
	"github.com/sorenvik/corvid/internal/uci"
)

const defaultNetFile = "corvid.nnue"

var (
	cpuprofile = flag.String("cpuprofile", "", "write a CPU profile to this file")
	perftRun   = flag.Bool("perft", false, "run the perft validation suite and exit")
	hashMB     = flag.Int("hash", 64, "transposition table size in MB")
)

func main() {
	os.Exit(run())
}

// run keeps the deferred profile flush ahead of the process exit code.
func run() int {
	flag.Parse()

	if path := profilePath(); path != "" {
		f, err := os.Create(path)
		if err != nil {
			log.Fatalf("cpu profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("cpu profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	if *perftRun {
		return runPerftSuite()
	}

	eng := engine.New(*hashMB)
	loadDefaultNetwork(eng)
	uci.New(eng).Run()
	return 0
}

func profilePath() string {
	if *cpuprofile != "" {
		return *cpuprofile
	}
	return os.Getenv("CPUPROFILE")
}

// loadDefaultNetwork looks for a weights file in the usual places; the
// engine falls back to the classical evaluation when none is found.
func loadDefaultNetwork(eng *engine.Engine) {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".corvid"))
	}

	for _, dir := range dirs {
		path := filepath.Join(dir, defaultNetFile)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := eng.LoadNetwork(path); err != nil {
			log.Printf("[Engine] cannot load %s: %v", path, err)
			continue
		}
		return
	}
	log.Printf("[Engine] no network file found, using classical evaluation")
}

// perftSuite is the six-position reference set with full-depth node counts;
// any divergence means the move generator is broken.
var perftSuite = []struct {
	fen   string
	depth int
	nodes int64
}{
	{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", 6, 119060324},
	{"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", 5, 193690690},
	{"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", 7, 178633661},
	{"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", 5, 15833292},
	{"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", 5, 89941194},
	{"8/pp5p/8/2p2kp1/2Pp4/3P1KPP/PP6/8 w - - 0 32", 7, 13312960},
}

func runPerftSuite() int {
	failed := false
	for _, tc := range perftSuite {
		pos, err := board.ParseFEN(tc.fen)
		if err != nil {
			fmt.Printf("FAIL %s: %v\n", tc.fen, err)
			failed = true
			continue
		}
		got := board.Perft(pos, tc.depth)
		if got != tc.nodes {
			fmt.Printf("FAIL %s depth %d: got %d want %d\n", tc.fen, tc.depth, got, tc.nodes)
			failed = true
		} else {
			fmt.Printf("ok   %s depth %d: %d\n", tc.fen, tc.depth, got)
		}
	}
	if failed {
		return 1
	}
	return 0
}
