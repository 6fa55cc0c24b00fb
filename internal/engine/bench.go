package engine

import (
	"sync/atomic"
	"time"

	"github.com/sorenvik/corvid/internal/board"
)

// benchPositions is a fixed 20-position suite spanning openings, tactical
// middlegames and endings. Bench runs are single-threaded at a fixed depth,
// so the total node count is reproducible on one machine and serves as a
// change-detection signature.
var benchPositions = []string{
	"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"8/pp5p/8/2p2kp1/2Pp4/3P1KPP/PP6/8 w - - 0 32",
	"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
	"rnbqkb1r/pp2pppp/3p1n2/8/3NP3/2N5/PPP2PPP/R1BQKB1R b KQ - 3 5",
	"r1bq1rk1/ppp2ppp/2np1n2/2b1p3/2B1P3/2NP1N2/PPP2PPP/R1BQ1RK1 w - - 0 7",
	"r2q1rk1/pb1nbppp/1p2pn2/2pp4/2PP4/1PN1PN2/PB2BPPP/R2Q1RK1 w - - 0 10",
	"2rq1rk1/pp1bppbp/3p1np1/8/2BNP3/2N1B3/PPP2PPP/2RQ1RK1 w - - 4 12",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
	"6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1",
	"8/P7/8/8/8/8/8/k6K w - - 0 1",
	"7k/5Q2/6K1/8/8/8/8/8 w - - 0 1",
	"8/8/8/8/8/4k3/4P3/4K3 w - - 0 1",
	"8/k7/3p4/p2P1p2/P2P1P2/8/8/K7 w - - 0 1",
	"5k2/8/8/8/3R4/8/8/4K3 w - - 0 1",
	"2r3k1/p4p2/3Rp2p/1p2P1pK/8/1P4P1/P3Q2P/1q6 b - - 0 1",
	"r1b1k2r/ppppnppp/2n2q2/2b5/3NP3/2P1B3/PP3PPP/RN1QKB1R w KQkq - 1 7",
}

// Bench searches every benchmark position to the given depth on a single
// thread and returns the accumulated node count and wall time. The table is
// cleared before every position so runs do not contaminate each other.
func (e *Engine) Bench(depth int) (uint64, time.Duration) {
	if depth <= 0 {
		depth = 8
	}

	var net = e.net
	if !e.useNet {
		net = nil
	}

	var nodes uint64
	start := time.Now()
	for _, fen := range benchPositions {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			continue
		}

		e.tt.Clear()
		e.stop.Store(false)

		var total atomic.Uint64
		w := newWorker(0, pos, e.tt, &e.stop, &total, net)
		w.iterate(depth)
		nodes += w.nodes
	}
	return nodes, time.Since(start)
}
