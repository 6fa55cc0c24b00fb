package engine

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sorenvik/corvid/internal/board"
	"github.com/sorenvik/corvid/internal/nnue"
	"github.com/sorenvik/corvid/internal/tablebase"
)

// Report is one iterative-deepening progress snapshot, handed to the
// caller's callback after every completed depth.
type Report struct {
	Depth    int
	SelDepth int
	Score    int  // centipawns unless Mate
	Mate     bool // Score holds moves-to-mate instead
	Nodes    uint64
	NPS      uint64
	Time     time.Duration
	PV       []board.Move
}

// Engine owns the process-wide search resources: the shared transposition
// table, the stop flag, the loaded network and the optional tablebase
// prober. One search runs at a time.
type Engine struct {
	tt   *TranspositionTable
	stop atomic.Bool

	threads      int
	moveOverhead time.Duration

	net    *nnue.Network
	useNet bool

	prober tablebase.Prober
	debug  bool
}

// New creates an engine with a hash table of the given size in megabytes
// and a single search thread.
func New(hashMB int) *Engine {
	return &Engine{
		tt:           NewTranspositionTable(hashMB),
		threads:      1,
		moveOverhead: DefaultMoveOverhead,
	}
}

// SetHashSize resizes the shared transposition table. Only valid between
// searches.
func (e *Engine) SetHashSize(mb int) {
	e.tt.Resize(mb)
}

// SetThreads sets the worker count for subsequent searches.
func (e *Engine) SetThreads(n int) {
	if n < 1 {
		n = 1
	}
	e.threads = n
}

// SetMoveOverhead sets the per-move scheduling headroom.
func (e *Engine) SetMoveOverhead(d time.Duration) {
	e.moveOverhead = d
}

// SetDebug toggles engine-internal diagnostics on stderr.
func (e *Engine) SetDebug(on bool) {
	e.debug = on
}

// SetProber installs a tablebase prober; nil disables probing.
func (e *Engine) SetProber(p tablebase.Prober) {
	e.prober = p
}

// LoadNetwork reads evaluation weights from path and enables them.
func (e *Engine) LoadNetwork(path string) error {
	net, err := nnue.LoadFile(path)
	if err != nil {
		return err
	}
	e.net = net
	e.useNet = true
	if e.debug {
		log.Printf("[Engine] network loaded from %s", path)
	}
	return nil
}

// SetUseNetwork toggles the loaded network without discarding it.
func (e *Engine) SetUseNetwork(on bool) {
	e.useNet = on
}

// NewGame clears state that must not leak between games.
func (e *Engine) NewGame() {
	e.tt.Clear()
}

// Stop trips the shared stop flag; the running search winds down and
// Search returns the best move of the last completed depth.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

// Search runs a full search on pos under the given limits and returns the
// best move, or NoMove when the side to move has no legal move. The report
// callback, when non-nil, fires after every completed depth on the primary
// worker.
//
// The position is copied per worker; pos itself is not mutated.
func (e *Engine) Search(pos *board.Position, limits Limits, report func(Report)) board.Move {
	e.stop.Store(false)

	// A configured tablebase answers small endings outright.
	if move, ok := e.probeRoot(pos, report); ok {
		return move
	}

	tm := &TimeManager{}
	tm.Start(limits, pos.SideToMove, e.moveOverhead)

	var totalNodes atomic.Uint64

	var net *nnue.Network
	if e.useNet {
		net = e.net
	}

	workers := make([]*Worker, e.threads)
	for i := range workers {
		workers[i] = newWorker(i, pos.Copy(), e.tt, &e.stop, &totalNodes, net)
	}

	primary := workers[0]
	primary.timeman = tm
	if report != nil {
		primary.onIteration = func(w *Worker, depth, score int) {
			report(buildReport(w, depth, score, &totalNodes, tm))
		}
	}

	var wg sync.WaitGroup
	for _, w := range workers[1:] {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			w.iterate(limits.Depth)
		}(w)
	}

	primary.iterate(limits.Depth)
	e.stop.Store(true)
	wg.Wait()

	// Belt and braces: if not even depth one completed, any legal move
	// beats forfeiting on time.
	if primary.bestMove == board.NoMove {
		if moves := pos.GenerateLegalMoves(); moves.Len() > 0 {
			primary.bestMove = moves.Get(0)
		}
	}

	if e.debug {
		log.Printf("[Search] depth %d nodes %d best %s",
			primary.completedDepth, totalNodes.Load(), primary.bestMove)
	}
	return primary.bestMove
}

func buildReport(w *Worker, depth, score int, totalNodes *atomic.Uint64, tm *TimeManager) Report {
	elapsed := tm.Elapsed()
	// The shared counter only advances in poll-sized batches; the primary
	// worker's own count is exact and dominates short searches.
	nodes := totalNodes.Load()
	if w.nodes > nodes {
		nodes = w.nodes
	}
	var nps uint64
	if ms := elapsed.Milliseconds(); ms > 0 {
		nps = nodes * 1000 / uint64(ms)
	}

	r := Report{
		Depth:    depth,
		SelDepth: w.seldepth,
		Score:    score,
		Nodes:    nodes,
		NPS:      nps,
		Time:     elapsed,
		PV:       w.PV(),
	}
	if isMateScore(score) {
		r.Mate = true
		r.Score = movesToMate(score)
	}
	return r
}

// probeRoot consults the tablebase when the position is small enough,
// returning its best move directly. Any probe failure falls through to the
// normal search.
func (e *Engine) probeRoot(pos *board.Position, report func(Report)) (board.Move, bool) {
	if e.prober == nil || !e.prober.Available() {
		return board.NoMove, false
	}
	if tablebase.CountPieces(pos) > e.prober.MaxPieces() {
		return board.NoMove, false
	}

	root := e.prober.ProbeRoot(pos)
	if !root.Found || root.Move == board.NoMove {
		return board.NoMove, false
	}

	if report != nil {
		// Only clear wins and losses get the tablebase score; cursed and
		// blessed verdicts collapse to a draw under the fifty-move rule.
		score := 0
		switch root.WDL {
		case tablebase.WDLWin:
			score = TBWinScore
		case tablebase.WDLLoss:
			score = -TBWinScore
		}
		report(Report{Depth: 1, Score: score, PV: []board.Move{root.Move}})
	}
	return root.Move, true
}
