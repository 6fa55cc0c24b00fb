package engine

import (
	"sync/atomic"

	"github.com/sorenvik/corvid/internal/board"
	"github.com/sorenvik/corvid/internal/nnue"
)

// Worker owns everything one search thread mutates: a position copy, the
// move-ordering history, the accumulator stack and the principal-variation
// table. Workers share only the transposition table and the stop flag.
type Worker struct {
	id   int
	pos  *board.Position
	tt   *TranspositionTable
	stop *atomic.Bool

	// timeman is set on the primary worker only; it enforces the clock and
	// node budget and trips the shared stop flag for everyone.
	timeman    *TimeManager
	totalNodes *atomic.Uint64

	net  *nnue.Network
	accs nnue.Stack

	history   History
	moveStack [MaxPly + 1]board.Move

	nodes    uint64
	seldepth int
	aborted  bool

	pv    [MaxPly + 1][MaxPly + 1]board.Move
	pvLen [MaxPly + 1]int

	// Result of the last fully completed iteration.
	bestMove       board.Move
	bestScore      int
	completedDepth int

	// rootMove tracks the best root move inside the current iteration.
	rootMove board.Move

	onIteration func(*Worker, int, int) // depth, score; primary worker only
}

func newWorker(id int, pos *board.Position, tt *TranspositionTable, stop *atomic.Bool, totalNodes *atomic.Uint64, net *nnue.Network) *Worker {
	return &Worker{
		id:         id,
		pos:        pos,
		tt:         tt,
		stop:       stop,
		totalNodes: totalNodes,
		net:        net,
	}
}

// iterate runs the iterative-deepening loop up to maxDepth, keeping
// bestMove/bestScore at the result of the last depth that finished cleanly.
func (w *Worker) iterate(maxDepth int) {
	if maxDepth <= 0 || maxDepth > MaxDepth {
		maxDepth = MaxDepth
	}

	w.refreshAccumulator()

	prev := 0
	for depth := 1; depth <= maxDepth; depth++ {
		w.seldepth = 0
		score := w.aspirate(depth, prev)
		if w.aborted || score == UnknownScore {
			break
		}

		prev = score
		w.bestMove = w.rootMove
		w.bestScore = score
		w.completedDepth = depth

		if w.onIteration != nil {
			w.onIteration(w, depth, score)
		}

		if w.timeman != nil && w.timeman.PastOptimum() {
			w.stop.Store(true)
			break
		}
	}
}

// aspirate searches one depth, from aspirationDepth onwards with a window
// centred on the previous iteration's score. A fail-low widens alpha and
// pulls beta in halfway; a fail-high widens beta; once the search has failed
// on both sides the half-width grows by 50% per re-search.
func (w *Worker) aspirate(depth, prev int) int {
	alpha, beta := -Infinity, Infinity
	delta := aspirationDelta
	if depth >= aspirationDepth {
		alpha = max(-Infinity, prev-delta)
		beta = min(Infinity, prev+delta)
	}

	failedLow, failedHigh := false, false
	for {
		score := w.negamax(depth, 0, alpha, beta, true)
		if w.aborted || score == UnknownScore {
			return UnknownScore
		}

		switch {
		case score <= alpha:
			failedLow = true
			alpha = max(-Infinity, score-delta)
			beta = (alpha + beta) / 2
		case score >= beta:
			failedHigh = true
			beta = min(Infinity, score+delta)
		default:
			return score
		}

		if failedLow && failedHigh {
			delta += delta / 2
		}
	}
}

// pollLimits trips the abort state when the stop flag is set, and on the
// primary worker also when the clock or the node budget has run out. Called
// every 1024 nodes. The primary worker always finishes depth one, so a stop
// arriving right after "go" still leaves a move to report.
func (w *Worker) pollLimits() {
	w.totalNodes.Add(checkLimitsMask + 1)
	if w.timeman != nil && w.completedDepth == 0 {
		return
	}
	if w.stop.Load() {
		w.aborted = true
		return
	}
	if w.timeman != nil && !w.timeman.ResourcesLeft(w.totalNodes.Load()) {
		w.stop.Store(true)
		w.aborted = true
	}
}

func (w *Worker) make(m board.Move) {
	mover := w.pos.PieceAt(m.From())
	captured := w.pos.PieceAt(m.To())
	if m.IsEnPassant() {
		captured = board.NewPiece(board.Pawn, w.pos.SideToMove.Other())
	}

	w.pos.MakeMove(m)
	w.tt.Prefetch(w.pos.Hash)
	if w.net != nil {
		w.accs.Push(w.net, w.pos, m, mover, captured)
	}
}

func (w *Worker) unmake(m board.Move) {
	w.pos.UnmakeMove(m)
	if w.net != nil {
		w.accs.Pop()
	}
}

// negamax is the recursive alpha-beta search. pvNode selects the wider
// principal-variation behaviour: no speculative pruning, full-window
// re-searches, and PV recovery. Returns UnknownScore when aborted; callers
// must discard it.
func (w *Worker) negamax(depth, ply, alpha, beta int, pvNode bool) int {
	w.pvLen[ply] = 0

	w.nodes++
	if w.nodes&checkLimitsMask == 0 {
		w.pollLimits()
	}
	if w.aborted {
		return UnknownScore
	}

	if ply > w.seldepth {
		w.seldepth = ply
	}
	if ply >= MaxPly {
		return w.evaluate()
	}

	// Draws by repetition or the fifty-move rule score near zero with a
	// node-count jitter, so the search does not become blind to the
	// surrounding alternatives.
	if ply > 0 {
		if w.pos.IsRepetition() || w.pos.HalfMoveClock() >= 99 || w.pos.IsInsufficientMaterial() {
			return 1 - int(w.nodes&3)
		}
	}

	// Transposition table: the stored move seeds ordering; the stored score
	// cuts off outside the PV when its depth covers the remaining depth and
	// its bound proves the window.
	hashMove := board.NoMove
	if entry, ok := w.tt.Probe(w.pos.Hash, ply); ok {
		hashMove = entry.Move
		if !pvNode && int(entry.Depth) >= depth {
			score := int(entry.Score)
			switch entry.Bound {
			case BoundExact:
				return score
			case BoundLower:
				if score >= beta {
					return score
				}
			case BoundUpper:
				if score <= alpha {
					return score
				}
			}
		}
	}

	if depth <= 0 {
		return w.quiescence(ply, alpha, beta)
	}

	inCheck := w.pos.InCheck()

	if !pvNode && !inCheck {
		staticEval := w.evaluate()

		// Reverse futility: with a static eval this far above beta at
		// shallow depth, the node is not going to fail low.
		if depth <= rfpDepth && abs(beta) < TBWinScore &&
			staticEval-rfpMulti*depth >= beta {
			return beta
		}

		// Null move: hand the opponent a free tempo; if the reduced
		// search still fails high, the real position is good enough to
		// prune. Skipped in pawn-and-king endings where zugzwang makes
		// the free tempo an asset instead.
		if depth >= nmpDepth && staticEval >= beta && w.pos.HasNonPawnMaterial() &&
			(ply == 0 || w.moveStack[ply-1] != board.NoMove) {
			reduction := nmpBase + depth/nmpDepthMulti

			w.moveStack[ply] = board.NoMove
			w.pos.MakeNullMove()
			if w.net != nil {
				w.accs.PushNull()
			}
			score := -w.negamax(depth-1-reduction, ply+1, -beta, -beta+1, false)
			w.pos.UnmakeNullMove()
			if w.net != nil {
				w.accs.Pop()
			}

			if w.aborted {
				return UnknownScore
			}
			if score >= beta {
				if isMateScore(score) {
					return beta
				}
				return score
			}
		}
	}

	prev := board.NoMove
	if ply > 0 {
		prev = w.moveStack[ply-1]
	}
	mp := NewMovePicker(w.pos, &w.history, hashMove, prev, ply, false)

	bound := BoundUpper
	bestMove := board.NoMove
	moveCount := 0
	var quiets [64]board.Move
	quietCount := 0

	for m := mp.Next(); m != board.NoMove; m = mp.Next() {
		moveCount++
		w.moveStack[ply] = m
		w.make(m)

		var score int
		if moveCount == 1 {
			score = -w.negamax(depth-1, ply+1, -beta, -alpha, pvNode)
		} else {
			score = -w.negamax(depth-1, ply+1, -alpha-1, -alpha, false)
			if !w.aborted && pvNode && score > alpha {
				score = -w.negamax(depth-1, ply+1, -beta, -alpha, true)
			}
		}

		w.unmake(m)
		if w.aborted {
			return UnknownScore
		}

		if score >= beta {
			if m.IsQuiet() {
				w.history.OnBetaCutoff(w.pos.SideToMove, m, prev, ply, depth, quiets[:quietCount])
			}
			w.tt.Store(w.pos.Hash, beta, depth, ply, BoundLower, m)
			return beta
		}

		if score > alpha {
			alpha = score
			bestMove = m
			bound = BoundExact
			if pvNode {
				w.updatePV(ply, m)
			}
			if ply == 0 {
				w.rootMove = m
			}
		}

		if m.IsQuiet() && quietCount < len(quiets) {
			quiets[quietCount] = m
			quietCount++
		}
	}

	if moveCount == 0 {
		if inCheck {
			return matedIn(ply)
		}
		return 0
	}

	w.tt.Store(w.pos.Hash, alpha, depth, ply, bound, bestMove)
	return alpha
}

// quiescence resolves captures and promotions until the position is quiet,
// so the static evaluation is never taken in the middle of an exchange.
func (w *Worker) quiescence(ply, alpha, beta int) int {
	w.nodes++
	if w.nodes&checkLimitsMask == 0 {
		w.pollLimits()
	}
	if w.aborted {
		return UnknownScore
	}

	if ply > w.seldepth {
		w.seldepth = ply
	}

	standPat := w.evaluate()
	if ply >= MaxPly {
		return standPat
	}
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	mp := NewMovePicker(w.pos, &w.history, board.NoMove, board.NoMove, ply, true)
	for m := mp.Next(); m != board.NoMove; m = mp.Next() {
		w.make(m)
		score := -w.quiescence(ply+1, -beta, -alpha)
		w.unmake(m)
		if w.aborted {
			return UnknownScore
		}

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}

// updatePV prepends m to the child's principal variation.
func (w *Worker) updatePV(ply int, m board.Move) {
	w.pv[ply][0] = m
	childLen := w.pvLen[ply+1]
	copy(w.pv[ply][1:1+childLen], w.pv[ply+1][:childLen])
	w.pvLen[ply] = childLen + 1
}

// PV returns the principal variation of the last completed iteration.
func (w *Worker) PV() []board.Move {
	pv := make([]board.Move, w.pvLen[0])
	copy(pv, w.pv[0][:w.pvLen[0]])
	return pv
}
