package engine

import (
	"github.com/sorenvik/corvid/internal/board"
)

// knownWinBase anchors the score of a tablebase-like won endgame well above
// any positional evaluation but below the tablebase and mate ranges.
const knownWinBase = 9000

// evaluate returns a centipawn score from the side to move's point of view:
// the known-win shortcut for bare K+R/K+Q endings, the neural network when
// one is loaded, the classical material/piece-square fallback otherwise.
func (w *Worker) evaluate() int {
	if score, ok := evalKnownEndgame(w.pos); ok {
		return score
	}
	if w.net != nil {
		return w.net.Evaluate(w.accs.Top(), w.pos.SideToMove)
	}
	return evalClassical(w.pos)
}

// evalKnownEndgame recognises three-man endings where the side with a rook
// or queen has a known forced win. The score rewards pushing the bare king
// to the edge and walking the attacking king towards it, which is exactly
// the winning procedure, so the search converges on it even without reaching
// the mate horizon.
func evalKnownEndgame(pos *board.Position) (int, bool) {
	if pos.AllOccupied.PopCount() != 3 {
		return 0, false
	}

	var strong board.Color
	switch {
	case pos.Pieces[board.White][board.Rook]|pos.Pieces[board.White][board.Queen] != 0:
		strong = board.White
	case pos.Pieces[board.Black][board.Rook]|pos.Pieces[board.Black][board.Queen] != 0:
		strong = board.Black
	default:
		return 0, false
	}

	weak := strong.Other()
	weakKing := pos.KingSquare[weak]
	strongKing := pos.KingSquare[strong]

	score := knownWinBase + 100 - distanceToEdge(weakKing) - chebyshev(strongKing, weakKing)
	if pos.SideToMove == weak {
		score = -score
	}
	return score, true
}

// distanceToEdge is the weak king's distance to the nearest board edge.
func distanceToEdge(sq board.Square) int {
	f, r := sq.File(), sq.Rank()
	return min(min(f, 7-f), min(r, 7-r))
}

// chebyshev is the king-walk distance between two squares.
func chebyshev(a, b board.Square) int {
	df := abs(a.File() - b.File())
	dr := abs(a.Rank() - b.Rank())
	return max(df, dr)
}

// Piece-square tables for the classical fallback, white's point of view,
// rank 1 first. Values are deliberately modest; the tables only have to keep
// the engine sensible when no network file is configured.
var pieceSquare = [6][64]int{
	// Pawn
	{
		0, 0, 0, 0, 0, 0, 0, 0,
		5, 10, 10, -20, -20, 10, 10, 5,
		5, -5, -10, 0, 0, -10, -5, 5,
		0, 0, 0, 20, 20, 0, 0, 0,
		5, 5, 10, 25, 25, 10, 5, 5,
		10, 10, 20, 30, 30, 20, 10, 10,
		50, 50, 50, 50, 50, 50, 50, 50,
		0, 0, 0, 0, 0, 0, 0, 0,
	},
	// Knight
	{
		-50, -40, -30, -30, -30, -30, -40, -50,
		-40, -20, 0, 5, 5, 0, -20, -40,
		-30, 5, 10, 15, 15, 10, 5, -30,
		-30, 0, 15, 20, 20, 15, 0, -30,
		-30, 5, 15, 20, 20, 15, 5, -30,
		-30, 0, 10, 15, 15, 10, 0, -30,
		-40, -20, 0, 0, 0, 0, -20, -40,
		-50, -40, -30, -30, -30, -30, -40, -50,
	},
	// Bishop
	{
		-20, -10, -10, -10, -10, -10, -10, -20,
		-10, 5, 0, 0, 0, 0, 5, -10,
		-10, 10, 10, 10, 10, 10, 10, -10,
		-10, 0, 10, 10, 10, 10, 0, -10,
		-10, 5, 5, 10, 10, 5, 5, -10,
		-10, 0, 5, 10, 10, 5, 0, -10,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-20, -10, -10, -10, -10, -10, -10, -20,
	},
	// Rook
	{
		0, 0, 0, 5, 5, 0, 0, 0,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		5, 10, 10, 10, 10, 10, 10, 5,
		0, 0, 0, 0, 0, 0, 0, 0,
	},
	// Queen
	{
		-20, -10, -10, -5, -5, -10, -10, -20,
		-10, 0, 5, 0, 0, 0, 0, -10,
		-10, 5, 5, 5, 5, 5, 0, -10,
		0, 0, 5, 5, 5, 5, 0, -5,
		-5, 0, 5, 5, 5, 5, 0, -5,
		-10, 0, 5, 5, 5, 5, 0, -10,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-20, -10, -10, -5, -5, -10, -10, -20,
	},
	// King
	{
		20, 30, 10, 0, 0, 10, 30, 20,
		20, 20, 0, 0, 0, 0, 20, 20,
		-10, -20, -20, -20, -20, -20, -20, -10,
		-20, -30, -30, -40, -40, -30, -30, -20,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
	},
}

// evalClassical is the no-network fallback: material plus piece-square
// bonuses, from the side to move's point of view.
func evalClassical(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt <= board.King; pt++ {
		wbb := pos.Pieces[board.White][pt]
		for wbb != 0 {
			sq := wbb.PopLSB()
			score += board.PieceValue[pt] + pieceSquare[pt][sq]
		}
		bbb := pos.Pieces[board.Black][pt]
		for bbb != 0 {
			sq := bbb.PopLSB()
			score -= board.PieceValue[pt] + pieceSquare[pt][sq.Mirror()]
		}
	}

	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// refreshAccumulator rebuilds the worker's accumulator stack for a new root.
func (w *Worker) refreshAccumulator() {
	if w.net != nil {
		w.accs.Reset(w.net, w.pos)
	}
}
