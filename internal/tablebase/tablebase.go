// Package tablebase provides endgame tablebase probing behind a small
// interface, with a local Syzygy file store, an online Lichess backend and a
// persistent probe cache layered on top.
package tablebase

import (
	"github.com/sorenvik/corvid/internal/board"
)

// WDL is the win/draw/loss verdict from the probed side's point of view.
type WDL int

const (
	WDLLoss        WDL = -2
	WDLBlessedLoss WDL = -1 // lost, but the fifty-move rule may rescue it
	WDLDraw        WDL = 0
	WDLCursedWin   WDL = 1 // won, but the fifty-move rule may spoil it
	WDLWin         WDL = 2
)

// ProbeResult is a WDL/DTZ lookup answer. Found=false means the position is
// not covered (too many men, network failure, missing file) and the caller
// falls through to the normal search.
type ProbeResult struct {
	Found bool
	WDL   WDL
	DTZ   int // distance to the next zeroing move
}

// RootResult is a root probe answer: the best move with its verdict.
type RootResult struct {
	Found bool
	Move  board.Move
	WDL   WDL
	DTZ   int
}

// Prober is the boundary the search sees. Implementations never return an
// error: any failure is reported as Found=false.
type Prober interface {
	// Probe looks up the WDL verdict for a position.
	Probe(pos *board.Position) ProbeResult

	// ProbeRoot picks the tablebase-best move at the root. More expensive
	// than Probe since it ranks every legal move.
	ProbeRoot(pos *board.Position) RootResult

	// MaxPieces is the largest man count this backend covers.
	MaxPieces() int

	// Available reports whether the backend can answer probes at all.
	Available() bool
}

// NoopProber answers every probe with "not found"; the placeholder when no
// tablebase is configured.
type NoopProber struct{}

func (NoopProber) Probe(*board.Position) ProbeResult    { return ProbeResult{} }
func (NoopProber) ProbeRoot(*board.Position) RootResult { return RootResult{} }
func (NoopProber) MaxPieces() int                       { return 0 }
func (NoopProber) Available() bool                      { return false }

// CountPieces returns the number of men on the board, used to decide whether
// a probe can succeed before paying for it.
func CountPieces(pos *board.Position) int {
	return pos.AllOccupied.PopCount()
}
