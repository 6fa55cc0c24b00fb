package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sorenvik/corvid/internal/board"
)

func collectMoves(mp *MovePicker) []board.Move {
	var moves []board.Move
	for m := mp.Next(); m != board.NoMove; m = mp.Next() {
		moves = append(moves, m)
	}
	return moves
}

func TestPickerYieldsHashMoveFirstOnce(t *testing.T) {
	pos := board.NewPosition()
	var hist History
	hashMove, err := board.ParseMove("d2d4", pos)
	require.NoError(t, err)

	mp := NewMovePicker(pos, &hist, hashMove, board.NoMove, 0, false)
	moves := collectMoves(mp)

	require.Equal(t, hashMove, moves[0])
	count := 0
	for _, m := range moves {
		if m == hashMove {
			count++
		}
	}
	require.Equal(t, 1, count, "the hash move must not be replayed")
	require.Equal(t, pos.GenerateLegalMoves().Len(), len(moves))
}

func TestPickerRejectsBogusHashMove(t *testing.T) {
	pos := board.NewPosition()
	var hist History

	// e2e5 is not a legal move; a corrupt table entry must be dropped.
	bogus := board.NewMove(board.E2, board.E5)
	mp := NewMovePicker(pos, &hist, bogus, board.NoMove, 0, false)
	moves := collectMoves(mp)

	require.NotContains(t, moves, bogus)
	require.Equal(t, pos.GenerateLegalMoves().Len(), len(moves))
}

func TestPickerOrdersQueenPromotionFirst(t *testing.T) {
	// White can promote on c8 or capture-promote on d8; a queen promotion
	// must come out first, the under-promotions last.
	pos, err := board.ParseFEN("3n3k/2P5/8/8/8/8/8/6K1 w - - 0 1")
	require.NoError(t, err)
	var hist History

	mp := NewMovePicker(pos, &hist, board.NoMove, board.NoMove, 0, false)
	moves := collectMoves(mp)
	require.NotEmpty(t, moves)

	first := moves[0]
	require.True(t, first.IsPromotion())
	require.Equal(t, board.Queen, first.Promotion())

	last := moves[len(moves)-1]
	require.True(t, last.IsPromotion())
	require.NotEqual(t, board.Queen, last.Promotion(), "under-promotions sort last")
}

func TestPickerKillersBeforeQuiets(t *testing.T) {
	pos := board.NewPosition()
	var hist History

	killer, err := board.ParseMove("b1c3", pos)
	require.NoError(t, err)
	hist.killers[0][0] = killer

	mp := NewMovePicker(pos, &hist, board.NoMove, board.NoMove, 0, false)
	moves := collectMoves(mp)
	require.Equal(t, killer, moves[0], "no captures available, so the killer leads")
}

func TestPickerCapturesOnly(t *testing.T) {
	pos, err := board.ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	require.NoError(t, err)
	var hist History

	mp := NewMovePicker(pos, &hist, board.NoMove, board.NoMove, 0, true)
	moves := collectMoves(mp)
	require.NotEmpty(t, moves)
	for _, m := range moves {
		require.True(t, m.IsCapture() || m.IsPromotion(), "%s is neither capture nor promotion", m)
	}
}

func TestHistoryBetaCutoffUpdates(t *testing.T) {
	var hist History
	stm := board.White
	cutoff := board.NewMove(board.G1, board.F3)
	earlier := board.NewMove(board.B1, board.C3)
	prev := board.NewMove(board.E7, board.E5)

	hist.OnBetaCutoff(stm, cutoff, prev, 4, 6, []board.Move{earlier})

	require.Equal(t, cutoff, hist.killers[4][0])
	require.Equal(t, cutoff, hist.counter[prev.From()][prev.To()])
	require.Equal(t, int16(600), hist.main[stm][cutoff.From()][cutoff.To()])
	require.Equal(t, int16(-600), hist.main[stm][earlier.From()][earlier.To()])

	// A second distinct cutoff shifts the old killer down.
	other := board.NewMove(board.D2, board.D4)
	hist.OnBetaCutoff(stm, other, prev, 4, 2, nil)
	require.Equal(t, other, hist.killers[4][0])
	require.Equal(t, cutoff, hist.killers[4][1])
}

func TestHistoryBonusSaturates(t *testing.T) {
	require.Equal(t, 300, historyBonus(3))
	require.Equal(t, 1500, historyBonus(15))
	require.Equal(t, 1500, historyBonus(60))

	var hist History
	m := board.NewMove(board.G1, board.F3)
	for i := 0; i < 40; i++ {
		hist.OnBetaCutoff(board.White, m, board.NoMove, 0, 20, nil)
	}
	require.Equal(t, int16(historyMax), hist.main[board.White][m.From()][m.To()])
}

func TestSEESimpleExchanges(t *testing.T) {
	// Pawn takes an undefended pawn: clean win of a pawn.
	pos, err := board.ParseFEN("1k6/8/8/3p4/4P3/8/8/1K6 w - - 0 1")
	require.NoError(t, err)
	exd5, err := board.ParseMove("e4d5", pos)
	require.NoError(t, err)
	require.True(t, SEE(pos, exd5, 0))
	require.True(t, SEE(pos, exd5, 100))
	require.False(t, SEE(pos, exd5, 101))

	// Pawn takes a defended pawn: the trade breaks even.
	pos, err = board.ParseFEN("1k6/8/2p5/3p4/4P3/8/8/1K6 w - - 0 1")
	require.NoError(t, err)
	exd5, err = board.ParseMove("e4d5", pos)
	require.NoError(t, err)
	require.True(t, SEE(pos, exd5, 0))
	require.False(t, SEE(pos, exd5, 1))

	// Queen takes a defended pawn: loses the queen for a pawn.
	pos, err = board.ParseFEN("1k6/8/2p5/3p4/8/8/3Q4/1K6 w - - 0 1")
	require.NoError(t, err)
	qxd5, err := board.ParseMove("d2d5", pos)
	require.NoError(t, err)
	require.False(t, SEE(pos, qxd5, 0))
}

func TestSEEXray(t *testing.T) {
	// Rook takes a pawn defended by a pawn, with a second rook x-raying
	// through d2: the defender still wins the first rook, so the swap is
	// losing despite the backup.
	pos, err := board.ParseFEN("1k6/8/2p5/3p4/8/8/3R4/1K1R4 w - - 0 1")
	require.NoError(t, err)
	rxd5, err := board.ParseMove("d2d5", pos)
	require.NoError(t, err)
	require.False(t, SEE(pos, rxd5, 0), "rook for two pawns is a losing swap")

	// With a queen defending instead of the pawn, the second rook wins it
	// back: RxP, QxR, RxQ nets material.
	pos, err = board.ParseFEN("1k1q4/8/8/3p4/8/8/3R4/1K1R4 w - - 0 1")
	require.NoError(t, err)
	rxd5, err = board.ParseMove("d2d5", pos)
	require.NoError(t, err)
	require.True(t, SEE(pos, rxd5, 0))
}

func TestMVVLVAOrder(t *testing.T) {
	require.Greater(t, mvvLva(board.Queen, board.Pawn), mvvLva(board.Queen, board.Rook))
	require.Greater(t, mvvLva(board.Queen, board.Queen), mvvLva(board.Rook, board.Pawn))
	require.Less(t, mvvLva(board.Queen, board.Pawn), 1_000_000, "offsets must stay inside a tier")
}
