package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sorenvik/corvid/internal/board"
)

func TestTTSizeIsPowerOfTwo(t *testing.T) {
	for _, mb := range []int{1, 2, 7, 16, 64} {
		tt := NewTranspositionTable(mb)
		size := tt.Size()
		require.NotZero(t, size)
		require.Zero(t, size&(size-1), "%d MB must give a power-of-two entry count", mb)
		require.LessOrEqual(t, size*16, uint64(mb)*1024*1024)
	}
}

func TestTTProbeEmptyAndMismatch(t *testing.T) {
	tt := NewTranspositionTable(1)

	_, ok := tt.Probe(0xDEADBEEF, 0)
	require.False(t, ok, "empty table must miss")

	// Same slot, different full hash: the verification key must reject it.
	tt.Store(0xDEADBEEF, 42, 5, 0, BoundExact, board.NoMove)
	_, ok = tt.Probe(0xDEADBEEF^(tt.mask+1), 0)
	require.False(t, ok, "a different hash must read as empty")
}

func TestTTStoreProbeRoundTrip(t *testing.T) {
	tt := NewTranspositionTable(1)
	move := board.NewMove(board.E2, board.E4)

	tt.Store(0x1234, 42, 7, 0, BoundExact, move)
	entry, ok := tt.Probe(0x1234, 0)
	require.True(t, ok)
	require.Equal(t, int32(42), entry.Score)
	require.Equal(t, uint8(7), entry.Depth)
	require.Equal(t, BoundExact, entry.Bound)
	require.Equal(t, move, entry.Move)
}

func TestTTDepthPreference(t *testing.T) {
	tt := NewTranspositionTable(1)
	deep := board.NewMove(board.E2, board.E4)
	shallow := board.NewMove(board.D2, board.D4)

	tt.Store(0x99, 100, 12, 0, BoundExact, deep)

	// A much shallower non-exact result must not displace the deep entry,
	// but its move still refreshes the stored move.
	tt.Store(0x99, -50, 2, 0, BoundLower, shallow)
	entry, ok := tt.Probe(0x99, 0)
	require.True(t, ok)
	require.Equal(t, uint8(12), entry.Depth)
	require.Equal(t, int32(100), entry.Score)
	require.Equal(t, shallow, entry.Move)

	// Within four plies of the stored depth the overwrite goes through.
	tt.Store(0x99, -50, 8, 0, BoundLower, deep)
	entry, ok = tt.Probe(0x99, 0)
	require.True(t, ok)
	require.Equal(t, uint8(8), entry.Depth)

	// An exact score always wins.
	tt.Store(0x99, 7, 1, 0, BoundExact, deep)
	entry, ok = tt.Probe(0x99, 0)
	require.True(t, ok)
	require.Equal(t, uint8(1), entry.Depth)
	require.Equal(t, int32(7), entry.Score)
}

func TestTTNullMoveKeepsStoredMove(t *testing.T) {
	tt := NewTranspositionTable(1)
	move := board.NewMove(board.G1, board.F3)

	tt.Store(0x77, 10, 5, 0, BoundExact, move)
	tt.Store(0x77, 20, 6, 0, BoundLower, board.NoMove)

	entry, ok := tt.Probe(0x77, 0)
	require.True(t, ok)
	require.Equal(t, move, entry.Move, "a null incoming move must not erase the stored one")
	require.Equal(t, int32(20), entry.Score)
}

// TestTTMateScoreAdjustment stores a mate found at one ply and probes it at
// another: the reported distance must stay relative to the probing node, so
// the engine never prefers a longer mate because of where the entry was
// written.
func TestTTMateScoreAdjustment(t *testing.T) {
	tt := NewTranspositionTable(1)

	// Mate in 5 plies from the root, discovered at ply 3.
	tt.Store(0xABC, mateIn(5), 9, 3, BoundExact, board.NoMove)

	// Probed back at ply 3 the score is unchanged.
	entry, ok := tt.Probe(0xABC, 3)
	require.True(t, ok)
	require.Equal(t, int32(mateIn(5)), entry.Score)

	// Probed at ply 7 the same entry means mate in 2 more plies, i.e. 9
	// plies from the new root path.
	entry, ok = tt.Probe(0xABC, 7)
	require.True(t, ok)
	require.Equal(t, int32(mateIn(9)), entry.Score)

	// Losing mates adjust symmetrically.
	tt.Store(0xDEF, matedIn(4), 9, 2, BoundExact, board.NoMove)
	entry, ok = tt.Probe(0xDEF, 6)
	require.True(t, ok)
	require.Equal(t, int32(matedIn(8)), entry.Score)
}

func TestTTClear(t *testing.T) {
	tt := NewTranspositionTable(1)
	tt.Store(0x1, 1, 1, 0, BoundExact, board.NoMove)
	tt.Clear()
	_, ok := tt.Probe(0x1, 0)
	require.False(t, ok)
}

func TestMateScoreHelpers(t *testing.T) {
	require.Equal(t, MateValue-3, mateIn(3))
	require.Equal(t, -MateValue+3, matedIn(3))
	require.True(t, isMateScore(mateIn(10)))
	require.True(t, isMateScore(matedIn(10)))
	require.False(t, isMateScore(900))
	require.False(t, isMateScore(TBWinScore))

	require.Equal(t, 1, movesToMate(mateIn(1)))
	require.Equal(t, 2, movesToMate(mateIn(3)))
	require.Equal(t, -1, movesToMate(matedIn(2)))
	require.Equal(t, -2, movesToMate(matedIn(4)))
}
