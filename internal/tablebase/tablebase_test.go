package tablebase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sorenvik/corvid/internal/board"
)

func TestNoopProber(t *testing.T) {
	var prober NoopProber

	require.False(t, prober.Available())
	require.Zero(t, prober.MaxPieces())

	pos := board.NewPosition()
	require.False(t, prober.Probe(pos).Found)
	require.False(t, prober.ProbeRoot(pos).Found)
}

func TestCountPieces(t *testing.T) {
	require.Equal(t, 32, CountPieces(board.NewPosition()))

	pos, err := board.ParseFEN("8/8/8/8/8/4k3/8/4K2R w K - 0 1")
	require.NoError(t, err)
	require.Equal(t, 3, CountPieces(pos))
}

func TestCategoryToWDL(t *testing.T) {
	cases := map[string]WDL{
		"win":          WDLWin,
		"cursed-win":   WDLCursedWin,
		"maybe-win":    WDLCursedWin,
		"draw":         WDLDraw,
		"maybe-draw":   WDLDraw,
		"blessed-loss": WDLBlessedLoss,
		"loss":         WDLLoss,
		"gibberish":    WDLDraw,
	}
	for category, want := range cases {
		require.Equal(t, want, categoryToWDL(category), category)
	}
}

func TestMenInTableName(t *testing.T) {
	require.Equal(t, 2, menInTableName("KvK"))
	require.Equal(t, 5, menInTableName("KQRvKR"))
	require.Equal(t, 5, menInTableName("KPPvKQ"))
}

// TestCachedProberServesRepeatFromCache exercises the badger-backed cache:
// the first probe misses and stores, the second must be served from disk
// without touching the inner prober.
func TestCachedProberServesRepeatFromCache(t *testing.T) {
	inner := &countingProber{result: ProbeResult{Found: true, WDL: WDLWin, DTZ: 12}}
	cp := NewCachedProber(inner, t.TempDir())
	defer cp.Close()

	pos, err := board.ParseFEN("8/8/8/8/8/4k3/8/4K2R w K - 0 1")
	require.NoError(t, err)

	first := cp.Probe(pos)
	require.Equal(t, inner.result, first)
	require.Equal(t, 1, inner.calls)

	second := cp.Probe(pos)
	require.Equal(t, inner.result, second)
	require.Equal(t, 1, inner.calls, "second probe must hit the cache")
}

type countingProber struct {
	result ProbeResult
	calls  int
}

func (cp *countingProber) Probe(*board.Position) ProbeResult {
	cp.calls++
	return cp.result
}
func (cp *countingProber) ProbeRoot(*board.Position) RootResult { return RootResult{} }
func (cp *countingProber) MaxPieces() int                       { return 7 }
func (cp *countingProber) Available() bool                      { return true }
