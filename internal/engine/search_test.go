package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sorenvik/corvid/internal/board"
)

func searchFEN(t *testing.T, fen string, depth int) (board.Move, Report) {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	require.NoError(t, err)

	eng := New(16)
	var last Report
	best := eng.Search(pos, Limits{Depth: depth}, func(r Report) { last = r })
	return best, last
}

func TestBackRankMate(t *testing.T) {
	best, last := searchFEN(t, "6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1", 8)
	require.Equal(t, "d1d8", best.String())
	require.True(t, last.Mate)
	require.Equal(t, 1, last.Score, "score mate 1")
}

func TestAlreadyCheckmated(t *testing.T) {
	// The fool's mate line leaves white mated with no legal move; the
	// engine must answer with the null-move sentinel.
	pos := board.NewPosition()
	for _, ms := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		m, err := board.ParseMove(ms, pos)
		require.NoError(t, err)
		pos.MakeMove(m)
	}
	require.True(t, pos.IsCheckmate())

	eng := New(16)
	best := eng.Search(pos, Limits{Depth: 4}, nil)
	require.Equal(t, board.NoMove, best)
	require.Equal(t, "0000", best.String())
}

func TestPassedPawnPromotes(t *testing.T) {
	best, last := searchFEN(t, "8/P7/8/8/8/8/8/k6K w - - 0 1", 5)
	require.Equal(t, "a7a8q", best.String())
	require.Greater(t, last.Score, 500, "promotion must be winning")
	require.False(t, last.Mate)
}

func TestStalemateAvoided(t *testing.T) {
	best, last := searchFEN(t, "7k/5Q2/6K1/8/8/8/8/8 w - - 0 1", 8)
	require.NotEqual(t, "f7g7", best.String(), "f7g7 is stalemate")
	if !last.Mate {
		require.Greater(t, last.Score, 500, "the position stays winning")
	}
}

func TestMateInTwoScore(t *testing.T) {
	// 1.Kg6 Kg8 (forced) 2.Ra8# mates in two (so does 1.Kf7 Kh7 2.Rh1#) and
	// there is no mate in one; the root score must come out as MateValue-3,
	// reported as "mate 2".
	pos, err := board.ParseFEN("7k/8/5K2/8/8/8/8/R7 w - - 0 1")
	require.NoError(t, err)

	eng := New(16)
	var last Report
	best := eng.Search(pos, Limits{Depth: 8}, func(r Report) { last = r })

	require.True(t, last.Mate)
	require.Equal(t, 2, last.Score, "mate in two moves")
	require.NotEqual(t, board.NoMove, best)
}

func TestSearchRespectsNodeBudget(t *testing.T) {
	pos := board.NewPosition()
	eng := New(16)

	best := eng.Search(pos, Limits{Nodes: 20_000}, nil)
	require.NotEqual(t, board.NoMove, best, "a completed depth must survive the cutoff")
}

func TestStopYieldsCompletedDepthMove(t *testing.T) {
	pos := board.NewPosition()
	eng := New(16)

	depths := 0
	best := eng.Search(pos, Limits{Depth: 6}, func(r Report) {
		depths++
		if depths == 2 {
			eng.Stop()
		}
	})
	require.NotEqual(t, board.NoMove, best)
}

func TestMultiThreadedSearchAgrees(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1")
	require.NoError(t, err)

	eng := New(16)
	eng.SetThreads(4)
	var last Report
	best := eng.Search(pos, Limits{Depth: 8}, func(r Report) { last = r })
	require.Equal(t, "d1d8", best.String())
	require.True(t, last.Mate)
}

func TestKnownEndgameEval(t *testing.T) {
	// KQ vs K: the shortcut fires and favours the queen's side.
	pos, err := board.ParseFEN("8/8/8/3k4/8/8/8/KQ6 w - - 0 1")
	require.NoError(t, err)

	score, ok := evalKnownEndgame(pos)
	require.True(t, ok)
	require.Greater(t, score, knownWinBase-200)

	// Same board from the weak side's view scores the negation.
	posB, err := board.ParseFEN("8/8/8/3k4/8/8/8/KQ6 b - - 0 1")
	require.NoError(t, err)
	scoreB, ok := evalKnownEndgame(posB)
	require.True(t, ok)
	require.Equal(t, -score, scoreB)

	// Four men: the shortcut must not fire.
	pos4, err := board.ParseFEN("8/8/8/3k4/7p/8/8/KQ6 w - - 0 1")
	require.NoError(t, err)
	_, ok = evalKnownEndgame(pos4)
	require.False(t, ok)
}

func TestEdgeDriveScoresHigher(t *testing.T) {
	// With the attacking king at the same distance, the weak king on the
	// edge must score better for the strong side than in the centre.
	centre, err := board.ParseFEN("8/8/8/3k4/8/3K4/8/Q7 w - - 0 1")
	require.NoError(t, err)
	edge, err := board.ParseFEN("3k4/8/3K4/8/8/8/8/Q7 w - - 0 1")
	require.NoError(t, err)

	centreScore, _ := evalKnownEndgame(centre)
	edgeScore, _ := evalKnownEndgame(edge)
	require.Greater(t, edgeScore, centreScore)
}

func TestBenchIsDeterministic(t *testing.T) {
	if testing.Short() {
		t.Skip("bench suite skipped in short mode")
	}

	eng := New(32)
	nodes1, _ := eng.Bench(5)
	nodes2, _ := eng.Bench(5)
	require.NotZero(t, nodes1)
	require.Equal(t, nodes1, nodes2, "fixed-depth bench must reproduce its node count")
}
