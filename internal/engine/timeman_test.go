package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sorenvik/corvid/internal/board"
)

func TestTimeManagerFixedMoveTime(t *testing.T) {
	var tm TimeManager
	tm.Start(Limits{MoveTime: 1000 * time.Millisecond}, board.White, 10*time.Millisecond)

	require.Equal(t, 990*time.Millisecond, tm.optimum)
	require.Equal(t, 990*time.Millisecond, tm.maximum)
}

func TestTimeManagerInfinite(t *testing.T) {
	var tm TimeManager
	tm.Start(Limits{Infinite: true}, board.White, 10*time.Millisecond)
	require.Zero(t, tm.optimum)
	require.Zero(t, tm.maximum)
	require.True(t, tm.ResourcesLeft(1<<40))
	require.False(t, tm.PastOptimum())

	// No clock given at all behaves the same.
	tm.Start(Limits{Depth: 12}, board.Black, 10*time.Millisecond)
	require.Zero(t, tm.maximum)
}

func TestTimeManagerSuddenDeath(t *testing.T) {
	var tm TimeManager
	limits := Limits{
		Time: [2]time.Duration{60 * time.Second, 30 * time.Second},
		Inc:  [2]time.Duration{time.Second, time.Second},
	}
	overhead := 10 * time.Millisecond
	tm.Start(limits, board.Black, overhead)

	remaining := 30*time.Second - overhead
	require.Equal(t, remaining/25+time.Second, tm.optimum)
	require.Equal(t, remaining/15+3*time.Second, tm.maximum)
}

func TestTimeManagerMovesToGo(t *testing.T) {
	var tm TimeManager
	limits := Limits{
		Time:      [2]time.Duration{30 * time.Second, 30 * time.Second},
		MovesToGo: 20,
	}
	overhead := 10 * time.Millisecond
	tm.Start(limits, board.White, overhead)

	remaining := 30*time.Second - overhead
	require.Equal(t, remaining/20, tm.optimum)
	require.Equal(t, 5*remaining/30, tm.maximum)
}

func TestTimeManagerClampsToRemaining(t *testing.T) {
	var tm TimeManager
	// One move to go with a big increment would exceed the clock.
	limits := Limits{
		Time:      [2]time.Duration{2 * time.Second, 2 * time.Second},
		Inc:       [2]time.Duration{10 * time.Second, 10 * time.Second},
		MovesToGo: 1,
	}
	tm.Start(limits, board.White, 10*time.Millisecond)

	remaining := 2*time.Second - 10*time.Millisecond
	require.Equal(t, remaining, tm.optimum)
	require.Equal(t, remaining, tm.maximum)
}

func TestTimeManagerNodeBudget(t *testing.T) {
	var tm TimeManager
	tm.Start(Limits{Nodes: 5000}, board.White, 0)

	require.True(t, tm.ResourcesLeft(4096))
	require.True(t, tm.ResourcesLeft(5000))
	require.False(t, tm.ResourcesLeft(5001))
}
