package engine

import (
	"time"

	"github.com/sorenvik/corvid/internal/board"
)

// Limits carries everything a "go" command can constrain a search by.
// Zero values mean "not given".
type Limits struct {
	Time      [2]time.Duration // remaining clock per colour
	Inc       [2]time.Duration // increment per colour
	MovesToGo int              // moves to the next time control
	MoveTime  time.Duration    // fixed time for this move
	Depth     int              // fixed depth
	Nodes     uint64           // node budget
	Infinite  bool             // search until "stop"
}

// DefaultMoveOverhead is subtracted from every time budget as headroom for
// GUI round-trips and scheduling jitter. Tunable via "Move Overhead".
const DefaultMoveOverhead = 10 * time.Millisecond

// TimeManager turns the limits into two budgets: optimum, the target spend
// for this move (iterative deepening stops starting new iterations past it),
// and maximum, the hard ceiling enforced mid-search. Zero budgets mean no
// time constraint.
type TimeManager struct {
	start      time.Time
	optimum    time.Duration
	maximum    time.Duration
	nodeBudget uint64
}

// Start computes the budgets for the side to move and begins the clock.
func (tm *TimeManager) Start(limits Limits, us board.Color, overhead time.Duration) {
	tm.start = time.Now()
	tm.optimum = 0
	tm.maximum = 0
	tm.nodeBudget = limits.Nodes

	if limits.MoveTime > 0 {
		budget := maxDuration(limits.MoveTime-overhead, time.Millisecond)
		tm.optimum = budget
		tm.maximum = budget
		return
	}

	if limits.Infinite || limits.Time[us] == 0 {
		return // no clock: only depth/nodes/stop can end the search
	}

	remaining := maxDuration(limits.Time[us]-overhead, time.Millisecond)
	inc := limits.Inc[us]

	if mtg := limits.MovesToGo; mtg > 0 {
		tm.optimum = remaining/time.Duration(mtg) + inc
		tm.maximum = 5*remaining/time.Duration(mtg+10) + inc
	} else {
		tm.optimum = remaining/25 + inc
		tm.maximum = remaining/15 + 3*inc
	}

	tm.optimum = minDuration(tm.optimum, remaining)
	tm.maximum = minDuration(tm.maximum, remaining)
}

// Elapsed returns the time since Start.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.start)
}

// ResourcesLeft reports whether the search may continue. Callers poll it
// only every 1024 nodes to amortise the clock read.
func (tm *TimeManager) ResourcesLeft(nodes uint64) bool {
	if tm.maximum > 0 && tm.Elapsed() >= tm.maximum {
		return false
	}
	if tm.nodeBudget > 0 && nodes > tm.nodeBudget {
		return false
	}
	return true
}

// PastOptimum reports whether the target budget is spent; checked between
// iterative-deepening iterations.
func (tm *TimeManager) PastOptimum() bool {
	return tm.optimum > 0 && tm.Elapsed() >= tm.optimum
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
