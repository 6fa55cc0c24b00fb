// Package uci speaks the UCI text protocol on a line stream: it owns the
// controller side of the engine (position setup, option plumbing, search
// start/stop) and leaves all chess knowledge to the engine and board
// packages. Malformed input is answered with an "info string" diagnostic and
// otherwise ignored; the protocol loop never crashes on bad input.
package uci

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sorenvik/corvid/internal/board"
	"github.com/sorenvik/corvid/internal/engine"
	"github.com/sorenvik/corvid/internal/tablebase"
)

const (
	engineName   = "Corvid"
	engineAuthor = "Soren Vik"
)

// Protocol is one UCI session over an input and output stream.
type Protocol struct {
	eng *engine.Engine
	pos *board.Position

	in  io.Reader
	out io.Writer

	outMu     sync.Mutex
	searchWG  sync.WaitGroup
	searching atomic.Bool

	prober *tablebase.SyzygyProber
}

// New builds a session on stdin/stdout.
func New(eng *engine.Engine) *Protocol {
	return &Protocol{
		eng: eng,
		pos: board.NewPosition(),
		in:  os.Stdin,
		out: os.Stdout,
	}
}

// NewWithStreams builds a session on explicit streams, used by tests.
func NewWithStreams(eng *engine.Engine, in io.Reader, out io.Writer) *Protocol {
	p := New(eng)
	p.in = in
	p.out = out
	return p
}

// Run reads commands until "quit" or EOF. A search in flight when the loop
// ends is stopped and drained first.
func (p *Protocol) Run() {
	scanner := bufio.NewScanner(p.in)
	scanner.Buffer(make([]byte, 1<<16), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !p.dispatch(line) {
			break
		}
	}

	p.eng.Stop()
	p.searchWG.Wait()
}

// dispatch handles one command line; returns false on quit.
func (p *Protocol) dispatch(line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "uci":
		p.identify()
	case "isready":
		p.println("readyok")
	case "ucinewgame":
		p.eng.Stop()
		p.searchWG.Wait()
		p.eng.NewGame()
	case "position":
		p.handlePosition(args)
	case "go":
		p.handleGo(args)
	case "stop":
		p.eng.Stop()
	case "setoption":
		p.handleSetOption(args)
	case "perft":
		p.handlePerft(args)
	case "bench":
		p.handleBench(args)
	case "d":
		p.println(p.pos.String())
	case "quit":
		return false
	default:
		p.printf("info string unknown command: %s\n", cmd)
	}
	return true
}

func (p *Protocol) identify() {
	p.printf("id name %s\n", engineName)
	p.printf("id author %s\n", engineAuthor)
	p.println("option name Hash type spin default 64 min 1 max 16384")
	p.println("option name Threads type spin default 1 min 1 max 256")
	p.println("option name Move Overhead type spin default 10 min 0 max 5000")
	p.println("option name SyzygyPath type string default <empty>")
	p.println("option name UseNNUE type check default true")
	p.println("option name EvalFile type string default <empty>")
	p.println("option name Debug type check default false")
	p.println("uciok")
}

// handlePosition implements "position [startpos | fen <FEN>] [moves ...]".
func (p *Protocol) handlePosition(args []string) {
	if len(args) == 0 {
		p.println("info string position: missing arguments")
		return
	}

	movesAt := -1
	for i, a := range args {
		if a == "moves" {
			movesAt = i
			break
		}
	}

	var pos *board.Position
	var err error
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		end := movesAt
		if end == -1 {
			end = len(args)
		}
		pos, err = board.ParseFEN(strings.Join(args[1:end], " "))
		if err != nil {
			p.printf("info string bad fen: %v\n", err)
			return
		}
	default:
		p.printf("info string position: expected startpos or fen, got %s\n", args[0])
		return
	}

	if movesAt != -1 {
		for _, ms := range args[movesAt+1:] {
			m, err := board.ParseMove(ms, pos)
			if err != nil || !pos.GenerateLegalMoves().Contains(m) {
				p.printf("info string illegal move in position command: %s\n", ms)
				return
			}
			pos.MakeMove(m)
		}
	}

	p.pos = pos
}

// handleGo parses the limits and starts the search on its own goroutine so
// the loop stays responsive to "stop".
func (p *Protocol) handleGo(args []string) {
	var limits engine.Limits

	nextInt := func(i int) (int, bool) {
		if i+1 >= len(args) {
			return 0, false
		}
		v, err := strconv.Atoi(args[i+1])
		return v, err == nil
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "wtime":
			if v, ok := nextInt(i); ok {
				limits.Time[board.White] = time.Duration(v) * time.Millisecond
				i++
			}
		case "btime":
			if v, ok := nextInt(i); ok {
				limits.Time[board.Black] = time.Duration(v) * time.Millisecond
				i++
			}
		case "winc":
			if v, ok := nextInt(i); ok {
				limits.Inc[board.White] = time.Duration(v) * time.Millisecond
				i++
			}
		case "binc":
			if v, ok := nextInt(i); ok {
				limits.Inc[board.Black] = time.Duration(v) * time.Millisecond
				i++
			}
		case "movestogo":
			if v, ok := nextInt(i); ok {
				limits.MovesToGo = v
				i++
			}
		case "depth":
			if v, ok := nextInt(i); ok {
				limits.Depth = v
				i++
			}
		case "movetime":
			if v, ok := nextInt(i); ok {
				limits.MoveTime = time.Duration(v) * time.Millisecond
				i++
			}
		case "nodes":
			if v, ok := nextInt(i); ok {
				limits.Nodes = uint64(v)
				i++
			}
		case "infinite":
			limits.Infinite = true
		default:
			p.printf("info string go: ignoring %s\n", args[i])
		}
	}

	if !p.searching.CompareAndSwap(false, true) {
		p.println("info string search already running, ignoring go")
		return
	}

	pos := p.pos.Copy()
	p.searchWG.Add(1)
	go func() {
		defer p.searchWG.Done()
		defer p.searching.Store(false)
		best := p.eng.Search(pos, limits, p.reportInfo)
		p.printf("bestmove %s\n", best)
	}()
}

// reportInfo prints one "info" line per completed depth.
func (p *Protocol) reportInfo(r engine.Report) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "info depth %d seldepth %d", r.Depth, r.SelDepth)
	if r.Mate {
		fmt.Fprintf(&sb, " score mate %d", r.Score)
	} else {
		fmt.Fprintf(&sb, " score cp %d", r.Score)
	}
	fmt.Fprintf(&sb, " nodes %d nps %d time %d", r.Nodes, r.NPS, r.Time.Milliseconds())
	if len(r.PV) > 0 {
		sb.WriteString(" pv")
		for _, m := range r.PV {
			sb.WriteByte(' ')
			sb.WriteString(m.String())
		}
	}
	p.println(sb.String())
}

// handleSetOption implements "setoption name <name> [value <value>]"; names
// may contain spaces.
func (p *Protocol) handleSetOption(args []string) {
	name, value, ok := splitOption(args)
	if !ok {
		p.println("info string setoption: malformed command")
		return
	}

	switch strings.ToLower(name) {
	case "hash":
		if mb, err := strconv.Atoi(value); err == nil && mb > 0 {
			p.eng.SetHashSize(mb)
		} else {
			p.printf("info string bad Hash value: %s\n", value)
		}
	case "threads":
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			p.eng.SetThreads(n)
		} else {
			p.printf("info string bad Threads value: %s\n", value)
		}
	case "move overhead":
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			p.eng.SetMoveOverhead(time.Duration(ms) * time.Millisecond)
		} else {
			p.printf("info string bad Move Overhead value: %s\n", value)
		}
	case "syzygypath":
		if value == "" || value == "<empty>" {
			p.eng.SetProber(nil)
			p.prober = nil
			return
		}
		if p.prober == nil {
			p.prober = tablebase.NewSyzygyProber(value)
		} else {
			p.prober.SetPath(value)
		}
		p.eng.SetProber(p.prober)
	case "usennue":
		p.eng.SetUseNetwork(strings.EqualFold(value, "true"))
	case "evalfile":
		if err := p.eng.LoadNetwork(value); err != nil {
			p.printf("info string cannot load eval file %s: %v\n", value, err)
		}
	case "debug":
		p.eng.SetDebug(strings.EqualFold(value, "true"))
	default:
		p.printf("info string unknown option: %s\n", name)
	}
}

// splitOption pulls the name and value out of a setoption argument list.
func splitOption(args []string) (name, value string, ok bool) {
	if len(args) == 0 || args[0] != "name" {
		return "", "", false
	}
	rest := args[1:]
	for i, a := range rest {
		if a == "value" {
			return strings.Join(rest[:i], " "), strings.Join(rest[i+1:], " "), i > 0
		}
	}
	return strings.Join(rest, " "), "", len(rest) > 0
}

// handlePerft runs the move-generation validator on the current position,
// printing per-move subtotals the way reference engines do so a divergence
// can be bisected against another engine.
func (p *Protocol) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			depth = v
		}
	}

	start := time.Now()
	moves, counts := board.PerftDivide(p.pos, depth)
	var total int64
	for i, m := range moves {
		p.printf("%s: %d\n", m, counts[i])
		total += counts[i]
	}
	p.printf("info string perft(%d) = %d in %v\n", depth, total, time.Since(start))
}

// handleBench runs the fixed benchmark suite and reports its node signature.
func (p *Protocol) handleBench(args []string) {
	depth := 8
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			depth = v
		}
	}

	nodes, elapsed := p.eng.Bench(depth)
	nps := uint64(0)
	if ms := elapsed.Milliseconds(); ms > 0 {
		nps = nodes * 1000 / uint64(ms)
	}
	p.printf("info string bench depth %d nodes %d nps %d time %d\n",
		depth, nodes, nps, elapsed.Milliseconds())
}

func (p *Protocol) println(s string) {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	fmt.Fprintln(p.out, s)
}

func (p *Protocol) printf(format string, args ...any) {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}
