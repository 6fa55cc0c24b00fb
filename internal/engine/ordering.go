package engine

import (
	"github.com/sorenvik/corvid/internal/board"
)

// Move-ordering score tiers. Tiers are spaced so scores from different tiers
// can never tie: the capture tiers carry an MVV/LVA offset well under one
// million, and history scores stay inside +/-historyMax.
const (
	scoreHashMove   = 10_000_000
	scoreQueenPromo = 9_000_000
	scoreGoodCap    = 8_000_000
	scoreKiller1    = 7_000_000
	scoreKiller2    = 6_000_000
	scoreCounter    = 5_000_000
	scoreBadCap     = 2_000_000
	scoreUnderPromo = -3_000_000

	historyMax = 30_000
)

// mvvLva scores a capture by victim value first, attacker value second, so a
// pawn taking a queen sorts before a queen taking a queen.
func mvvLva(victim, attacker board.PieceType) int {
	return board.PieceValue[victim]*8 - board.PieceValue[attacker]/8
}

// History holds one worker's quiet-move ordering state: two killers per ply,
// a bounded main-history counter per (side, from, to), and a counter-move
// per (previous from, previous to).
type History struct {
	killers [MaxPly][2]board.Move
	main    [2][64][64]int16
	counter [64][64]board.Move
}

// Clear wipes all tables, used between games.
func (h *History) Clear() {
	*h = History{}
}

// historyBonus grows with depth but saturates so one deep cutoff cannot
// dominate the table.
func historyBonus(depth int) int {
	return min(1500, depth*100)
}

func (h *History) updateMain(stm board.Color, m board.Move, delta int) {
	v := int(h.main[stm][m.From()][m.To()]) + delta
	if v > historyMax {
		v = historyMax
	}
	if v < -historyMax {
		v = -historyMax
	}
	h.main[stm][m.From()][m.To()] = int16(v)
}

// OnBetaCutoff records a quiet move that refuted the node: it becomes the
// first killer for the ply and the counter of the previous move, gains a
// main-history bonus, and every quiet move tried before it at this node is
// penalised by the same amount.
func (h *History) OnBetaCutoff(stm board.Color, m, prev board.Move, ply, depth int, tried []board.Move) {
	if h.killers[ply][0] != m {
		h.killers[ply][1] = h.killers[ply][0]
		h.killers[ply][0] = m
	}
	if prev != board.NoMove {
		h.counter[prev.From()][prev.To()] = m
	}

	bonus := historyBonus(depth)
	h.updateMain(stm, m, bonus)
	for _, earlier := range tried {
		if earlier != m {
			h.updateMain(stm, earlier, -bonus)
		}
	}
}

// pickerStage tracks the MovePicker state machine.
type pickerStage uint8

const (
	stageHashMove pickerStage = iota
	stageGenerate
	stagePlay
	stageDone
)

// MovePicker hands out the moves of one node best-score first. It is a lazy
// stream: the hash move is yielded first once the generated list confirms it
// is legal, and the remaining moves are selection-sorted one at a time, which
// is cheapest when a cutoff consumes only a short prefix.
type MovePicker struct {
	pos      *board.Position
	history  *History
	hashMove board.Move
	prev     board.Move
	ply      int
	captures bool

	stage  pickerStage
	moves  *board.MoveList
	scores [256]int
	index  int
}

// NewMovePicker prepares a picker for one node. hashMove is tried first when
// legal; prev is the move that led to this node, for the counter-move tier.
// capturesOnly restricts generation for quiescence.
func NewMovePicker(pos *board.Position, history *History, hashMove, prev board.Move, ply int, capturesOnly bool) *MovePicker {
	mp := &MovePicker{
		pos:      pos,
		history:  history,
		hashMove: hashMove,
		prev:     prev,
		ply:      ply,
		captures: capturesOnly,
		stage:    stageHashMove,
	}
	if capturesOnly || hashMove == board.NoMove {
		mp.stage = stageGenerate
	}
	return mp
}

// Next returns the next best move, or NoMove when the node is exhausted.
func (mp *MovePicker) Next() board.Move {
	switch mp.stage {
	case stageHashMove:
		// Generate eagerly to vet the hash move: a stale or torn table
		// entry must never inject an illegal move into the search.
		mp.generate()
		mp.stage = stagePlay
		if mp.moves.Contains(mp.hashMove) {
			return mp.hashMove
		}
		return mp.Next()

	case stageGenerate:
		mp.generate()
		mp.stage = stagePlay
		return mp.Next()

	case stagePlay:
		for mp.index < mp.moves.Len() {
			best := mp.index
			for i := mp.index + 1; i < mp.moves.Len(); i++ {
				if mp.scores[i] > mp.scores[best] {
					best = i
				}
			}
			mp.moves.Swap(mp.index, best)
			mp.scores[mp.index], mp.scores[best] = mp.scores[best], mp.scores[mp.index]

			m := mp.moves.Get(mp.index)
			mp.index++
			if m == mp.hashMove && !mp.captures {
				continue // already yielded by the hash-move stage
			}
			return m
		}
		mp.stage = stageDone
		return board.NoMove

	default:
		return board.NoMove
	}
}

func (mp *MovePicker) generate() {
	if mp.captures {
		mp.moves = mp.pos.GenerateCaptures()
	} else {
		mp.moves = mp.pos.GenerateLegalMoves()
	}
	for i := 0; i < mp.moves.Len(); i++ {
		mp.scores[i] = mp.score(mp.moves.Get(i))
	}
}

// Len returns the number of generated moves; zero until generation ran.
func (mp *MovePicker) Len() int {
	if mp.moves == nil {
		return 0
	}
	return mp.moves.Len()
}

// score assigns the ordering tier for one move.
func (mp *MovePicker) score(m board.Move) int {
	if m == mp.hashMove {
		return scoreHashMove
	}

	if m.IsPromotion() {
		if m.Promotion() == board.Queen {
			return scoreQueenPromo
		}
		return scoreUnderPromo
	}

	if m.IsCapture() {
		victim := board.Pawn // en passant victim is off the target square
		if !m.IsEnPassant() {
			victim = mp.pos.PieceAt(m.To()).Type()
		}
		attacker := mp.pos.PieceAt(m.From()).Type()
		if SEE(mp.pos, m, 0) {
			return scoreGoodCap + mvvLva(victim, attacker)
		}
		return scoreBadCap + mvvLva(victim, attacker)
	}

	if mp.history != nil {
		if m == mp.history.killers[mp.ply][0] {
			return scoreKiller1
		}
		if m == mp.history.killers[mp.ply][1] {
			return scoreKiller2
		}
		if mp.prev != board.NoMove && m == mp.history.counter[mp.prev.From()][mp.prev.To()] {
			return scoreCounter
		}
		return int(mp.history.main[mp.pos.SideToMove][m.From()][m.To()])
	}
	return 0
}

// SEE statically resolves the capture sequence on a move's target square,
// alternating least-valuable attackers, and reports whether the exchange
// nets at least threshold for the side to move. Castling never wins or
// loses material; a promoting pawn is valued as a pawn.
func SEE(pos *board.Position, m board.Move, threshold int) bool {
	if m.IsCastling() {
		return threshold <= 0
	}

	from, to := m.From(), m.To()

	victimValue := 0
	occ := pos.AllOccupied
	if m.IsEnPassant() {
		victimValue = board.PieceValue[board.Pawn]
		if pos.SideToMove == board.White {
			occ &^= board.SquareBB(to - 8)
		} else {
			occ &^= board.SquareBB(to + 8)
		}
	} else if victim := pos.PieceAt(to); victim != board.NoPiece {
		victimValue = victim.Value()
	}

	swap := victimValue - threshold
	if swap < 0 {
		return false
	}

	mover := pos.PieceAt(from)
	swap = mover.Value() - swap
	if swap <= 0 {
		return true
	}

	occ ^= board.SquareBB(from)
	occ |= board.SquareBB(to)
	stm := mover.Color()

	attackers := pos.AttackersTo(to, occ)
	diagSliders := pos.Pieces[board.White][board.Bishop] | pos.Pieces[board.Black][board.Bishop] |
		pos.Pieces[board.White][board.Queen] | pos.Pieces[board.Black][board.Queen]
	lineSliders := pos.Pieces[board.White][board.Rook] | pos.Pieces[board.Black][board.Rook] |
		pos.Pieces[board.White][board.Queen] | pos.Pieces[board.Black][board.Queen]

	res := 1
	for {
		stm = stm.Other()
		attackers &= occ

		stmAttackers := attackers & pos.Occupied[stm]
		if stmAttackers == 0 {
			break
		}
		res ^= 1

		// Capture with the least valuable attacker.
		var pt board.PieceType
		var bb board.Bitboard
		for pt = board.Pawn; pt <= board.King; pt++ {
			if bb = stmAttackers & pos.Pieces[stm][pt]; bb != 0 {
				break
			}
		}

		if pt == board.King {
			// The king may only recapture when the opponent has no
			// attacker left to answer with.
			if attackers&occ&pos.Occupied[stm.Other()] != 0 {
				res ^= 1
			}
			break
		}

		swap = board.PieceValue[pt] - swap
		if swap < res {
			break
		}

		occ ^= board.SquareBB(bb.LSB())
		// Removing an attacker can uncover a slider behind it.
		switch pt {
		case board.Pawn, board.Bishop:
			attackers |= board.BishopAttacks(to, occ) & diagSliders
		case board.Rook:
			attackers |= board.RookAttacks(to, occ) & lineSliders
		case board.Queen:
			attackers |= (board.BishopAttacks(to, occ) & diagSliders) |
				(board.RookAttacks(to, occ) & lineSliders)
		}
	}

	return res != 0
}
