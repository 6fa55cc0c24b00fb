package nnue

import "github.com/sorenvik/corvid/internal/board"

// kingBucket maps the own king's square (from the perspective's own point of
// view, i.e. already mirrored for black) onto one of KingBuckets regions:
// board quadrants, low bit selecting the kingside half.
var kingBucket [64]int

func init() {
	for sq := 0; sq < 64; sq++ {
		b := 0
		if sq&7 >= 4 {
			b |= 1
		}
		if sq>>3 >= 4 {
			b |= 2
		}
		kingBucket[sq] = b
	}
}

// featureIndex computes the input-feature index of a piece seen from the
// given perspective. Black's view mirrors every square by XOR 56 and counts
// its own pieces as "own" colour.
func featureIndex(persp board.Color, piece board.Piece, sq, kingSq board.Square) int {
	if persp == board.Black {
		sq = sq.Mirror()
		kingSq = kingSq.Mirror()
	}
	colour := 0
	if piece.Color() != persp {
		colour = 1
	}
	bucket := kingBucket[kingSq]
	return ((bucket*2+colour)*6+int(piece.Type()))*64 + int(sq)
}

// Accumulator holds the hidden-layer pre-activations for both perspectives.
// Invariant: each half equals the feature biases plus the sum of the feature
// weight columns of every piece on the board, relative to that perspective's
// king bucket.
type Accumulator struct {
	Perspectives [2][HiddenSize]int16
}

// Refresh recomputes both perspective halves from scratch.
func (a *Accumulator) Refresh(net *Network, pos *board.Position) {
	a.refreshPerspective(net, pos, board.White)
	a.refreshPerspective(net, pos, board.Black)
}

func (a *Accumulator) refreshPerspective(net *Network, pos *board.Position, persp board.Color) {
	half := &a.Perspectives[persp]
	copy(half[:], net.FeatureBiases[:])

	kingSq := pos.KingSquare[persp]
	for c := board.White; c <= board.Black; c++ {
		for pt := board.Pawn; pt <= board.King; pt++ {
			bb := pos.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				a.add(net, persp, board.NewPiece(pt, c), sq, kingSq)
			}
		}
	}
}

func (a *Accumulator) add(net *Network, persp board.Color, piece board.Piece, sq, kingSq board.Square) {
	half := &a.Perspectives[persp]
	col := featureIndex(persp, piece, sq, kingSq) * HiddenSize
	for i := 0; i < HiddenSize; i++ {
		half[i] += net.FeatureWeights[col+i]
	}
}

func (a *Accumulator) remove(net *Network, persp board.Color, piece board.Piece, sq, kingSq board.Square) {
	half := &a.Perspectives[persp]
	col := featureIndex(persp, piece, sq, kingSq) * HiddenSize
	for i := 0; i < HiddenSize; i++ {
		half[i] -= net.FeatureWeights[col+i]
	}
}

// Stack is a bounded stack of accumulators mirroring the search's make/undo
// stack: Push snapshots and applies a move's feature deltas, Pop discards the
// top. The bottom entry is seeded by Reset from the search root.
type Stack struct {
	accs [stackDepth]Accumulator
	top  int
}

// stackDepth covers the deepest search line, quiescence included.
const stackDepth = 256

// Reset seeds the stack with a freshly refreshed accumulator for pos.
func (s *Stack) Reset(net *Network, pos *board.Position) {
	s.top = 0
	s.accs[0].Refresh(net, pos)
}

// Top returns the accumulator for the current node.
func (s *Stack) Top() *Accumulator {
	return &s.accs[s.top]
}

// PushNull duplicates the top for a null move, which changes no features.
func (s *Stack) PushNull() {
	s.accs[s.top+1] = s.accs[s.top]
	s.top++
}

// Pop discards the top snapshot, restoring the pre-make accumulator.
func (s *Stack) Pop() {
	s.top--
}

// Push applies the feature deltas of a move that has already been made on
// pos. The caller supplies the moving piece and any captured piece as they
// were before the move, since the board no longer shows them.
//
// A perspective whose own king changed bucket is rebuilt from scratch: every
// feature index of that half depends on the bucket. The opponent half is
// always updated incrementally.
func (s *Stack) Push(net *Network, pos *board.Position, m board.Move, mover, captured board.Piece) {
	next := &s.accs[s.top+1]
	*next = s.accs[s.top]
	s.top++

	us := mover.Color()
	from := m.From()
	to := m.To()

	for persp := board.White; persp <= board.Black; persp++ {
		kingSq := pos.KingSquare[persp]

		if mover.Type() == board.King && persp == us {
			if kingBucketFor(persp, from) != kingBucketFor(persp, to) {
				next.refreshPerspective(net, pos, persp)
				continue
			}
		}

		next.remove(net, persp, mover, from, kingSq)

		placed := mover
		if m.IsPromotion() {
			placed = board.NewPiece(m.Promotion(), us)
		}
		next.add(net, persp, placed, to, kingSq)

		if captured != board.NoPiece {
			capSq := to
			if m.IsEnPassant() {
				if us == board.White {
					capSq = to - 8
				} else {
					capSq = to + 8
				}
			}
			next.remove(net, persp, captured, capSq, kingSq)
		}

		if m.IsCastling() {
			rookFrom, rookTo := castleRookSquares(m)
			rook := board.NewPiece(board.Rook, us)
			next.remove(net, persp, rook, rookFrom, kingSq)
			next.add(net, persp, rook, rookTo, kingSq)
		}
	}
}

func kingBucketFor(persp board.Color, kingSq board.Square) int {
	if persp == board.Black {
		kingSq = kingSq.Mirror()
	}
	return kingBucket[kingSq]
}

func castleRookSquares(m board.Move) (from, to board.Square) {
	rank := m.From().Rank()
	if m.IsKingSideCastle() {
		return board.NewSquare(7, rank), board.NewSquare(5, rank)
	}
	return board.NewSquare(0, rank), board.NewSquare(3, rank)
}
