package board

import "fmt"

// Move encodes a chess move in 16 bits: from:6, to:6, flags:4.
// main source is https://www.chessprogramming.org/Encoding_Moves
//
// Flag nibble (bit3=promotion, bit2=capture, bits1-0=sub-code):
//
//	0000 quiet          0001 double pawn push
//	0010 king castle    0011 queen castle
//	0100 capture        0101 en passant capture
//	1000 N-promo        1001 B-promo        1010 R-promo        1011 Q-promo
//	1100 N-promo-cap    1101 B-promo-cap    1110 R-promo-cap    1111 Q-promo-cap
type Move uint16

const (
	flagQuiet         = 0x0
	flagDoublePush    = 0x1
	flagKingCastle    = 0x2
	flagQueenCastle   = 0x3
	flagCapture       = 0x4
	flagEPCapture     = 0x5
	flagPromoN        = 0x8
	flagPromoB        = 0x9
	flagPromoR        = 0xA
	flagPromoQ        = 0xB
	flagPromoCaptureN = 0xC
	flagPromoCaptureB = 0xD
	flagPromoCaptureR = 0xE
	flagPromoCaptureQ = 0xF

	promoFlagBit   = 0x8
	captureFlagBit = 0x4
)

// NoMove represents an invalid or null move.
const NoMove Move = 0

func encode(from, to Square, flags uint16) Move {
	return Move(from) | Move(to)<<6 | Move(flags)<<12
}

// NewMove creates a quiet (non-special) move.
func NewMove(from, to Square) Move {
	return encode(from, to, flagQuiet)
}

// NewDoublePush creates a double pawn push move.
func NewDoublePush(from, to Square) Move {
	return encode(from, to, flagDoublePush)
}

// NewCapture creates a plain capture move.
func NewCapture(from, to Square) Move {
	return encode(from, to, flagCapture)
}

// NewEnPassant creates an en passant capture move.
func NewEnPassant(from, to Square) Move {
	return encode(from, to, flagEPCapture)
}

// NewCastling creates a castling move (king's movement); kingSide selects O-O vs O-O-O.
func NewCastling(from, to Square, kingSide bool) Move {
	if kingSide {
		return encode(from, to, flagKingCastle)
	}
	return encode(from, to, flagQueenCastle)
}

var promoFlagByPiece = [4]uint16{flagPromoN, flagPromoB, flagPromoR, flagPromoQ}
var promoCaptureFlagByPiece = [4]uint16{flagPromoCaptureN, flagPromoCaptureB, flagPromoCaptureR, flagPromoCaptureQ}

func promoSlot(pt PieceType) uint16 {
	switch pt {
	case Knight:
		return 0
	case Bishop:
		return 1
	case Rook:
		return 2
	default:
		return 3 // Queen
	}
}

// NewPromotion creates a non-capturing promotion move.
func NewPromotion(from, to Square, promo PieceType) Move {
	return encode(from, to, promoFlagByPiece[promoSlot(promo)])
}

// NewPromotionCapture creates a capturing promotion move.
func NewPromotionCapture(from, to Square, promo PieceType) Move {
	return encode(from, to, promoCaptureFlagByPiece[promoSlot(promo)])
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// flags returns the 4-bit flag nibble.
func (m Move) flags() uint16 {
	return uint16(m>>12) & 0xF
}

// Promotion returns the promotion piece type (only valid if IsPromotion() is true).
func (m Move) Promotion() PieceType {
	switch m.flags() & 0x3 {
	case 0:
		return Knight
	case 1:
		return Bishop
	case 2:
		return Rook
	default:
		return Queen
	}
}

// IsPromotion returns true if this move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m.flags()&promoFlagBit != 0
}

// IsCastling returns true if this is a castling move.
func (m Move) IsCastling() bool {
	f := m.flags()
	return f == flagKingCastle || f == flagQueenCastle
}

// IsKingSideCastle returns true if this is a kingside castling move.
func (m Move) IsKingSideCastle() bool {
	return m.flags() == flagKingCastle
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.flags() == flagEPCapture
}

// IsDoublePush returns true if this is a two-square pawn push.
func (m Move) IsDoublePush() bool {
	return m.flags() == flagDoublePush
}

// IsCapture reports whether the packed flag nibble marks this move as a
// capture. Unlike a board lookup this needs no position argument.
func (m Move) IsCapture() bool {
	return m.flags()&captureFlagBit != 0 || m.IsEnPassant()
}

// IsQuiet returns true if this is neither a capture nor a promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// String returns the UCI format of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()

	if m.IsPromotion() {
		promoChars := []byte{'n', 'b', 'r', 'q'}
		s += string(promoChars[m.flags()&0x3])
	}

	return s
}

// ParseMove parses a UCI format move string against the given position,
// resolving the special-move flags (castle, en passant, double push) that
// plain algebraic notation leaves implicit.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}
	pt := piece.Type()
	capture := !pos.IsEmpty(to)

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		if capture {
			return NewPromotionCapture(from, to, promo), nil
		}
		return NewPromotion(from, to, promo), nil
	}

	if pt == King && abs(int(to)-int(from)) == 2 {
		return NewCastling(from, to, to > from), nil
	}

	if pt == Pawn && to == pos.EnPassant && from.File() != to.File() {
		return NewEnPassant(from, to), nil
	}

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		return NewDoublePush(from, to), nil
	}

	if capture {
		return NewCapture(from, to), nil
	}
	return NewMove(from, to), nil
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}
