package board

// Color identifies a side. The numeric values index bitboard and table
// arrays throughout the package.
type Color uint8

const (
	White Color = 0
	Black Color = 1

	NoColor Color = 2
)

// Other returns the opposing colour.
func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	}
	return "NoColor"
}

// PieceType is a piece kind without its colour.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King

	NoPieceType PieceType = 6
)

var pieceTypeNames = [7]string{"Pawn", "Knight", "Bishop", "Rook", "Queen", "King", "None"}

func (pt PieceType) String() string {
	if pt > NoPieceType {
		return "None"
	}
	return pieceTypeNames[pt]
}

// PieceValue is the material value per type in centipawns; the king's value
// only matters as an "effectively infinite" anchor in exchange evaluation.
var PieceValue = [7]int{100, 320, 330, 500, 900, 20000, 0}

// Piece packs a type and colour into one byte as type + colour*6; NoPiece
// is the empty-square marker in the mailbox.
type Piece uint8

const (
	WhitePawn Piece = iota
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing

	NoPiece Piece = 12
)

// NewPiece combines a type and colour; invalid inputs give NoPiece.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(c)*6 + Piece(pt)
}

// Type extracts the piece kind.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 6)
}

// Color extracts the owning side.
func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p / 6)
}

// Value is the material value of the piece.
func (p Piece) Value() int {
	return PieceValue[p.Type()]
}

const pieceChars = "PNBRQKpnbrqk"

// String is the FEN letter: uppercase white, lowercase black.
func (p Piece) String() string {
	if p >= NoPiece {
		return " "
	}
	return string(pieceChars[p])
}

// PieceFromChar inverts String; unknown letters give NoPiece.
func PieceFromChar(c byte) Piece {
	for i := 0; i < len(pieceChars); i++ {
		if pieceChars[i] == c {
			return Piece(i)
		}
	}
	return NoPiece
}
