package board

// GenerateLegalMoves generates all legal moves for the position using the
// check-mask / pin-mask algorithm: a move is only ever added if it is
// already known to be legal, so no make/undo trial is needed to filter the
// result.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generate(ml, false)
	return ml
}

// GenerateCaptures generates legal captures and promotions only (used by
// quiescence search).
func (p *Position) GenerateCaptures() *MoveList {
	ml := NewMoveList()
	p.generate(ml, true)
	return ml
}

// enemyAttackMap returns every square attacked by byColor, with the side to
// move's own king removed from the occupancy so that a king retreating along
// a slider's ray is still correctly seen as moving into check.
func (p *Position) enemyAttackMap(byColor Color, occWithoutOurKing Bitboard) Bitboard {
	var attacked Bitboard
	pawns := p.Pieces[byColor][Pawn]
	for pawns != 0 {
		sq := pawns.PopLSB()
		attacked |= pawnAttacks[byColor][sq]
	}
	knights := p.Pieces[byColor][Knight]
	for knights != 0 {
		attacked |= knightAttacks[knights.PopLSB()]
	}
	bishops := p.Pieces[byColor][Bishop] | p.Pieces[byColor][Queen]
	for bishops != 0 {
		attacked |= BishopAttacks(bishops.PopLSB(), occWithoutOurKing)
	}
	rooks := p.Pieces[byColor][Rook] | p.Pieces[byColor][Queen]
	for rooks != 0 {
		attacked |= RookAttacks(rooks.PopLSB(), occWithoutOurKing)
	}
	attacked |= kingAttacks[p.KingSquare[byColor]]
	return attacked
}

// pinInfo computes, for the side to move, the destination mask each pinned
// piece is restricted to. Squares that are not pinned map to Universe (no
// restriction).
func (p *Position) pinInfo() (rayFor [64]Bitboard) {
	for sq := A1; sq <= H8; sq++ {
		rayFor[sq] = Universe
	}

	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]

	snipers := RookAttacks(ksq, 0) & (p.Pieces[them][Rook] | p.Pieces[them][Queen])
	snipers |= BishopAttacks(ksq, 0) & (p.Pieces[them][Bishop] | p.Pieces[them][Queen])

	for snipers != 0 {
		sniperSq := snipers.PopLSB()
		between := Between(sniperSq, ksq) & p.AllOccupied
		if between.PopCount() != 1 {
			continue
		}
		if between&p.Occupied[us] == 0 {
			continue
		}
		blockerSq := between.LSB()
		rayFor[blockerSq] = Line(ksq, sniperSq)
	}

	return rayFor
}

// checkMask returns the set of squares a non-king move must land on to
// resolve the current check(s): Universe if not in check, the single
// checking square plus the ray to the king if in check by one slider (or
// just the checking square for a non-slider), and Empty if in double check
// (only king moves are legal).
func (p *Position) checkMask() Bitboard {
	checkers := p.Checkers
	if checkers == 0 {
		return Universe
	}
	if checkers.PopCount() >= 2 {
		return Empty
	}
	us := p.SideToMove
	ksq := p.KingSquare[us]
	checkerSq := checkers.LSB()
	// A sliding checker is aligned with the king, so its ray can be
	// blocked; knight checks are never aligned and pawn checks are
	// adjacent, leaving an empty between-ray either way.
	if LineTypeBetween(checkerSq, ksq) != LineNone {
		return checkers | Between(checkerSq, ksq)
	}
	return checkers
}

// generate is the core legal move generator shared by GenerateLegalMoves and
// GenerateCaptures.
func (p *Position) generate(ml *MoveList, capturesOnly bool) {
	us := p.SideToMove
	them := us.Other()
	occupied := p.AllOccupied
	ownOcc := p.Occupied[us]
	enemies := p.Occupied[them]
	ksq := p.KingSquare[us]

	numCheckers := p.Checkers.PopCount()
	cm := p.checkMask()
	rayFor := p.pinInfo()

	occWithoutOurKing := occupied &^ SquareBB(ksq)
	attackedSansKing := p.enemyAttackMap(them, occWithoutOurKing)

	// King moves: always legal to consider, regardless of check count.
	kingTargets := KingAttacks(ksq) &^ ownOcc &^ attackedSansKing
	if capturesOnly {
		kingTargets &= enemies
	}
	for kingTargets != 0 {
		to := kingTargets.PopLSB()
		if enemies&SquareBB(to) != 0 {
			ml.Add(NewCapture(ksq, to))
		} else {
			ml.Add(NewMove(ksq, to))
		}
	}

	// Castling only when not in check at all.
	if !capturesOnly && numCheckers == 0 {
		p.generateCastlingMoves(ml, us, attackedSansKing)
	}

	// Double check: only king moves are legal.
	if numCheckers >= 2 {
		return
	}

	p.generatePawnMoves(ml, us, them, enemies, occupied, cm, rayFor, capturesOnly)

	addPieceMoves := func(pt PieceType, attacksFn func(Square, Bitboard) Bitboard) {
		pieces := p.Pieces[us][pt]
		for pieces != 0 {
			from := pieces.PopLSB()
			targets := attacksFn(from, occupied) &^ ownOcc & cm & rayFor[from]
			if capturesOnly {
				targets &= enemies
			}
			for targets != 0 {
				to := targets.PopLSB()
				if enemies&SquareBB(to) != 0 {
					ml.Add(NewCapture(from, to))
				} else {
					ml.Add(NewMove(from, to))
				}
			}
		}
	}

	addPieceMoves(Knight, func(sq Square, _ Bitboard) Bitboard { return KnightAttacks(sq) })
	addPieceMoves(Bishop, BishopAttacks)
	addPieceMoves(Rook, RookAttacks)
	addPieceMoves(Queen, QueenAttacks)
}

// generatePawnMoves emits pawn pushes, captures, promotions and en passant,
// each already restricted by the check mask and the mover's pin ray.
func (p *Position) generatePawnMoves(ml *MoveList, us, them Color, enemies, occupied, cm Bitboard, rayFor [64]Bitboard, capturesOnly bool) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied

	var push1, push2, attackL, attackR Bitboard
	var promotionRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}
	push1 &= cm
	push2 &= cm
	attackL &= cm
	attackR &= cm

	if !capturesOnly {
		nonPromo := push1 &^ promotionRank
		for nonPromo != 0 {
			to := nonPromo.PopLSB()
			from := Square(int(to) - pushDir)
			if rayFor[from]&SquareBB(to) != 0 {
				ml.Add(NewMove(from, to))
			}
		}

		for push2 != 0 {
			to := push2.PopLSB()
			from := Square(int(to) - 2*pushDir)
			if rayFor[from]&SquareBB(to) != 0 {
				ml.Add(NewDoublePush(from, to))
			}
		}
	}

	nonPromoL := attackL &^ promotionRank
	for nonPromoL != 0 {
		to := nonPromoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		if rayFor[from]&SquareBB(to) != 0 {
			ml.Add(NewCapture(from, to))
		}
	}
	nonPromoR := attackR &^ promotionRank
	for nonPromoR != 0 {
		to := nonPromoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		if rayFor[from]&SquareBB(to) != 0 {
			ml.Add(NewCapture(from, to))
		}
	}

	promoPush := push1 & promotionRank
	for promoPush != 0 {
		to := promoPush.PopLSB()
		from := Square(int(to) - pushDir)
		if rayFor[from]&SquareBB(to) != 0 {
			addPromotions(ml, from, to, false)
		}
	}
	promoL := attackL & promotionRank
	for promoL != 0 {
		to := promoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		if rayFor[from]&SquareBB(to) != 0 {
			addPromotions(ml, from, to, true)
		}
	}
	promoR := attackR & promotionRank
	for promoR != 0 {
		to := promoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		if rayFor[from]&SquareBB(to) != 0 {
			addPromotions(ml, from, to, true)
		}
	}

	if p.EnPassant != NoSquare {
		p.generateEnPassant(ml, us, them, pawns, cm, rayFor)
	}
}

// generateEnPassant adds the en passant capture if present, after checking
// both the ordinary pin ray and the "horizontal discovered check" edge case:
// removing both the capturing pawn and the captured pawn from the rank can
// expose the king to a rook or queen along that rank.
func (p *Position) generateEnPassant(ml *MoveList, us, them Color, pawns, cm Bitboard, rayFor [64]Bitboard) {
	epSq := p.EnPassant
	epBB := SquareBB(epSq)
	var capturedSq Square
	var attackers Bitboard
	if us == White {
		capturedSq = epSq - 8
		attackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
	} else {
		capturedSq = epSq + 8
		attackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
	}

	ksq := p.KingSquare[us]

	for attackers != 0 {
		from := attackers.PopLSB()

		if cm&(epBB|SquareBB(capturedSq)) == 0 {
			continue
		}
		if rayFor[from]&epBB == 0 {
			continue
		}

		occAfter := (p.AllOccupied &^ SquareBB(from) &^ SquareBB(capturedSq)) | epBB
		them_ := them
		rookQueens := p.Pieces[them_][Rook] | p.Pieces[them_][Queen]
		bishopQueens := p.Pieces[them_][Bishop] | p.Pieces[them_][Queen]
		if RookAttacks(ksq, occAfter)&rookQueens != 0 {
			continue
		}
		if BishopAttacks(ksq, occAfter)&bishopQueens != 0 {
			continue
		}

		ml.Add(NewEnPassant(from, epSq))
	}
}

// addPromotions adds all four promotion moves (or promotion-captures).
func addPromotions(ml *MoveList, from, to Square, capture bool) {
	if capture {
		ml.Add(NewPromotionCapture(from, to, Queen))
		ml.Add(NewPromotionCapture(from, to, Rook))
		ml.Add(NewPromotionCapture(from, to, Bishop))
		ml.Add(NewPromotionCapture(from, to, Knight))
		return
	}
	ml.Add(NewPromotion(from, to, Queen))
	ml.Add(NewPromotion(from, to, Rook))
	ml.Add(NewPromotion(from, to, Bishop))
	ml.Add(NewPromotion(from, to, Knight))
}

// generateCastlingMoves adds legal castling moves: the relevant right must be
// held, the squares between king and rook must be empty, and every square
// the king passes through (including its start and end square) must not be
// attacked.
func (p *Position) generateCastlingMoves(ml *MoveList, us Color, attacked Bitboard) {
	if us == White {
		if p.CastlingRights&WhiteKingSideCastle != 0 &&
			p.AllOccupied&((SquareBB(F1))|(SquareBB(G1))) == 0 &&
			attacked&(SquareBB(E1)|SquareBB(F1)|SquareBB(G1)) == 0 {
			ml.Add(NewCastling(E1, G1, true))
		}
		if p.CastlingRights&WhiteQueenSideCastle != 0 &&
			p.AllOccupied&(SquareBB(B1)|SquareBB(C1)|SquareBB(D1)) == 0 &&
			attacked&(SquareBB(E1)|SquareBB(D1)|SquareBB(C1)) == 0 {
			ml.Add(NewCastling(E1, C1, false))
		}
	} else {
		if p.CastlingRights&BlackKingSideCastle != 0 &&
			p.AllOccupied&(SquareBB(F8)|SquareBB(G8)) == 0 &&
			attacked&(SquareBB(E8)|SquareBB(F8)|SquareBB(G8)) == 0 {
			ml.Add(NewCastling(E8, G8, true))
		}
		if p.CastlingRights&BlackQueenSideCastle != 0 &&
			p.AllOccupied&(SquareBB(B8)|SquareBB(C8)|SquareBB(D8)) == 0 &&
			attacked&(SquareBB(E8)|SquareBB(D8)|SquareBB(C8)) == 0 {
			ml.Add(NewCastling(E8, C8, false))
		}
	}
}

// castlingRightsClearedBy returns the castling-rights bits that touching the
// given square (as a move origin or destination) permanently clears.
func castlingRightsClearedBy(sq Square) CastlingRights {
	switch sq {
	case E1:
		return WhiteKingSideCastle | WhiteQueenSideCastle
	case A1:
		return WhiteQueenSideCastle
	case H1:
		return WhiteKingSideCastle
	case E8:
		return BlackKingSideCastle | BlackQueenSideCastle
	case A8:
		return BlackQueenSideCastle
	case H8:
		return BlackKingSideCastle
	default:
		return NoCastling
	}
}

// MakeMove applies a move to the position, pushing a BoardState onto the
// internal state stack so UnmakeMove can exactly reverse it.
func (p *Position) MakeMove(m Move) {
	us := p.SideToMove
	them := us.Other()
	from := m.From()
	to := m.To()
	piece := p.PieceAt(from)
	pt := piece.Type()

	save := &p.states[p.Ply]
	*save = BoardState{
		Captured:        NoPiece,
		EnPassant:       p.EnPassant,
		CastlingRights:  p.CastlingRights,
		Hash:            p.Hash,
		IrreversiblePly: p.IrreversiblePly,
	}

	p.Hash ^= zobristSideToMove

	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	if m.IsEnPassant() {
		var capturedSq Square
		if us == White {
			capturedSq = to - 8
		} else {
			capturedSq = to + 8
		}
		save.Captured = p.removePiece(capturedSq)
		p.Hash ^= zobristPiece[them][Pawn][capturedSq]
	} else if captured := p.PieceAt(to); captured != NoPiece {
		save.Captured = captured
		p.removePiece(to)
		p.Hash ^= zobristPiece[them][captured.Type()][to]
	}

	p.movePiece(from, to)
	p.Hash ^= zobristPiece[us][pt][from]
	p.Hash ^= zobristPiece[us][pt][to]

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.Pieces[us][Pawn] &^= SquareBB(to)
		p.Pieces[us][promoPt] |= SquareBB(to)
		p.Board[to] = NewPiece(promoPt, us)
		p.Hash ^= zobristPiece[us][Pawn][to]
		p.Hash ^= zobristPiece[us][promoPt][to]
	}

	if m.IsCastling() {
		var rookFrom, rookTo Square
		if m.IsKingSideCastle() {
			rookFrom = NewSquare(7, from.Rank())
			rookTo = NewSquare(5, from.Rank())
		} else {
			rookFrom = NewSquare(0, from.Rank())
			rookTo = NewSquare(3, from.Rank())
		}
		p.movePiece(rookFrom, rookTo)
		p.Hash ^= zobristPiece[us][Rook][rookFrom]
		p.Hash ^= zobristPiece[us][Rook][rookTo]
	}

	clearedByFrom := castlingRightsClearedBy(from)
	clearedByTo := castlingRightsClearedBy(to)
	cleared := (clearedByFrom | clearedByTo) & p.CastlingRights
	for i, bit := range castlingKeyBits {
		if cleared&bit != 0 {
			p.Hash ^= zobristCastling[i]
		}
	}
	p.CastlingRights &^= cleared

	if m.IsDoublePush() {
		epSquare := Square((int(from) + int(to)) / 2)
		p.EnPassant = epSquare
		p.Hash ^= zobristEnPassant[epSquare.File()]
	}

	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	p.Ply++
	if pt == Pawn || save.Captured != NoPiece {
		p.IrreversiblePly = p.Ply
	}
	p.UpdateCheckers()
}

// UnmakeMove pops the state pushed by the matching MakeMove. Make and unmake
// must pair LIFO; an unmatched unmake reads a stale stack slot and corrupts
// the position.
func (p *Position) UnmakeMove(m Move) {
	them := p.SideToMove
	us := them.Other()
	from := m.From()
	to := m.To()

	p.Ply--
	save := &p.states[p.Ply]

	p.CastlingRights = save.CastlingRights
	p.EnPassant = save.EnPassant
	p.IrreversiblePly = save.IrreversiblePly
	p.Hash = save.Hash
	p.SideToMove = us

	if us == Black {
		p.FullMoveNumber--
	}

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.Pieces[us][promoPt] &^= SquareBB(to)
		p.Pieces[us][Pawn] |= SquareBB(to)
		p.Board[to] = NewPiece(Pawn, us)
	}

	p.movePiece(to, from)

	if m.IsCastling() {
		var rookFrom, rookTo Square
		if m.IsKingSideCastle() {
			rookFrom = NewSquare(7, from.Rank())
			rookTo = NewSquare(5, from.Rank())
		} else {
			rookFrom = NewSquare(0, from.Rank())
			rookTo = NewSquare(3, from.Rank())
		}
		p.movePiece(rookTo, rookFrom)
	}

	if save.Captured != NoPiece {
		if m.IsEnPassant() {
			var capturedSq Square
			if us == White {
				capturedSq = to - 8
			} else {
				capturedSq = to + 8
			}
			p.setPiece(save.Captured, capturedSq)
		} else {
			p.setPiece(save.Captured, to)
		}
	}

	p.UpdateCheckers()
}

// HasLegalMoves returns true if the side to move has any legal moves.
func (p *Position) HasLegalMoves() bool {
	return p.GenerateLegalMoves().Len() > 0
}

// IsCheckmate returns true if the position is checkmate.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate returns true if the position is stalemate.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsDraw returns true if the position is a draw by the fifty-move rule,
// stalemate, or insufficient material. Repetition is not checked here; see
// IsRepetition.
func (p *Position) IsDraw() bool {
	if p.HalfMoveClock() >= 100 {
		return true
	}
	if p.IsStalemate() {
		return true
	}
	return p.IsInsufficientMaterial()
}

// IsInsufficientMaterial returns true if neither side can checkmate.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	wKnights := p.Pieces[White][Knight].PopCount()
	wBishops := p.Pieces[White][Bishop].PopCount()
	bKnights := p.Pieces[Black][Knight].PopCount()
	bBishops := p.Pieces[Black][Bishop].PopCount()

	if wKnights+wBishops+bKnights+bBishops == 0 {
		return true
	}
	if wKnights+wBishops <= 1 && bKnights+bBishops == 0 {
		return true
	}
	if bKnights+bBishops <= 1 && wKnights+wBishops == 0 {
		return true
	}

	return false
}
