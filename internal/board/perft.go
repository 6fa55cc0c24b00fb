package board

// Perft counts the leaf nodes of the legal move tree at the given depth,
// bulk-counting at depth 1 to avoid the cost of one extra make/undo per leaf.
// Used by the UCI "perft" command and by the test suite to validate move
// generation against known node counts.
func Perft(p *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}

	moves := p.GenerateLegalMoves()
	if depth == 1 {
		return int64(moves.Len())
	}

	var nodes int64
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		p.MakeMove(m)
		nodes += Perft(p, depth-1)
		p.UnmakeMove(m)
	}
	return nodes
}

// PerftDivide returns the perft count broken down by each root move, in the
// order GenerateLegalMoves produced them. Used by "perft" to let an
// operator bisect a move-generation bug against a reference engine.
func PerftDivide(p *Position, depth int) ([]Move, []int64) {
	moves := p.GenerateLegalMoves()
	roots := make([]Move, 0, moves.Len())
	counts := make([]int64, 0, moves.Len())

	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		p.MakeMove(m)
		roots = append(roots, m)
		counts = append(counts, Perft(p, depth-1))
		p.UnmakeMove(m)
	}

	return roots, counts
}
