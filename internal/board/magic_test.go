package board

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMagicLookupMatchesRayCast cross-checks the table lookups against the
// slow ray-casting reference on random occupancies.
func TestMagicLookupMatchesRayCast(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 2000; trial++ {
		occ := Bitboard(rng.Uint64() & rng.Uint64()) // sparse boards
		sq := Square(rng.Intn(64))

		require.Equal(t, rookAttacksSlow(sq, occ), RookAttacks(sq, occ), "rook on %s", sq)
		require.Equal(t, bishopAttacksSlow(sq, occ), BishopAttacks(sq, occ), "bishop on %s", sq)
	}
}

// TestFindMagic regenerates a few multipliers and verifies each hashes every
// occupancy subset without a harmful collision, by building a table with it.
func TestFindMagic(t *testing.T) {
	for _, tc := range []struct {
		sq   Square
		rook bool
	}{
		{A1, true}, {E4, true}, {H8, false}, {D5, false},
	} {
		magic := FindMagic(tc.sq, tc.rook, 0x5EED+uint64(tc.sq))

		maskFn, slowFn := bishopMask, bishopAttacksSlow
		if tc.rook {
			maskFn, slowFn = rookMask, rookAttacksSlow
		}
		mask := maskFn(tc.sq)
		bits := mask.PopCount()

		table := make(map[uint64]Bitboard)
		for i := 0; i < 1<<bits; i++ {
			occ := occupancySubset(i, bits, mask)
			idx := (uint64(occ) * magic) >> (64 - bits)
			want := slowFn(tc.sq, occ)
			if prev, ok := table[idx]; ok {
				require.Equal(t, prev, want, "harmful collision for square %s", tc.sq)
			}
			table[idx] = want
		}
	}
}
