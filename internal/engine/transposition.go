package engine

import (
	"math/bits"

	"github.com/sorenvik/corvid/internal/board"
)

// Bound classifies a stored score.
type Bound uint8

const (
	BoundNone  Bound = iota // empty slot
	BoundExact              // score is exact for the searched window
	BoundUpper              // search failed low: real score <= stored score
	BoundLower              // search failed high: real score >= stored score
)

// TTEntry is one 16-byte transposition-table slot. The full 64-bit hash is
// stored for verification: readers treat any hash mismatch as an empty slot,
// which also makes torn 8-byte half-writes from concurrent workers harmless.
type TTEntry struct {
	Hash  uint64
	Score int32
	Move  board.Move
	Depth uint8
	Bound Bound
}

// TranspositionTable is a power-of-two array of entries shared by all
// workers. Access is deliberately unlocked; see TTEntry on torn writes.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64
}

// NewTranspositionTable allocates a table of at most sizeMB megabytes.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	tt := &TranspositionTable{}
	tt.Resize(sizeMB)
	return tt
}

// Resize reallocates the table with a power-of-two entry count fitting in
// sizeMB megabytes, discarding all stored entries. Must not race with an
// active search.
func (tt *TranspositionTable) Resize(sizeMB int) {
	const entrySize = 16
	numEntries := uint64(sizeMB) * 1024 * 1024 / entrySize
	if numEntries == 0 {
		numEntries = 1
	}
	// Round down to a power of two so the index is a mask.
	numEntries = 1 << (63 - bits.LeadingZeros64(numEntries))

	tt.entries = make([]TTEntry, numEntries)
	tt.mask = numEntries - 1
}

// Clear wipes every entry, used on ucinewgame.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
}

// Size returns the number of entries.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.entries))
}

// Prefetch hints that the slot for hash is about to be probed, so the cache
// line can be pulled in while make-move finishes. Without a portable prefetch
// intrinsic this reads the entry's first word and discards it.
func (tt *TranspositionTable) Prefetch(hash uint64) {
	_ = tt.entries[hash&tt.mask].Hash
}

// Probe returns the entry for hash, with mate scores re-based onto the
// current ply, or ok=false when the slot is empty or holds another position.
func (tt *TranspositionTable) Probe(hash uint64, ply int) (TTEntry, bool) {
	entry := tt.entries[hash&tt.mask]
	if entry.Bound == BoundNone || entry.Hash != hash {
		return TTEntry{}, false
	}
	entry.Score = int32(scoreFromTT(int(entry.Score), ply))
	return entry, true
}

// Store writes a search result. The slot is overwritten when it is empty,
// when the incoming score is an exact bound, or when the incoming depth is
// within 4 of the stored depth or better; the stored move is additionally
// kept up to date whenever the incoming move is non-null, even if the rest
// of the entry stays.
func (tt *TranspositionTable) Store(hash uint64, score, depth, ply int, bound Bound, move board.Move) {
	slot := &tt.entries[hash&tt.mask]

	if move != board.NoMove {
		slot.Move = move
	}

	if slot.Bound != BoundNone && bound != BoundExact && depth+4 < int(slot.Depth) {
		return
	}

	slot.Hash = hash
	slot.Score = int32(scoreToTT(score, ply))
	slot.Depth = uint8(depth)
	slot.Bound = bound
}

// scoreToTT re-bases a mate score from "plies from the root" to "plies from
// this node", so the stored distance-to-mate is independent of where in the
// tree the entry was created.
func scoreToTT(score, ply int) int {
	if score > mateBound {
		return score + ply
	}
	if score < -mateBound {
		return score - ply
	}
	return score
}

// scoreFromTT undoes the scoreToTT adjustment at the reading node's ply.
func scoreFromTT(score, ply int) int {
	if score > mateBound {
		return score - ply
	}
	if score < -mateBound {
		return score + ply
	}
	return score
}
