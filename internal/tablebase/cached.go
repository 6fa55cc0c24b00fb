package tablebase

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/sorenvik/corvid/internal/board"
)

// CachedProber wraps another prober with a persistent on-disk cache, keyed by
// Zobrist hash. This avoids repeat network round-trips to an online tablebase
// across engine restarts (the common case for the Lichess endgame API).
type CachedProber struct {
	inner Prober
	db    *badger.DB

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedProber wraps inner with a badger-backed cache rooted at dir.
// If the database cannot be opened, the cache degrades to a pass-through
// (results are simply never persisted).
func NewCachedProber(inner Prober, dir string) *CachedProber {
	cp := &CachedProber{inner: inner}

	if dir == "" {
		return cp
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return cp
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return cp
	}
	cp.db = db
	return cp
}

// NewCachedLichessProber creates a cached Lichess prober persisted under the
// given cache directory (empty means no persistence).
func NewCachedLichessProber(cacheDir string) *CachedProber {
	return NewCachedProber(NewLichessProber(), filepath.Join(cacheDir, "tablebase"))
}

func probeKey(hash uint64) []byte {
	key := make([]byte, 9)
	key[0] = 'p'
	for i := 0; i < 8; i++ {
		key[1+i] = byte(hash >> (8 * i))
	}
	return key
}

func (cp *CachedProber) Probe(pos *board.Position) ProbeResult {
	if cp.db == nil {
		return cp.inner.Probe(pos)
	}

	var cached ProbeResult
	found := false
	key := probeKey(pos.Hash)

	_ = cp.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if jsonErr := json.Unmarshal(val, &cached); jsonErr != nil {
				return jsonErr
			}
			found = true
			return nil
		})
	})

	if found {
		cp.hits.Add(1)
		return cached
	}

	cp.misses.Add(1)
	result := cp.inner.Probe(pos)

	if data, err := json.Marshal(result); err == nil {
		_ = cp.db.Update(func(txn *badger.Txn) error {
			return txn.Set(key, data)
		})
	}

	return result
}

// ProbeRoot is not cached: it depends on the full legal move list, not just
// the hash, so a keyed lookup would not save the work it's meant to avoid.
func (cp *CachedProber) ProbeRoot(pos *board.Position) RootResult {
	return cp.inner.ProbeRoot(pos)
}

func (cp *CachedProber) MaxPieces() int {
	return cp.inner.MaxPieces()
}

func (cp *CachedProber) Available() bool {
	return cp.inner.Available()
}

// HitRate returns the cache hit rate as a percentage.
func (cp *CachedProber) HitRate() float64 {
	hits := cp.hits.Load()
	total := hits + cp.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Close releases the underlying database handle, if any.
func (cp *CachedProber) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}
