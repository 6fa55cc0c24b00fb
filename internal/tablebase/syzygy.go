package tablebase

import (
	"log"
	"os"
	"strings"
	"sync"

	"github.com/sorenvik/corvid/internal/board"
)

// SyzygyProber serves probes for a local Syzygy directory. Reading the
// .rtbw/.rtbz files needs a pure-Go decoder that is not integrated yet, so
// answers come from the cached Lichess backend; the local directory is still
// scanned and managed (and fed by the downloader) so the file store is ready
// the moment a decoder lands.
type SyzygyProber struct {
	mu         sync.RWMutex
	path       string
	localMax   int
	fallback   Prober
	downloader *Downloader
}

// NewSyzygyProber builds a prober rooted at path; an empty path selects the
// default cache directory. The probe cache persists next to the table files.
func NewSyzygyProber(path string) *SyzygyProber {
	if path == "" {
		path = DefaultCacheDir()
	}
	sp := &SyzygyProber{
		path:       path,
		fallback:   NewCachedLichessProber(path),
		downloader: NewDownloader(path),
	}
	sp.rescan()
	return sp
}

// rescan re-reads the directory and records the largest man count for which
// complete local tables exist.
func (sp *SyzygyProber) rescan() {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if _, err := os.Stat(sp.path); err != nil {
		sp.localMax = 0
		log.Printf("[Syzygy] no table directory at %s, probing online", sp.path)
		return
	}

	sp.localMax = 0
	for _, name := range sp.downloader.CompleteTables() {
		if n := menInTableName(name); n > sp.localMax {
			sp.localMax = n
		}
	}
	if sp.localMax > 0 {
		log.Printf("[Syzygy] local tables up to %d men at %s", sp.localMax, sp.path)
	}
}

// SetPath repoints the prober at a new directory and rescans it.
func (sp *SyzygyProber) SetPath(path string) {
	if path == "" {
		path = DefaultCacheDir()
	}
	sp.mu.Lock()
	sp.path = path
	sp.downloader = NewDownloader(path)
	sp.fallback = NewCachedLichessProber(path)
	sp.mu.Unlock()
	sp.rescan()
}

// Path returns the configured table directory.
func (sp *SyzygyProber) Path() string {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return sp.path
}

// LocalMaxPieces returns the largest man count with complete local tables.
func (sp *SyzygyProber) LocalMaxPieces() int {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return sp.localMax
}

func (sp *SyzygyProber) Probe(pos *board.Position) ProbeResult {
	if CountPieces(pos) > sp.MaxPieces() {
		return ProbeResult{}
	}
	return sp.fallback.Probe(pos)
}

func (sp *SyzygyProber) ProbeRoot(pos *board.Position) RootResult {
	if CountPieces(pos) > sp.MaxPieces() {
		return RootResult{}
	}
	return sp.fallback.ProbeRoot(pos)
}

// MaxPieces reflects the online backend's coverage while it serves the
// probes.
func (sp *SyzygyProber) MaxPieces() int { return 7 }

func (sp *SyzygyProber) Available() bool { return true }

// DownloadFivePiece fetches the complete five-man table set in the
// background, reporting per-file progress on the returned channel, and
// rescans the directory once done.
func (sp *SyzygyProber) DownloadFivePiece() (<-chan DownloadProgress, error) {
	if err := sp.downloader.EnsureDir(); err != nil {
		return nil, err
	}

	progress := make(chan DownloadProgress, 64)
	go func() {
		defer close(progress)
		if err := sp.downloader.FetchFivePiece(progress); err != nil {
			progress <- DownloadProgress{Error: err}
		}
		sp.rescan()
	}()
	return progress, nil
}

// menInTableName counts the men encoded in a table name like "KQRvKR".
func menInTableName(name string) int {
	count := 0
	for _, c := range strings.ToUpper(name) {
		switch c {
		case 'K', 'Q', 'R', 'B', 'N', 'P':
			count++
		}
	}
	return count
}
