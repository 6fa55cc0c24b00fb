package tablebase

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Downloader fetches Syzygy table files from the Lichess CDN into a local
// directory. Every table is a pair: .rtbw (win/draw/loss) and .rtbz
// (distance to zeroing).
type Downloader struct {
	Dir     string
	BaseURL string
	Client  *http.Client
}

// NewDownloader builds a downloader for the given directory against the
// public CDN. Table files run to hundreds of megabytes, hence the generous
// timeout.
func NewDownloader(dir string) *Downloader {
	return &Downloader{
		Dir:     dir,
		BaseURL: "https://tablebase.lichess.ovh/tables/standard/",
		Client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// DefaultCacheDir is where tables land when no SyzygyPath is configured.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./syzygy"
	}
	return filepath.Join(home, ".corvid", "syzygy")
}

// EnsureDir creates the table directory if missing.
func (d *Downloader) EnsureDir() error {
	return os.MkdirAll(d.Dir, 0o755)
}

// fivePieceTables lists every distinct material balance with five men or
// fewer, 145 tables (~939 MB) in total.
var fivePieceTables = []string{
	"KQvK", "KRvK", "KBvK", "KNvK", "KPvK",
	"KQQvK", "KQRvK", "KQBvK", "KQNvK", "KQPvK",
	"KRRvK", "KRBvK", "KRNvK", "KRPvK",
	"KBBvK", "KBNvK", "KBPvK",
	"KNNvK", "KNPvK",
	"KPPvK",
	"KQvKQ", "KQvKR", "KQvKB", "KQvKN", "KQvKP",
	"KRvKR", "KRvKB", "KRvKN", "KRvKP",
	"KBvKB", "KBvKN", "KBvKP",
	"KNvKN", "KNvKP",
	"KPvKP",
	"KQQvKQ", "KQQvKR", "KQQvKB", "KQQvKN", "KQQvKP",
	"KQRvKQ", "KQRvKR", "KQRvKB", "KQRvKN", "KQRvKP",
	"KQBvKQ", "KQBvKR", "KQBvKB", "KQBvKN", "KQBvKP",
	"KQNvKQ", "KQNvKR", "KQNvKB", "KQNvKN", "KQNvKP",
	"KQPvKQ", "KQPvKR", "KQPvKB", "KQPvKN", "KQPvKP",
	"KRRvKQ", "KRRvKR", "KRRvKB", "KRRvKN", "KRRvKP",
	"KRBvKQ", "KRBvKR", "KRBvKB", "KRBvKN", "KRBvKP",
	"KRNvKQ", "KRNvKR", "KRNvKB", "KRNvKN", "KRNvKP",
	"KRPvKQ", "KRPvKR", "KRPvKB", "KRPvKN", "KRPvKP",
	"KBBvKQ", "KBBvKR", "KBBvKB", "KBBvKN", "KBBvKP",
	"KBNvKQ", "KBNvKR", "KBNvKB", "KBNvKN", "KBNvKP",
	"KBPvKQ", "KBPvKR", "KBPvKB", "KBPvKN", "KBPvKP",
	"KNNvKQ", "KNNvKR", "KNNvKB", "KNNvKN", "KNNvKP",
	"KNPvKQ", "KNPvKR", "KNPvKB", "KNPvKN", "KNPvKP",
	"KPPvKQ", "KPPvKR", "KPPvKB", "KPPvKN", "KPPvKP",
	"KQvKQQ", "KQvKQR", "KQvKQB", "KQvKQN", "KQvKQP",
	"KQvKRR", "KQvKRB", "KQvKRN", "KQvKRP",
	"KQvKBB", "KQvKBN", "KQvKBP",
	"KQvKNN", "KQvKNP",
	"KQvKPP",
	"KRvKQR", "KRvKQB", "KRvKQN", "KRvKQP",
	"KRvKRR", "KRvKRB", "KRvKRN", "KRvKRP",
	"KRvKBB", "KRvKBN", "KRvKBP",
	"KRvKNN", "KRvKNP",
	"KRvKPP",
	"KBvKQB", "KBvKQN", "KBvKQP",
	"KBvKRB", "KBvKRN", "KBvKRP",
	"KBvKBB", "KBvKBN", "KBvKBP",
	"KBvKNN", "KBvKNP",
	"KBvKPP",
	"KNvKQN", "KNvKQP",
	"KNvKRN", "KNvKRP",
	"KNvKBN", "KNvKBP",
	"KNvKNN", "KNvKNP",
	"KNvKPP",
	"KPvKQP",
	"KPvKRP",
	"KPvKBP",
	"KPvKNP",
	"KPvKPP",
}

// DownloadProgress is one progress tick on the channel FetchFivePiece
// reports through.
type DownloadProgress struct {
	File          string
	BytesReceived int64
	TotalBytes    int64
	Done          bool
	Error         error
}

// HasTable reports whether both halves of a table are on disk.
func (d *Downloader) HasTable(name string) bool {
	_, wdlErr := os.Stat(filepath.Join(d.Dir, name+".rtbw"))
	_, dtzErr := os.Stat(filepath.Join(d.Dir, name+".rtbz"))
	return wdlErr == nil && dtzErr == nil
}

// FetchTable downloads both halves of one table, skipping pieces already on
// disk.
func (d *Downloader) FetchTable(name string, progress chan<- DownloadProgress) error {
	if err := d.EnsureDir(); err != nil {
		return err
	}
	if err := d.fetchOne(d.BaseURL+"wdl/"+name+".rtbw", name+".rtbw", progress); err != nil {
		return fmt.Errorf("wdl half: %w", err)
	}
	if err := d.fetchOne(d.BaseURL+"dtz/"+name+".rtbz", name+".rtbz", progress); err != nil {
		return fmt.Errorf("dtz half: %w", err)
	}
	return nil
}

// fetchOne streams a single file to a temp name, renaming into place only on
// success so a crashed download never looks complete.
func (d *Downloader) fetchOne(url, name string, progress chan<- DownloadProgress) error {
	path := filepath.Join(d.Dir, name)
	if _, err := os.Stat(path); err == nil {
		d.tick(progress, DownloadProgress{File: name, Done: true})
		return nil
	}

	tmp := path + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer out.Close()

	resp, err := d.Client.Get(url)
	if err != nil {
		os.Remove(tmp)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		os.Remove(tmp)
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	var written int64
	buf := make([]byte, 64*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				os.Remove(tmp)
				return writeErr
			}
			written += int64(n)
			d.tick(progress, DownloadProgress{
				File:          name,
				BytesReceived: written,
				TotalBytes:    resp.ContentLength,
			})
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			os.Remove(tmp)
			return readErr
		}
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	d.tick(progress, DownloadProgress{File: name, Done: true})
	return nil
}

func (d *Downloader) tick(progress chan<- DownloadProgress, p DownloadProgress) {
	if progress != nil {
		progress <- p
	}
}

// FetchFivePiece downloads every missing five-man table.
func (d *Downloader) FetchFivePiece(progress chan<- DownloadProgress) error {
	for _, name := range fivePieceTables {
		if d.HasTable(name) {
			continue
		}
		if err := d.FetchTable(name, progress); err != nil {
			return fmt.Errorf("table %s: %w", name, err)
		}
	}
	return nil
}

// CompleteTables lists every table with both halves on disk, sorted.
func (d *Downloader) CompleteTables() []string {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil
	}

	halves := make(map[string]int)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".rtbw"):
			halves[strings.TrimSuffix(name, ".rtbw")]++
		case strings.HasSuffix(name, ".rtbz"):
			halves[strings.TrimSuffix(name, ".rtbz")]++
		}
	}

	var tables []string
	for base, n := range halves {
		if n == 2 {
			tables = append(tables, base)
		}
	}
	sort.Strings(tables)
	return tables
}
