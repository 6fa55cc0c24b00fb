package tablebase

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sorenvik/corvid/internal/board"
)

const lichessEndpoint = "https://tablebase.lichess.ovh/standard"

// LichessProber answers probes from the public Lichess tablebase API, which
// covers every position up to seven men. Probes cost a network round-trip,
// so production setups wrap it in a CachedProber.
type LichessProber struct {
	client   *http.Client
	endpoint string
}

// NewLichessProber builds a prober against the public endpoint with a short
// request timeout: a slow answer is worth less than searching on.
func NewLichessProber() *LichessProber {
	return &LichessProber{
		client:   &http.Client{Timeout: 5 * time.Second},
		endpoint: lichessEndpoint,
	}
}

func (lp *LichessProber) MaxPieces() int  { return 7 }
func (lp *LichessProber) Available() bool { return true }

// lichessAnswer mirrors the relevant parts of the API response.
type lichessAnswer struct {
	Category string `json:"category"`
	DTZ      int    `json:"dtz"`
	Moves    []struct {
		UCI      string `json:"uci"`
		Category string `json:"category"`
		DTZ      int    `json:"dtz"`
	} `json:"moves"`
}

// fetch performs one API call for pos; ok=false on any failure.
func (lp *LichessProber) fetch(pos *board.Position) (lichessAnswer, bool) {
	var answer lichessAnswer
	if CountPieces(pos) > lp.MaxPieces() {
		return answer, false
	}

	// The API wants the FEN with underscores for spaces.
	fen := strings.ReplaceAll(pos.ToFEN(), " ", "_")
	resp, err := lp.client.Get(lp.endpoint + "?fen=" + url.QueryEscape(fen))
	if err != nil {
		return answer, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return answer, false
	}
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return answer, false
	}
	return answer, true
}

func (lp *LichessProber) Probe(pos *board.Position) ProbeResult {
	answer, ok := lp.fetch(pos)
	if !ok {
		return ProbeResult{}
	}
	return ProbeResult{
		Found: true,
		WDL:   categoryToWDL(answer.Category),
		DTZ:   answer.DTZ,
	}
}

// ProbeRoot relies on the API already ranking moves best-first.
func (lp *LichessProber) ProbeRoot(pos *board.Position) RootResult {
	answer, ok := lp.fetch(pos)
	if !ok || len(answer.Moves) == 0 {
		return RootResult{}
	}

	best := answer.Moves[0]
	move, err := board.ParseMove(best.UCI, pos)
	if err != nil || !pos.GenerateLegalMoves().Contains(move) {
		return RootResult{}
	}

	// The per-move category is from the opponent's point of view after the
	// move is played; negate it back to the prober's side.
	return RootResult{
		Found: true,
		Move:  move,
		WDL:   -categoryToWDL(best.Category),
		DTZ:   best.DTZ,
	}
}

// categoryToWDL maps the API's verdict strings. The fifty-move-ambiguous
// categories take the less favourable reading: "maybe-win" counts as a cursed
// win, "maybe-draw" as a draw and "maybe-loss" as a loss. Anything
// unrecognised is treated as a draw.
func categoryToWDL(category string) WDL {
	switch category {
	case "win":
		return WDLWin
	case "maybe-win", "cursed-win":
		return WDLCursedWin
	case "draw", "maybe-draw":
		return WDLDraw
	case "blessed-loss":
		return WDLBlessedLoss
	case "loss", "maybe-loss":
		return WDLLoss
	default:
		return WDLDraw
	}
}
