package btcsim

import (
	"time"

	"github.com/rustyeddy/backsim/stats"
)

// Result is the immutable aggregate of one rotation run. All values are
// denominated in BTC; Stats percentages are relative to StartingBTC.
type Result struct {
	Strategy string   `json:"strategy"`
	Alts     []string `json:"alts"`
	Config   Config   `json:"config"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	FinalBTC float64 `json:"finalBtc"`

	Trades      []Trade             `json:"trades"`
	EquityCurve []stats.EquityPoint `json:"equityCurve"`
	Stats       stats.Summary       `json:"stats"`
}

func (e *Engine) buildResult(alts []string, start, end time.Time) *Result {
	points := make([]stats.TradePoint, len(e.trades))
	for i, t := range e.trades {
		points[i] = stats.TradePoint{Symbol: t.Alt, PnL: t.PnL, ExitTime: t.ExitTime}
	}
	return &Result{
		Strategy:    e.strat.Name(),
		Alts:        alts,
		Config:      e.cfg,
		Start:       start,
		End:         end,
		FinalBTC:    e.avail, // everything is closed by the time this runs
		Trades:      e.trades,
		EquityCurve: e.equity,
		Stats:       stats.Compute(points, e.equity, e.cfg.StartingBTC),
	}
}

func (e *Engine) emptyResult(alts []string) *Result {
	return &Result{
		Strategy: e.strat.Name(),
		Alts:     alts,
		Config:   e.cfg,
		FinalBTC: e.cfg.StartingBTC,
		Stats:    stats.Compute(nil, nil, e.cfg.StartingBTC),
	}
}
