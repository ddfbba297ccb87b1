package sim

import (
	"time"

	"github.com/rustyeddy/backsim/stats"
)

// Result is the immutable aggregate of one run: config echo, every closed
// trade, the sampled equity curve and the derived statistics. It is what the
// report, journal and any dashboard layers consume.
type Result struct {
	Strategy string   `json:"strategy"`
	Symbols  []string `json:"symbols"`
	Config   Config   `json:"config"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	FinalEquity float64 `json:"finalEquity"`

	Trades      []Trade             `json:"trades"`
	EquityCurve []stats.EquityPoint `json:"equityCurve"`
	Stats       stats.Summary       `json:"stats"`
}

func (e *Engine) buildResult(symbols []string, start, end time.Time) *Result {
	points := make([]stats.TradePoint, len(e.trades))
	for i, t := range e.trades {
		points[i] = stats.TradePoint{Symbol: t.Symbol, PnL: t.PnL, ExitTime: t.ExitTime}
	}
	return &Result{
		Strategy:    e.strat.Name(),
		Symbols:     symbols,
		Config:      e.cfg,
		Start:       start,
		End:         end,
		FinalEquity: e.cfg.StartingCapital + e.realized,
		Trades:      e.trades,
		EquityCurve: e.equity,
		Stats:       stats.Compute(points, e.equity, e.cfg.StartingCapital),
	}
}

// emptyResult is the well-defined zero outcome when no symbol had any data.
func (e *Engine) emptyResult(symbols []string) *Result {
	return &Result{
		Strategy:    e.strat.Name(),
		Symbols:     symbols,
		Config:      e.cfg,
		FinalEquity: e.cfg.StartingCapital,
		Stats:       stats.Compute(nil, nil, e.cfg.StartingCapital),
	}
}
