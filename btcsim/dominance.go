package btcsim

import (
	"sort"
	"time"

	"github.com/rustyeddy/backsim/market"
)

// DominanceSignal answers whether BTC dominance is rising fast at a given
// time, meaning alts are bleeding against BTC faster than the exit threshold
// allows. It is passed into Run as a value, never read from package state.
type DominanceSignal interface {
	Rising(t time.Time) bool
}

// AvgRatioTrend implements DominanceSignal by averaging each alt's ratio
// change over a lookback window. Dominance is rising when the average falls
// below -threshold. Symbols are walked in sorted order so the float sum is
// reproducible.
type AvgRatioTrend struct {
	symbols   []string
	series    map[string][]market.Candle
	tl        *market.Timeline
	lookback  int
	threshold float64
}

func NewAvgRatioTrend(series map[string][]market.Candle, lookback int, threshold float64) *AvgRatioTrend {
	symbols := make([]string, 0, len(series))
	for s, cs := range series {
		if len(cs) > 0 {
			symbols = append(symbols, s)
		}
	}
	sort.Strings(symbols)

	return &AvgRatioTrend{
		symbols:   symbols,
		series:    series,
		tl:        market.BuildTimeline(series),
		lookback:  lookback,
		threshold: threshold,
	}
}

func (a *AvgRatioTrend) Rising(t time.Time) bool {
	var sum float64
	n := 0
	for _, sym := range a.symbols {
		idx, ok := a.tl.Lookup(sym, t)
		if !ok || idx < a.lookback {
			continue
		}
		cs := a.series[sym]
		base := cs[idx-a.lookback].Close
		if base == 0 {
			continue
		}
		sum += cs[idx].Close/base - 1
		n++
	}
	if n == 0 {
		return false
	}
	return sum/float64(n) < -a.threshold
}
