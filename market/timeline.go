package market

import (
	"sort"
	"time"
)

// Timeline is the merged clock for a multi-symbol run: the ascending union of
// every symbol's candle timestamps, deduplicated, plus a per-symbol
// timestamp -> candle-index map for O(1) lookup inside the main loop.
type Timeline struct {
	Stamps []time.Time

	index map[string]map[int64]int
}

// BuildTimeline merges the per-symbol series into one Timeline. Symbols with
// zero candles are silently excluded. The result does not depend on map
// iteration order: the union is collected into a set and sorted.
func BuildTimeline(series map[string][]Candle) *Timeline {
	tl := &Timeline{
		index: make(map[string]map[int64]int, len(series)),
	}

	set := make(map[int64]struct{})
	for symbol, candles := range series {
		if len(candles) == 0 {
			continue
		}
		byTime := make(map[int64]int, len(candles))
		for i, c := range candles {
			ts := c.Time.UnixNano()
			byTime[ts] = i
			set[ts] = struct{}{}
		}
		tl.index[symbol] = byTime
	}

	stamps := make([]int64, 0, len(set))
	for ts := range set {
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	tl.Stamps = make([]time.Time, len(stamps))
	for i, ts := range stamps {
		tl.Stamps[i] = time.Unix(0, ts).UTC()
	}
	return tl
}

// Lookup returns the candle index for symbol at t, if the symbol has a candle
// at exactly that timestamp.
func (tl *Timeline) Lookup(symbol string, t time.Time) (int, bool) {
	byTime, ok := tl.index[symbol]
	if !ok {
		return 0, false
	}
	i, ok := byTime[t.UnixNano()]
	return i, ok
}

// Symbols returns the symbols that contributed at least one candle, sorted.
func (tl *Timeline) Symbols() []string {
	out := make([]string, 0, len(tl.index))
	for s := range tl.index {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
