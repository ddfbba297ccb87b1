package market

import (
	"sort"
	"time"
)

// FundingRate is one historical funding interval for a perpetual contract.
type FundingRate struct {
	Time time.Time
	Rate float64
}

// FundingBook holds funding history per symbol and answers point-in-time
// lookups. It is passed explicitly into strategy calls so that two runs can
// never observe each other's funding data.
type FundingBook struct {
	rates map[string][]FundingRate
}

func NewFundingBook() *FundingBook {
	return &FundingBook{rates: make(map[string][]FundingRate)}
}

// Add stores the history for a symbol, sorting it by time. Replaces any
// previously stored history for the same symbol.
func (b *FundingBook) Add(symbol string, rates []FundingRate) {
	cp := make([]FundingRate, len(rates))
	copy(cp, rates)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Time.Before(cp[j].Time) })
	b.rates[symbol] = cp
}

// At returns the most recent funding rate at or before t. The second return
// is false if the symbol has no history that early.
func (b *FundingBook) At(symbol string, t time.Time) (float64, bool) {
	rs := b.rates[symbol]
	if len(rs) == 0 {
		return 0, false
	}
	// First entry after t; we want the one before it.
	i := sort.Search(len(rs), func(i int) bool { return rs[i].Time.After(t) })
	if i == 0 {
		return 0, false
	}
	return rs[i-1].Rate, true
}

// Has reports whether any history exists for symbol.
func (b *FundingBook) Has(symbol string) bool {
	return len(b.rates[symbol]) > 0
}
