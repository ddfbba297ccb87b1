package sim

import (
	"time"

	"github.com/rustyeddy/backsim/market"
	"github.com/rustyeddy/backsim/strategies"
)

// PartialClose is one realized reduction of an open position. Appended,
// never removed.
type PartialClose struct {
	Price  float64   `json:"price"`
	Size   float64   `json:"size"`
	PnL    float64   `json:"pnl"`
	Time   time.Time `json:"time"`
	Reason string    `json:"reason"`
}

// Position is an open trade owned exclusively by the Ledger. Size is the
// remaining notional; InitialSize minus the recorded partials always equals
// it. Prices are slippage-adjusted at the moment they are set.
type Position struct {
	ID     int         `json:"id"`
	Symbol string      `json:"symbol"`
	Side   market.Side `json:"side"`

	Entry       float64 `json:"entry"`
	Size        float64 `json:"size"`
	InitialSize float64 `json:"initialSize"`
	Leverage    float64 `json:"leverage"`

	Stop  float64 `json:"stop"`
	Take  float64 `json:"take"`
	Take2 float64 `json:"take2,omitempty"` // 0 means single target

	EntryTime   time.Time      `json:"entryTime"`
	Commission  float64        `json:"commission"` // accrued over all legs
	Partials    []PartialClose `json:"partials,omitempty"`
	RealizedPnL float64        `json:"realizedPnl"` // sum of partial-close gross PnL

	Trailing  float64 `json:"trailing,omitempty"` // 0 until armed
	TP1Hit    bool    `json:"tp1Hit"`
	Breakeven bool    `json:"breakeven"`
}

// unrealized is the mark-to-market value of the position per the accounting
// rules: side-aware percentage move on the remaining size, minus accrued
// commission, plus PnL already realized by partial closes.
func (p *Position) unrealized(mark float64) float64 {
	return legPnL(p.Side, p.Entry, mark, p.Size) - p.Commission + p.RealizedPnL
}

func (p *Position) view() strategies.PositionView {
	return strategies.PositionView{
		Symbol:    p.Symbol,
		Side:      p.Side,
		Entry:     p.Entry,
		Size:      p.Size,
		EntryTime: p.EntryTime,
		TP1Hit:    p.TP1Hit,
	}
}

// legPnL is the P&L of closing `size` notional at `exit`, as a percentage of
// entry: longs earn (exit-entry)/entry, shorts the mirror.
func legPnL(side market.Side, entry, exit, size float64) float64 {
	if entry == 0 {
		return 0
	}
	return size * float64(side) * (exit - entry) / entry
}
