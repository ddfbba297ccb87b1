package btcsim

import (
	"time"

	"github.com/rustyeddy/backsim/strategies"
)

// PartialClose is one realized reduction of a rotation holding, denominated
// in BTC at the ALT/BTC ratio it executed at.
type PartialClose struct {
	Ratio  float64   `json:"ratio"`
	Size   float64   `json:"size"` // BTC
	PnL    float64   `json:"pnl"`  // BTC
	Time   time.Time `json:"time"`
	Reason string    `json:"reason"`
}

// Position is an open alt holding. Allocated is the remaining BTC committed;
// everything is accounted in BTC against the synthetic ALT/BTC ratio.
type Position struct {
	ID  int    `json:"id"`
	Alt string `json:"alt"`

	EntryRatio       float64 `json:"entryRatio"`
	Allocated        float64 `json:"allocated"`
	InitialAllocated float64 `json:"initialAllocated"`
	Leverage         float64 `json:"leverage"`

	EntryTime   time.Time      `json:"entryTime"`
	Commission  float64        `json:"commission"` // BTC, all legs
	Partials    []PartialClose `json:"partials,omitempty"`
	RealizedPnL float64        `json:"realizedPnl"`
	TP1Hit      bool           `json:"tp1Hit"`
}

// valueAt is the BTC value of `size` of this holding at ratio r. Leveraged
// value is floored at zero: a position can be wiped out but never owes.
func (p *Position) valueAt(size, r float64) float64 {
	if p.EntryRatio == 0 {
		return 0
	}
	chg := r/p.EntryRatio - 1
	if p.Leverage > 1 {
		v := size * (1 + p.Leverage*chg)
		if v < 0 {
			return 0
		}
		return v
	}
	return size * (1 + chg)
}

func (p *Position) view() strategies.HoldingView {
	return strategies.HoldingView{
		Alt:        p.Alt,
		EntryRatio: p.EntryRatio,
		Allocated:  p.Allocated,
		EntryTime:  p.EntryTime,
		TP1Hit:     p.TP1Hit,
	}
}

// Trade is a closed rotation holding, terminal once created.
type Trade struct {
	ID  int    `json:"id"`
	Alt string `json:"alt"`

	EntryRatio float64 `json:"entryRatio"`
	ExitRatio  float64 `json:"exitRatio"`
	Allocated  float64 `json:"allocated"` // initial BTC commitment
	Leverage   float64 `json:"leverage"`

	EntryTime time.Time     `json:"entryTime"`
	ExitTime  time.Time     `json:"exitTime"`
	Duration  time.Duration `json:"duration"`

	PnL        float64        `json:"pnl"` // BTC, net of commission
	Commission float64        `json:"commission"`
	Partials   []PartialClose `json:"partials,omitempty"`
	Reason     string         `json:"reason"`
}
