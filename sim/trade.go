package sim

import (
	"time"

	"github.com/rustyeddy/backsim/market"
)

// Trade is a Position frozen at close time. Created exactly once per
// position and never mutated afterwards.
type Trade struct {
	ID     int         `json:"id"`
	Symbol string      `json:"symbol"`
	Side   market.Side `json:"side"`

	Entry    float64 `json:"entry"`
	Exit     float64 `json:"exit"`
	Size     float64 `json:"size"`     // original notional at entry
	ExitSize float64 `json:"exitSize"` // notional closed on the final leg
	Leverage float64 `json:"leverage"`

	EntryTime time.Time     `json:"entryTime"`
	ExitTime  time.Time     `json:"exitTime"`
	Duration  time.Duration `json:"duration"`

	PnL        float64        `json:"pnl"` // net of commission, partial legs included
	Commission float64        `json:"commission"`
	Partials   []PartialClose `json:"partials,omitempty"`
	Reason     string         `json:"reason"`
}
