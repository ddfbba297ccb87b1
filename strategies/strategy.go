package strategies

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/backsim/market"
)

// Context is everything a strategy may look at for one decision: the
// enriched primary series up to and including the current candle, any
// auxiliary timeframes it declared, and the funding book. Funding data is
// passed here explicitly rather than read from package state so repeated or
// interleaved runs cannot corrupt each other's view.
type Context struct {
	Symbol  string
	Candles []market.Candle
	Index   int

	// Aux maps a declared timeframe (e.g. "4h") to its enriched series.
	Aux map[string][]market.Candle

	Funding *market.FundingBook
}

// Candle returns the candle under decision.
func (c *Context) Candle() market.Candle { return c.Candles[c.Index] }

// FundingAt returns the funding rate for the context symbol at the current
// candle, or (0, false) when no history is loaded that early.
func (c *Context) FundingAt() (float64, bool) {
	if c.Funding == nil {
		return 0, false
	}
	return c.Funding.At(c.Symbol, c.Candle().Time)
}

// EntrySignal is the answer to "should we open here".  Take2 of zero means a
// single take-profit target.
type EntrySignal struct {
	Enter  bool
	Stop   float64
	Take   float64
	Take2  float64
	Reason string
}

// ExitSignal is the strategy-defined exit for the futures engine.
type ExitSignal struct {
	Exit   bool
	Reason string
}

// PositionView is the read-only slice of an open position a strategy is
// allowed to see.
type PositionView struct {
	Symbol    string
	Side      market.Side
	Entry     float64
	Size      float64
	EntryTime time.Time
	TP1Hit    bool
}

// Strategy is the capability the USD futures engine calls. Implementations
// are stateless sets of pure functions over the shared data model; all run
// state lives in the engine.
type Strategy interface {
	Name() string

	// Warmup is the minimum number of candles that must exist before
	// entries are considered.
	Warmup() int

	// AuxTimeframes lists the auxiliary timeframes this strategy requires;
	// the caller must supply each as an enriched series in Context.Aux.
	AuxTimeframes() []string

	Long(ctx *Context) EntrySignal
	Short(ctx *Context) EntrySignal
	Exit(ctx *Context, pos PositionView) ExitSignal
}

// AllocationSignal is the entry answer for the BTC rotation engine:
// Fraction is the share of total BTC equity to allocate.
type AllocationSignal struct {
	Enter    bool
	Fraction float64
	Reason   string
}

// SellSignal is the rotation exit: Fraction in (0, 1] of the remaining
// allocation to sell, 1 meaning a full close.
type SellSignal struct {
	Exit     bool
	Fraction float64
	Reason   string
}

// HoldingView is the read-only view of an open rotation holding.
type HoldingView struct {
	Alt        string
	EntryRatio float64
	Allocated  float64
	EntryTime  time.Time
	TP1Hit     bool
}

// RotationStrategy is the capability the BTC rotation engine calls.
type RotationStrategy interface {
	Name() string
	Warmup() int
	Enter(ctx *Context) AllocationSignal
	Exit(ctx *Context, h HoldingView) SellSignal
}

// ByName resolves a futures strategy identifier. Unknown names are a caller
// error: the CLI validates before the engine ever runs.
func ByName(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ema-cross", "emacross":
		return NewEMACross(EMACrossDefaults()), nil
	case "confluence":
		return NewConfluence(ConfluenceDefaults()), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: ema-cross, confluence)", name)
	}
}

// RotationByName resolves a rotation strategy identifier.
func RotationByName(name string) (RotationStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "momentum", "momentum-rotation":
		return NewMomentumRotation(MomentumRotationDefaults()), nil
	default:
		return nil, fmt.Errorf("unknown rotation strategy %q (supported: momentum)", name)
	}
}
