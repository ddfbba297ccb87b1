package sim

import (
	"math"

	"github.com/rustyeddy/backsim/market"
	"github.com/rustyeddy/backsim/strategies"
)

// Exit reasons recorded on trades. Strategy exits carry the strategy's own
// reason instead.
const (
	ReasonStop      = "Stop loss hit"
	ReasonTP1       = "TP1 hit"
	ReasonTP1Full   = "TP1 hit — full close"
	ReasonTP2       = "TP2 hit"
	ReasonEndOfData = "end of backtest"
)

// applyExit runs the fixed rule cascade for one open position on one candle,
// stopping at the first rule that fires. The trailing ratchet only runs when
// nothing closed, and never causes a close on the same candle.
func (e *Engine) applyExit(p *Position, c market.Candle, ctx *strategies.Context) {
	// 1. Hard stop. If stop and target are both inside this candle's range
	// the stop wins: worst case for the trader.
	if stopHit(p.Side, c, p.Stop) {
		e.closeFull(p, p.Stop, c.Time, ReasonStop)
		return
	}

	// 2. First take-profit. With a second target this is a half close and
	// the stop moves to breakeven; without one it is the full exit.
	if !p.TP1Hit && targetHit(p.Side, c, p.Take) {
		if p.Take2 != 0 {
			e.closePartial(p, p.Take, 0.5, c.Time, ReasonTP1)
			p.TP1Hit = true
			p.Stop = p.Entry
			p.Breakeven = true
		} else {
			e.closeFull(p, p.Take, c.Time, ReasonTP1Full)
		}
		return
	}

	// 3. Second take-profit, only armed after TP1.
	if p.TP1Hit && p.Take2 != 0 && targetHit(p.Side, c, p.Take2) {
		e.closeFull(p, p.Take2, c.Time, ReasonTP2)
		return
	}

	// 4. Strategy-defined exit, at the candle close.
	if sig := e.strat.Exit(ctx, p.view()); sig.Exit {
		reason := sig.Reason
		if reason == "" {
			reason = "strategy exit"
		}
		e.closeFull(p, c.Close, c.Time, reason)
		return
	}

	// 5. Trailing ratchet.
	e.updateTrailing(p, c)
}

func stopHit(side market.Side, c market.Candle, stop float64) bool {
	if side == market.Long {
		return c.Low <= stop
	}
	return c.High >= stop
}

func targetHit(side market.Side, c market.Candle, level float64) bool {
	if side == market.Long {
		return c.High >= level
	}
	return c.Low <= level
}

// updateTrailing arms once the unrealized move from entry covers one ATR,
// then holds the stop at entry ± 0.5×ATR. The level only ever tightens;
// a loosening candidate is ignored.
func (e *Engine) updateTrailing(p *Position, c market.Candle) {
	atr := c.Ind.ATR14
	if math.IsNaN(atr) || atr <= 0 {
		return
	}
	dir := float64(p.Side)
	if dir*(c.Close-p.Entry) < atr {
		return
	}
	level := p.Entry + dir*0.5*atr
	tighter := (p.Side == market.Long && level > p.Stop) ||
		(p.Side == market.Short && level < p.Stop)
	if tighter {
		p.Stop = level
		p.Trailing = level
	}
}
