package btcsim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/backsim/market"
	"github.com/rustyeddy/backsim/stats"
	"github.com/rustyeddy/backsim/strategies"
)

// Exit reasons specific to the rotation engine; the take-profit and stop
// strings match the futures engine.
const (
	ReasonStop      = "Stop loss hit"
	ReasonTP1       = "TP1 hit"
	ReasonTP2       = "TP2 hit"
	ReasonDominance = "BTC dominance rising"
	ReasonMaxHold   = "max hold exceeded"
	ReasonEndOfData = "end of backtest"
)

// Engine rotates a BTC stack through alt positions over synthetic ALT/BTC
// ratio candles. Same deterministic single-pass shape as the futures engine,
// with an allocation pool instead of notional sizing.
type Engine struct {
	cfg   Config
	strat strategies.RotationStrategy
	log   zerolog.Logger

	open     []*Position
	byAlt    map[string]*Position
	closing  map[int]bool
	trades   []Trade
	equity   []stats.EquityPoint
	avail    float64 // unallocated BTC
	marks    map[string]float64
	nextID   int
}

func New(cfg Config, strat strategies.RotationStrategy, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:   cfg.WithDefaults(),
		strat: strat,
		log:   log,
	}
}

// Run replays the ratio series. ratios maps alt -> enriched ALT/BTC candles;
// dom may be nil to disable the dominance exit. Alts with no candles are
// skipped with a warning; no data at all yields a zeroed result.
func (e *Engine) Run(
	alts []string,
	ratios map[string][]market.Candle,
	dom DominanceSignal,
) (*Result, error) {
	if e.strat == nil {
		return nil, errors.New("btcsim: strategy is required")
	}
	if err := e.cfg.validate(); err != nil {
		return nil, fmt.Errorf("btcsim: %w", err)
	}

	e.open = nil
	e.byAlt = make(map[string]*Position)
	e.closing = make(map[int]bool)
	e.trades = nil
	e.equity = nil
	e.avail = e.cfg.StartingBTC
	e.marks = make(map[string]float64)
	e.nextID = 1

	filtered := make(map[string][]market.Candle, len(ratios))
	ordered := make([]string, 0, len(alts))
	for _, alt := range alts {
		if len(ratios[alt]) == 0 {
			e.log.Warn().Str("alt", alt).Msg("no ratio candles for alt, skipping")
			continue
		}
		filtered[alt] = ratios[alt]
		ordered = append(ordered, alt)
	}

	tl := market.BuildTimeline(filtered)
	if len(tl.Stamps) == 0 {
		return e.emptyResult(ordered), nil
	}

	last := len(tl.Stamps) - 1
	for i, ts := range tl.Stamps {
		for _, alt := range ordered {
			if idx, ok := tl.Lookup(alt, ts); ok {
				e.marks[alt] = filtered[alt][idx].Close
			}
		}

		for _, p := range e.snapshot() {
			idx, ok := tl.Lookup(p.Alt, ts)
			if !ok {
				continue
			}
			c := filtered[p.Alt][idx]
			e.applyExit(p, c, e.context(p.Alt, filtered, idx), dom)
		}
		e.sweep()

		for _, alt := range ordered {
			idx, ok := tl.Lookup(alt, ts)
			if !ok || idx+1 < e.strat.Warmup() {
				continue
			}
			e.tryEnter(alt, filtered[alt][idx], e.context(alt, filtered, idx))
		}

		if i%e.cfg.EquityEvery == 0 && i != last {
			e.sampleEquity(ts)
		}
	}

	end := tl.Stamps[last]
	for _, p := range e.snapshot() {
		e.closeFull(p, e.marks[p.Alt], end, ReasonEndOfData)
	}
	e.sweep()
	e.sampleEquity(end)

	return e.buildResult(ordered, tl.Stamps[0], end), nil
}

func (e *Engine) context(alt string, series map[string][]market.Candle, idx int) *strategies.Context {
	return &strategies.Context{
		Symbol:  alt,
		Candles: series[alt][:idx+1],
		Index:   idx,
	}
}

// applyExit is the rotation rule cascade, first rule wins.
func (e *Engine) applyExit(p *Position, c market.Candle, ctx *strategies.Context, dom DominanceSignal) {
	if p.EntryRatio == 0 {
		return
	}
	chg := c.Close/p.EntryRatio - 1

	// 1. Stop: the ratio fell through the band.
	if chg <= -e.cfg.StopLossPct {
		e.closeFull(p, c.Close, c.Time, ReasonStop)
		return
	}

	// 2. Fast dominance rise: alts are bleeding against BTC, sell back.
	if dom != nil && dom.Rising(c.Time) {
		e.closeFull(p, c.Close, c.Time, ReasonDominance)
		return
	}

	// 3. First take-profit: realize half, keep the rest running.
	if !p.TP1Hit && chg >= e.cfg.TP1Pct {
		e.closePartial(p, c.Close, 0.5, c.Time, ReasonTP1)
		p.TP1Hit = true
		return
	}

	// 4. Second take-profit, only after TP1.
	if p.TP1Hit && chg >= e.cfg.TP2Pct {
		e.closeFull(p, c.Close, c.Time, ReasonTP2)
		return
	}

	// 5. Timeout.
	if c.Time.Sub(p.EntryTime) >= time.Duration(e.cfg.MaxHoldDays)*24*time.Hour {
		e.closeFull(p, c.Close, c.Time, ReasonMaxHold)
		return
	}

	// 6. Strategy exit, possibly fractional.
	sig := e.strat.Exit(ctx, p.view())
	if !sig.Exit || sig.Fraction <= 0 || math.IsNaN(sig.Fraction) {
		return
	}
	reason := sig.Reason
	if reason == "" {
		reason = "strategy exit"
	}
	if sig.Fraction >= 1 {
		e.closeFull(p, c.Close, c.Time, reason)
		return
	}
	e.closePartial(p, c.Close, sig.Fraction, c.Time, reason)
}

func (e *Engine) tryEnter(alt string, c market.Candle, ctx *strategies.Context) {
	if _, ok := e.byAlt[alt]; ok {
		return
	}
	if len(e.open) >= e.cfg.MaxPositions {
		return
	}
	if c.Close <= 0 {
		return
	}

	sig := e.strat.Enter(ctx)
	if !sig.Enter || math.IsNaN(sig.Fraction) || sig.Fraction <= 0 {
		return
	}

	alloc := e.equityNow() * sig.Fraction
	// The pool must also cover the entry commission.
	feeRate := e.cfg.CommissionRate * e.cfg.Leverage
	if maxAlloc := e.avail / (1 + feeRate); alloc > maxAlloc {
		alloc = maxAlloc
	}
	if alloc < e.cfg.MinAllocation {
		return
	}

	fee := alloc * feeRate
	e.avail -= alloc + fee

	p := &Position{
		ID:               e.nextID,
		Alt:              alt,
		EntryRatio:       c.Close,
		Allocated:        alloc,
		InitialAllocated: alloc,
		Leverage:         e.cfg.Leverage,
		EntryTime:        c.Time,
		Commission:       fee,
	}
	e.nextID++
	e.open = append(e.open, p)
	e.byAlt[alt] = p
}

func (e *Engine) closePartial(p *Position, ratio, fraction float64, ts time.Time, reason string) {
	size := p.Allocated * fraction
	value := p.valueAt(size, ratio)
	gross := value - size
	fee := size * e.cfg.CommissionRate * e.cfg.Leverage

	e.avail += value - fee
	p.Commission += fee
	p.Partials = append(p.Partials, PartialClose{
		Ratio:  ratio,
		Size:   size,
		PnL:    gross,
		Time:   ts,
		Reason: reason,
	})
	p.RealizedPnL += gross
	p.Allocated -= size
}

func (e *Engine) closeFull(p *Position, ratio float64, ts time.Time, reason string) {
	value := p.valueAt(p.Allocated, ratio)
	gross := value - p.Allocated
	fee := p.Allocated * e.cfg.CommissionRate * e.cfg.Leverage

	e.avail += value - fee
	p.Commission += fee

	e.trades = append(e.trades, Trade{
		ID:         p.ID,
		Alt:        p.Alt,
		EntryRatio: p.EntryRatio,
		ExitRatio:  ratio,
		Allocated:  p.InitialAllocated,
		Leverage:   p.Leverage,
		EntryTime:  p.EntryTime,
		ExitTime:   ts,
		Duration:   ts.Sub(p.EntryTime),
		PnL:        p.RealizedPnL + gross - p.Commission,
		Commission: p.Commission,
		Partials:   p.Partials,
		Reason:     reason,
	})
	e.closing[p.ID] = true
}

func (e *Engine) snapshot() []*Position {
	out := make([]*Position, len(e.open))
	copy(out, e.open)
	return out
}

func (e *Engine) sweep() {
	if len(e.closing) == 0 {
		return
	}
	kept := e.open[:0]
	for _, p := range e.open {
		if e.closing[p.ID] {
			delete(e.byAlt, p.Alt)
			continue
		}
		kept = append(kept, p)
	}
	e.open = kept
	e.closing = make(map[int]bool)
}

// equityNow is the unallocated pool plus every open holding valued at its
// last known ratio.
func (e *Engine) equityNow() float64 {
	total := e.avail
	for _, p := range e.open {
		mark, ok := e.marks[p.Alt]
		if !ok {
			mark = p.EntryRatio
		}
		total += p.valueAt(p.Allocated, mark)
	}
	return total
}

func (e *Engine) sampleEquity(ts time.Time) {
	e.equity = append(e.equity, stats.EquityPoint{Time: ts, Value: e.equityNow()})
}
