package sim

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

// Engine replays enriched candles through one strategy and produces a
// Result. A single Run is one synchronous pass over the merged timeline:
// exits for every open position first, then entries per symbol in the
// caller-supplied order, then an equity sample. There is no clock, no
// randomness and no goroutine: identical inputs give identical results.
type Engine struct {
	cfg   Config
	strat strategies.Strategy
	log   zerolog.Logger

	// run state, reset at the top of Run
	ledger   *Ledger
	trades   []Trade
	equity   []stats.EquityPoint
	realized float64
	marks    map[string]float64
	nextID   int
}

func New(cfg Config, strat strategies.Strategy, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:   cfg.withDefaults(),
		strat: strat,
		log:   log,
	}
}

// Run executes the backtest. series maps symbol -> enriched primary candles;
// aux maps symbol -> timeframe -> enriched auxiliary candles; funding may be
// nil when no strategy consumes it. Symbols with no candles are skipped with
// a warning. The error return is reserved for contract violations; data
// sparsity never fails a run.
func (e *Engine) Run(
	symbols []string,
	series map[string][]market.Candle,
	aux map[string]map[string][]market.Candle,
	funding *market.FundingBook,
) (*Result, error) {
	if e.strat == nil {
		return nil, errors.New("sim: strategy is required")
	}
	if err := e.cfg.validate(); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	e.ledger = NewLedger()
	e.trades = nil
	e.equity = nil
	e.realized = 0
	e.marks = make(map[string]float64)
	e.nextID = 1

	filtered := make(map[string][]market.Candle, len(series))
	ordered := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if len(series[sym]) == 0 {
			e.log.Warn().Str("symbol", sym).Msg("no candles for symbol, skipping")
			continue
		}
		filtered[sym] = series[sym]
		ordered = append(ordered, sym)
	}

	tl := market.BuildTimeline(filtered)
	if len(tl.Stamps) == 0 {
		return e.emptyResult(ordered), nil
	}

	last := len(tl.Stamps) - 1
	for i, ts := range tl.Stamps {
		// Mark-to-market every symbol that has a candle here.
		for _, sym := range ordered {
			if idx, ok := tl.Lookup(sym, ts); ok {
				e.marks[sym] = filtered[sym][idx].Close
			}
		}

		// Exits for every open position before any entry is considered.
		for _, p := range e.ledger.Snapshot() {
			idx, ok := tl.Lookup(p.Symbol, ts)
			if !ok {
				continue
			}
			c := filtered[p.Symbol][idx]
			e.applyExit(p, c, e.context(p.Symbol, filtered, aux, funding, idx))
		}
		e.ledger.Sweep()

		for _, sym := range ordered {
			idx, ok := tl.Lookup(sym, ts)
			if !ok || idx+1 < e.strat.Warmup() {
				continue
			}
			e.tryEnter(sym, filtered[sym][idx], e.context(sym, filtered, aux, funding, idx))
		}

		if i%e.cfg.EquityEvery == 0 && i != last {
			e.sampleEquity(ts)
		}
	}

	// Force-close whatever is still open at its last available price so the
	// trade list and final equity are fully reconciled.
	end := tl.Stamps[last]
	for _, p := range e.ledger.Snapshot() {
		e.closeFull(p, e.marks[p.Symbol], end, ReasonEndOfData)
	}
	e.ledger.Sweep()
	e.sampleEquity(end)

	return e.buildResult(ordered, tl.Stamps[0], end), nil
}

func (e *Engine) context(
	symbol string,
	series map[string][]market.Candle,
	aux map[string]map[string][]market.Candle,
	funding *market.FundingBook,
	idx int,
) *strategies.Context {
	return &strategies.Context{
		Symbol:  symbol,
		Candles: series[symbol][:idx+1],
		Index:   idx,
		Aux:     aux[symbol],
		Funding: funding,
	}
}

// tryEnter asks the strategy for a long, then a short, and opens the first
// accepted signal under the risk and concurrency rules.
func (e *Engine) tryEnter(symbol string, c market.Candle, ctx *strategies.Context) {
	if e.ledger.Has(symbol) || e.ledger.Len() >= e.cfg.MaxPositions {
		return
	}

	side := market.Long
	sig := e.strat.Long(ctx)
	if !sig.Enter {
		side = market.Short
		sig = e.strat.Short(ctx)
	}
	if !sig.Enter {
		return
	}
	// Non-finite levels mean the strategy computed on insufficient data;
	// that is "no signal", not an error.
	if !finite(sig.Stop) || !finite(sig.Take) || !finite(sig.Take2) {
		return
	}

	entry := e.slipEntry(side, c.Close)
	if entry <= 0 {
		return
	}
	stopDist := math.Abs(entry-sig.Stop) / entry
	if stopDist == 0 {
		return
	}

	equity := e.equityNow()
	size := equity * e.cfg.RiskPerTrade / stopDist
	if cap := equity * e.cfg.Leverage; size > cap {
		size = cap
	}
	if size <= 0 {
		return
	}

	p := &Position{
		ID:          e.nextID,
		Symbol:      symbol,
		Side:        side,
		Entry:       entry,
		Size:        size,
		InitialSize: size,
		Leverage:    e.cfg.Leverage,
		Stop:        sig.Stop,
		Take:        sig.Take,
		Take2:       sig.Take2,
		EntryTime:   c.Time,
		Commission:  e.cfg.CommissionRate * size,
	}
	e.nextID++
	e.ledger.Add(p)
}

// closePartial realizes a fraction of the position at rawPrice.
func (e *Engine) closePartial(p *Position, rawPrice, fraction float64, ts time.Time, reason string) {
	exit := e.slipExit(p.Side, rawPrice)
	size := p.Size * fraction
	gross := legPnL(p.Side, p.Entry, exit, size)

	p.Commission += e.cfg.CommissionRate * size
	p.Partials = append(p.Partials, PartialClose{
		Price:  exit,
		Size:   size,
		PnL:    gross,
		Time:   ts,
		Reason: reason,
	})
	p.RealizedPnL += gross
	p.Size -= size
}

// closeFull freezes the position into a Trade and marks it for removal.
func (e *Engine) closeFull(p *Position, rawPrice float64, ts time.Time, reason string) {
	exit := e.slipExit(p.Side, rawPrice)
	gross := legPnL(p.Side, p.Entry, exit, p.Size)
	p.Commission += e.cfg.CommissionRate * p.Size

	pnl := p.RealizedPnL + gross - p.Commission
	e.trades = append(e.trades, Trade{
		ID:         p.ID,
		Symbol:     p.Symbol,
		Side:       p.Side,
		Entry:      p.Entry,
		Exit:       exit,
		Size:       p.InitialSize,
		ExitSize:   p.Size,
		Leverage:   p.Leverage,
		EntryTime:  p.EntryTime,
		ExitTime:   ts,
		Duration:   ts.Sub(p.EntryTime),
		PnL:        pnl,
		Commission: p.Commission,
		Partials:   p.Partials,
		Reason:     reason,
	})
	e.realized += pnl
	e.ledger.MarkClosed(p.ID)
}

// equityNow is starting capital plus realized PnL plus every open position
// marked at its last known price.
func (e *Engine) equityNow() float64 {
	equity := e.cfg.StartingCapital + e.realized
	for _, p := range e.ledger.Snapshot() {
		mark, ok := e.marks[p.Symbol]
		if !ok {
			mark = p.Entry
		}
		equity += p.unrealized(mark)
	}
	return equity
}

func (e *Engine) sampleEquity(ts time.Time) {
	e.equity = append(e.equity, stats.EquityPoint{Time: ts, Value: e.equityNow()})
}

// Slippage: longs pay up entering and receive less exiting; shorts mirror.
func (e *Engine) slipEntry(side market.Side, price float64) float64 {
	return price * (1 + float64(side)*e.cfg.SlippageRate)
}

func (e *Engine) slipExit(side market.Side, price float64) float64 {
	return price * (1 - float64(side)*e.cfg.SlippageRate)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
