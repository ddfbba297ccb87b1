package strategies

import (
	"math"

	"github.com/rustyeddy/backsim/market"
)

// EMACross enters on an EMA20/EMA50 crossover with an RSI filter and places
// ATR-multiple stops and targets. Entirely stateless: the cross is detected
// by comparing the current candle's snapshot against the previous one.
type EMACross struct {
	cfg EMACrossConfig
}

type EMACrossConfig struct {
	StopATR  float64 `json:"stopAtr" yaml:"stop_atr"`   // stop distance, ATR multiples
	TakeATR  float64 `json:"takeAtr" yaml:"take_atr"`   // first target
	Take2ATR float64 `json:"take2Atr" yaml:"take2_atr"` // second target, 0 disables
	RSIMin   float64 `json:"rsiMin" yaml:"rsi_min"`     // long filter floor
	RSIMax   float64 `json:"rsiMax" yaml:"rsi_max"`     // short filter ceiling
}

func EMACrossDefaults() EMACrossConfig {
	return EMACrossConfig{
		StopATR:  1.5,
		TakeATR:  2.0,
		Take2ATR: 4.0,
		RSIMin:   50,
		RSIMax:   50,
	}
}

func NewEMACross(cfg EMACrossConfig) *EMACross {
	return &EMACross{cfg: cfg}
}

func (s *EMACross) Name() string { return "ema-cross" }

func (s *EMACross) Warmup() int { return 51 }

func (s *EMACross) AuxTimeframes() []string { return nil }

func (s *EMACross) Long(ctx *Context) EntrySignal {
	cur, prev, ok := s.pair(ctx)
	if !ok {
		return EntrySignal{}
	}
	bull := cur.Ind.EMA20 > cur.Ind.EMA50 && prev.Ind.EMA20 <= prev.Ind.EMA50
	if !bull || cur.Ind.RSI14 < s.cfg.RSIMin {
		return EntrySignal{}
	}
	return s.signal(cur, market.Long, "EMA20 crossed above EMA50")
}

func (s *EMACross) Short(ctx *Context) EntrySignal {
	cur, prev, ok := s.pair(ctx)
	if !ok {
		return EntrySignal{}
	}
	bear := cur.Ind.EMA20 < cur.Ind.EMA50 && prev.Ind.EMA20 >= prev.Ind.EMA50
	if !bear || cur.Ind.RSI14 > s.cfg.RSIMax {
		return EntrySignal{}
	}
	return s.signal(cur, market.Short, "EMA20 crossed below EMA50")
}

// Exit closes when the fast EMA crosses back against the position.
func (s *EMACross) Exit(ctx *Context, pos PositionView) ExitSignal {
	cur, prev, ok := s.pair(ctx)
	if !ok {
		return ExitSignal{}
	}
	diff := cur.Ind.EMA20 - cur.Ind.EMA50
	prevDiff := prev.Ind.EMA20 - prev.Ind.EMA50

	against := (pos.Side == market.Long && diff < 0 && prevDiff >= 0) ||
		(pos.Side == market.Short && diff > 0 && prevDiff <= 0)
	if !against {
		return ExitSignal{}
	}
	return ExitSignal{Exit: true, Reason: "EMA cross against position"}
}

func (s *EMACross) pair(ctx *Context) (cur, prev market.Candle, ok bool) {
	if ctx.Index < 1 {
		return cur, prev, false
	}
	cur = ctx.Candles[ctx.Index]
	prev = ctx.Candles[ctx.Index-1]
	for _, v := range []float64{
		cur.Ind.EMA20, cur.Ind.EMA50, cur.Ind.RSI14, cur.Ind.ATR14,
		prev.Ind.EMA20, prev.Ind.EMA50,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return cur, prev, false
		}
	}
	return cur, prev, true
}

func (s *EMACross) signal(c market.Candle, side market.Side, reason string) EntrySignal {
	atr := c.Ind.ATR14
	dir := float64(side)
	sig := EntrySignal{
		Enter:  true,
		Stop:   c.Close - dir*s.cfg.StopATR*atr,
		Take:   c.Close + dir*s.cfg.TakeATR*atr,
		Reason: reason,
	}
	if s.cfg.Take2ATR > 0 {
		sig.Take2 = c.Close + dir*s.cfg.Take2ATR*atr
	}
	return sig
}
