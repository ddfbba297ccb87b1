package strategies

import (
	"math"

	"github.com/rustyeddy/backsim/market"
)

// Confluence gates entries on a weighted sum of independent conditions:
// trend alignment, RSI band, MACD direction, volume expansion, a funding
// skew term and, if a higher timeframe is configured, its trend. A side
// enters only when its score clears the threshold.
type Confluence struct {
	cfg ConfluenceConfig
}

type ConfluenceConfig struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
	StopATR   float64 `json:"stopAtr" yaml:"stop_atr"`
	TakeATR   float64 `json:"takeAtr" yaml:"take_atr"`
	Take2ATR  float64 `json:"take2Atr" yaml:"take2_atr"`

	// AuxTF names a higher timeframe whose EMA50/EMA200 trend joins the
	// score. Empty disables the condition and the aux requirement.
	AuxTF string `json:"auxTf" yaml:"aux_tf"`
}

func ConfluenceDefaults() ConfluenceConfig {
	return ConfluenceConfig{
		Threshold: 0.6,
		StopATR:   2.0,
		TakeATR:   2.5,
		Take2ATR:  5.0,
	}
}

func NewConfluence(cfg ConfluenceConfig) *Confluence {
	return &Confluence{cfg: cfg}
}

func (s *Confluence) Name() string { return "confluence" }

func (s *Confluence) Warmup() int { return 201 }

func (s *Confluence) AuxTimeframes() []string {
	if s.cfg.AuxTF == "" {
		return nil
	}
	return []string{s.cfg.AuxTF}
}

func (s *Confluence) Long(ctx *Context) EntrySignal {
	return s.entry(ctx, market.Long)
}

func (s *Confluence) Short(ctx *Context) EntrySignal {
	return s.entry(ctx, market.Short)
}

// Exit fires when the opposite side's score clears the threshold.
func (s *Confluence) Exit(ctx *Context, pos PositionView) ExitSignal {
	opposite := market.Long
	if pos.Side == market.Long {
		opposite = market.Short
	}
	score, ok := s.score(ctx, opposite)
	if !ok || score < s.cfg.Threshold {
		return ExitSignal{}
	}
	return ExitSignal{Exit: true, Reason: "confluence flipped"}
}

func (s *Confluence) entry(ctx *Context, side market.Side) EntrySignal {
	score, ok := s.score(ctx, side)
	if !ok || score < s.cfg.Threshold {
		return EntrySignal{}
	}

	c := ctx.Candle()
	dir := float64(side)
	sig := EntrySignal{
		Enter:  true,
		Stop:   c.Close - dir*s.cfg.StopATR*c.Ind.ATR14,
		Take:   c.Close + dir*s.cfg.TakeATR*c.Ind.ATR14,
		Reason: "confluence entry",
	}
	if s.cfg.Take2ATR > 0 {
		sig.Take2 = c.Close + dir*s.cfg.Take2ATR*c.Ind.ATR14
	}
	return sig
}

func (s *Confluence) score(ctx *Context, side market.Side) (float64, bool) {
	c := ctx.Candle()
	ind := c.Ind
	for _, v := range []float64{ind.EMA50, ind.EMA200, ind.RSI14, ind.ATR14, ind.MACD, ind.MACDSignal, ind.VolSMA20} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
	}

	dir := float64(side)
	score := 0.0

	if dir*(c.Close-ind.EMA50) > 0 {
		score += 0.25
	}
	if dir*(ind.EMA50-ind.EMA200) > 0 {
		score += 0.15
	}
	if side == market.Long && ind.RSI14 > 50 && ind.RSI14 < 75 {
		score += 0.20
	}
	if side == market.Short && ind.RSI14 < 50 && ind.RSI14 > 25 {
		score += 0.20
	}
	if dir*(ind.MACD-ind.MACDSignal) > 0 {
		score += 0.20
	}
	if c.Volume > ind.VolSMA20 {
		score += 0.10
	}

	// Crowded positioning works against the trade: positive funding pays
	// shorts, negative pays longs.
	if rate, ok := ctx.FundingAt(); ok && dir*rate < 0 {
		score += 0.10
	}

	if s.cfg.AuxTF != "" {
		if hi, ok := auxAt(ctx.Aux[s.cfg.AuxTF], c); ok {
			if !math.IsNaN(hi.Ind.EMA50) && !math.IsNaN(hi.Ind.EMA200) &&
				dir*(hi.Ind.EMA50-hi.Ind.EMA200) > 0 {
				score += 0.15
			}
		}
	}

	return score, true
}

// auxAt finds the last higher-timeframe candle at or before c, so the score
// never reads data from the future. ok is false when every aux candle is
// later than c.
func auxAt(aux []market.Candle, c market.Candle) (out market.Candle, ok bool) {
	for _, a := range aux {
		if a.Time.After(c.Time) {
			break
		}
		out = a
		ok = true
	}
	return out, ok
}
