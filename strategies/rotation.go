package strategies

import "math"

// MomentumRotation is the BTC-denominated rotation strategy: buy alts whose
// ALT/BTC ratio is in an uptrend, sell them back to BTC when the trend
// breaks. Context series are ratio candles, so every price here is an
// ALT/BTC ratio.
type MomentumRotation struct {
	cfg MomentumRotationConfig
}

type MomentumRotationConfig struct {
	// Allocation is the fraction of total BTC equity committed per entry.
	Allocation float64 `json:"allocation" yaml:"allocation"`
	RSIMin     float64 `json:"rsiMin" yaml:"rsi_min"`
}

func MomentumRotationDefaults() MomentumRotationConfig {
	return MomentumRotationConfig{
		Allocation: 0.25,
		RSIMin:     55,
	}
}

func NewMomentumRotation(cfg MomentumRotationConfig) *MomentumRotation {
	return &MomentumRotation{cfg: cfg}
}

func (s *MomentumRotation) Name() string { return "momentum" }

func (s *MomentumRotation) Warmup() int { return 51 }

func (s *MomentumRotation) Enter(ctx *Context) AllocationSignal {
	c := ctx.Candle()
	ind := c.Ind
	for _, v := range []float64{ind.EMA20, ind.EMA50, ind.RSI14} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return AllocationSignal{}
		}
	}
	if ind.EMA20 <= ind.EMA50 || ind.RSI14 < s.cfg.RSIMin || c.Close <= ind.EMA20 {
		return AllocationSignal{}
	}
	return AllocationSignal{
		Enter:    true,
		Fraction: s.cfg.Allocation,
		Reason:   "ratio uptrend",
	}
}

func (s *MomentumRotation) Exit(ctx *Context, h HoldingView) SellSignal {
	ind := ctx.Candle().Ind
	if math.IsNaN(ind.EMA20) || math.IsNaN(ind.EMA50) || math.IsNaN(ind.RSI14) {
		return SellSignal{}
	}
	if ind.EMA20 < ind.EMA50 {
		return SellSignal{Exit: true, Fraction: 1, Reason: "ratio trend broke"}
	}
	// Weakening but not broken: rotate half back to BTC.
	if h.TP1Hit && ind.RSI14 < 45 {
		return SellSignal{Exit: true, Fraction: 0.5, Reason: "momentum fading"}
	}
	return SellSignal{}
}
