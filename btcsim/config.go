package btcsim

import "fmt"

// Config drives a BTC-denominated rotation run. Leverage 1 means spot; the
// threshold defaults depend on it, matching the wider bands a spot holding
// can tolerate.
type Config struct {
	StartingBTC    float64 `json:"startingBtc" yaml:"starting_btc"`
	Leverage       float64 `json:"leverage" yaml:"leverage"`
	CommissionRate float64 `json:"commissionRate" yaml:"commission_rate"`
	MinAllocation  float64 `json:"minAllocation" yaml:"min_allocation"` // BTC floor per entry
	MaxPositions   int     `json:"maxPositions" yaml:"max_positions"`

	StopLossPct float64 `json:"stopLossPct" yaml:"stop_loss_pct"` // ratio drop, positive fraction
	TP1Pct      float64 `json:"tp1Pct" yaml:"tp1_pct"`            // ratio gain triggering the half close
	TP2Pct      float64 `json:"tp2Pct" yaml:"tp2_pct"`
	MaxHoldDays int     `json:"maxHoldDays" yaml:"max_hold_days"`

	// Dominance exit: full close when the average alt ratio trend over
	// DominanceLookback candles falls below -DominanceThreshold.
	DominanceLookback  int     `json:"dominanceLookback" yaml:"dominance_lookback"`
	DominanceThreshold float64 `json:"dominanceThreshold" yaml:"dominance_threshold"`

	EquityEvery int `json:"equityEvery" yaml:"equity_every"`
}

// WithDefaults fills every zero field. Run applies it before validating, so
// callers only need it when they want the resolved values up front.
func (c Config) WithDefaults() Config {
	if c.StartingBTC == 0 {
		c.StartingBTC = 1
	}
	if c.Leverage == 0 {
		c.Leverage = 1
	}
	spot := c.Leverage <= 1
	if c.StopLossPct == 0 {
		c.StopLossPct = pick(spot, 0.15, 0.10)
	}
	if c.TP1Pct == 0 {
		c.TP1Pct = pick(spot, 0.30, 0.15)
	}
	if c.TP2Pct == 0 {
		c.TP2Pct = pick(spot, 0.50, 0.30)
	}
	if c.MaxHoldDays == 0 {
		if spot {
			c.MaxHoldDays = 21
		} else {
			c.MaxHoldDays = 14
		}
	}
	if c.MinAllocation == 0 {
		c.MinAllocation = 0.001
	}
	if c.MaxPositions == 0 {
		c.MaxPositions = 4
	}
	if c.DominanceLookback == 0 {
		c.DominanceLookback = 12
	}
	if c.DominanceThreshold == 0 {
		c.DominanceThreshold = 0.05
	}
	if c.EquityEvery == 0 {
		c.EquityEvery = 10
	}
	return c
}

func pick(spot bool, s, lev float64) float64 {
	if spot {
		return s
	}
	return lev
}

func (c Config) validate() error {
	if c.StartingBTC <= 0 {
		return fmt.Errorf("btcsim: starting BTC must be positive, got %v", c.StartingBTC)
	}
	if c.Leverage < 1 {
		return fmt.Errorf("btcsim: leverage must be >= 1, got %v", c.Leverage)
	}
	if c.CommissionRate < 0 {
		return fmt.Errorf("btcsim: commission must be non-negative")
	}
	if c.StopLossPct <= 0 || c.TP1Pct <= 0 || c.TP2Pct <= c.TP1Pct {
		return fmt.Errorf("btcsim: thresholds must satisfy 0 < SL, 0 < TP1 < TP2")
	}
	if c.MaxPositions < 1 {
		return fmt.Errorf("btcsim: max positions must be >= 1, got %d", c.MaxPositions)
	}
	if c.MaxHoldDays < 1 {
		return fmt.Errorf("btcsim: max hold must be >= 1 day, got %d", c.MaxHoldDays)
	}
	if c.EquityEvery < 1 {
		return fmt.Errorf("btcsim: equity cadence must be >= 1, got %d", c.EquityEvery)
	}
	return nil
}
