package sim

import "fmt"

// Config are the accounting knobs for a USD-margined futures run.
type Config struct {
	StartingCapital float64 `json:"startingCapital" yaml:"starting_capital"`
	RiskPerTrade    float64 `json:"riskPerTrade" yaml:"risk_per_trade"` // fraction of equity risked per trade
	Leverage        float64 `json:"leverage" yaml:"leverage"`           // notional cap = equity * leverage
	MaxPositions    int     `json:"maxPositions" yaml:"max_positions"`
	CommissionRate  float64 `json:"commissionRate" yaml:"commission_rate"` // per leg, on notional traded
	SlippageRate    float64 `json:"slippageRate" yaml:"slippage_rate"`
	EquityEvery     int     `json:"equityEvery" yaml:"equity_every"` // sample cadence in processed timestamps
}

func (c Config) withDefaults() Config {
	if c.StartingCapital == 0 {
		c.StartingCapital = 10000
	}
	if c.RiskPerTrade == 0 {
		c.RiskPerTrade = 0.01
	}
	if c.Leverage == 0 {
		c.Leverage = 3
	}
	if c.MaxPositions == 0 {
		c.MaxPositions = 3
	}
	if c.EquityEvery == 0 {
		c.EquityEvery = 10
	}
	return c
}

func (c Config) validate() error {
	if c.StartingCapital <= 0 {
		return fmt.Errorf("sim: starting capital must be positive, got %v", c.StartingCapital)
	}
	if c.RiskPerTrade <= 0 || c.RiskPerTrade > 1 {
		return fmt.Errorf("sim: risk per trade must be in (0, 1], got %v", c.RiskPerTrade)
	}
	if c.Leverage < 1 {
		return fmt.Errorf("sim: leverage must be >= 1, got %v", c.Leverage)
	}
	if c.MaxPositions < 1 {
		return fmt.Errorf("sim: max positions must be >= 1, got %d", c.MaxPositions)
	}
	if c.CommissionRate < 0 || c.SlippageRate < 0 {
		return fmt.Errorf("sim: commission and slippage must be non-negative")
	}
	if c.EquityEvery < 1 {
		return fmt.Errorf("sim: equity cadence must be >= 1, got %d", c.EquityEvery)
	}
	return nil
}
