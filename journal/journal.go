package journal

import "time"

// RunRecord is one persisted backtest run, futures or rotation. Config is the
// JSON-encoded engine config echo; starting capital and PnL are in the run's
// accounting unit (USD or BTC).
type RunRecord struct {
	RunID    string
	Created  time.Time
	Kind     string // "futures" or "rotation"
	Strategy string
	Symbols  string // comma separated
	Config   string

	Start time.Time
	End   time.Time

	StartingCapital float64
	FinalEquity     float64
	TotalPnL        float64
	ReturnPct       float64

	Trades         int
	Wins           int
	Losses         int
	WinRate        float64
	ProfitFactor   float64
	MaxDrawdown    float64
	MaxDrawdownPct float64
	Sharpe         float64
}

// TradeRecord is one persisted trade row. For rotation runs Entry/Exit hold
// the ALT/BTC ratios and Side is always "long".
type TradeRecord struct {
	RunID      string
	TradeID    int
	Symbol     string
	Side       string
	Entry      float64
	Exit       float64
	Size       float64
	PnL        float64
	Commission float64
	EntryTime  time.Time
	ExitTime   time.Time
	Reason     string
}

// EquityRecord is one persisted equity sample.
type EquityRecord struct {
	RunID  string
	Time   time.Time
	Equity float64
}
