package market

import "time"

// Side of a position: +1 long, -1 short.
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	if s == Short {
		return "short"
	}
	return "long"
}

// Indicators is the snapshot the enrichment pass attaches to every candle.
// Values are NaN until enough history exists for the indicator in question.
type Indicators struct {
	EMA20      float64
	EMA50      float64
	EMA200     float64
	RSI14      float64
	ATR14      float64
	MACD       float64
	MACDSignal float64
	VolSMA20   float64
}

// Candle is one OHLCV bar. Ind is zero-valued until indicators.Enrich has run;
// enriched candles are treated as immutable by everything downstream.
type Candle struct {
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Turnover float64

	Ind Indicators
}
