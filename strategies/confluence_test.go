package strategies

import (
	"testing"
	"time"

	"github.com/rustyeddy/backsim/market"
)

func confCtx(ind market.Indicators, close, volume float64) *Context {
	return &Context{
		Symbol: "BTCUSDT",
		Candles: []market.Candle{{
			Time:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Close:  close,
			Volume: volume,
			Ind:    ind,
		}},
		Index: 0,
	}
}

func bullishInd() market.Indicators {
	return market.Indicators{
		EMA50:      98,
		EMA200:     95,
		RSI14:      60,
		ATR14:      2,
		MACD:       1.5,
		MACDSignal: 1.0,
		VolSMA20:   100,
	}
}

func TestConfluenceLongEnters(t *testing.T) {
	s := NewConfluence(ConfluenceDefaults())

	// Trend, RSI band, MACD and volume all aligned: score 0.90.
	sig := s.Long(confCtx(bullishInd(), 100, 150))
	if !sig.Enter {
		t.Fatal("full confluence must enter")
	}
	if sig.Stop != 96 || sig.Take != 105 || sig.Take2 != 110 {
		t.Fatalf("levels: stop=%v take=%v take2=%v", sig.Stop, sig.Take, sig.Take2)
	}
}

func TestConfluenceBelowThreshold(t *testing.T) {
	s := NewConfluence(ConfluenceDefaults())

	// Only the two trend terms score: 0.40 < 0.60.
	ind := bullishInd()
	ind.RSI14 = 80 // out of band
	ind.MACDSignal = 2.0

	if s.Long(confCtx(ind, 100, 50)).Enter {
		t.Fatal("0.40 score entered")
	}
}

func TestConfluenceFundingSkewTipsTheScore(t *testing.T) {
	s := NewConfluence(ConfluenceDefaults())

	// 0.55 without funding: price above EMA50, RSI in band, volume up.
	ind := bullishInd()
	ind.EMA200 = 99       // EMA50 below: no trend-stack term
	ind.MACDSignal = 2.0  // MACD against
	ctx := confCtx(ind, 100, 150)

	if s.Long(ctx).Enter {
		t.Fatal("0.55 must not clear the threshold")
	}

	// Negative funding pays longs: +0.10 clears it.
	book := market.NewFundingBook()
	book.Add("BTCUSDT", []market.FundingRate{
		{Time: ctx.Candle().Time.Add(-time.Hour), Rate: -0.0005},
	})
	ctx.Funding = book

	if !s.Long(ctx).Enter {
		t.Fatal("funding skew must tip the score over the threshold")
	}
}

func TestConfluenceAuxTimeframeTrend(t *testing.T) {
	cfg := ConfluenceDefaults()
	cfg.AuxTF = "4h"
	s := NewConfluence(cfg)

	if tfs := s.AuxTimeframes(); len(tfs) != 1 || tfs[0] != "4h" {
		t.Fatalf("aux declaration: %v", tfs)
	}

	// 0.55 base again; the higher timeframe uptrend adds 0.15.
	ind := bullishInd()
	ind.EMA200 = 99
	ind.MACDSignal = 2.0
	ctx := confCtx(ind, 100, 150)

	hi := market.Candle{
		Time: ctx.Candle().Time.Add(-3 * time.Hour),
		Ind:  market.Indicators{EMA50: 100, EMA200: 90},
	}
	ctx.Aux = map[string][]market.Candle{"4h": {hi}}

	if !s.Long(ctx).Enter {
		t.Fatal("higher timeframe trend must tip the score")
	}
}

func TestConfluenceAuxNeverReadsAhead(t *testing.T) {
	cfg := ConfluenceDefaults()
	cfg.AuxTF = "4h"
	s := NewConfluence(cfg)

	ind := bullishInd()
	ind.EMA200 = 99
	ind.MACDSignal = 2.0
	ctx := confCtx(ind, 100, 150)

	// The only aux candle is in the future; its trend must not count.
	future := market.Candle{
		Time: ctx.Candle().Time.Add(4 * time.Hour),
		Ind:  market.Indicators{EMA50: 100, EMA200: 90},
	}
	ctx.Aux = map[string][]market.Candle{"4h": {future}}

	if s.Long(ctx).Enter {
		t.Fatal("future aux candle influenced the score")
	}
}

func TestConfluenceExitOnFlip(t *testing.T) {
	s := NewConfluence(ConfluenceDefaults())
	pos := PositionView{Symbol: "BTCUSDT", Side: market.Long}

	// Strongly bearish: the short side's score clears the threshold.
	ind := market.Indicators{
		EMA50:      102,
		EMA200:     105,
		RSI14:      40,
		ATR14:      2,
		MACD:       -1.5,
		MACDSignal: -1.0,
		VolSMA20:   100,
	}
	sig := s.Exit(confCtx(ind, 100, 150), pos)
	if !sig.Exit {
		t.Fatal("bearish confluence must exit the long")
	}

	if s.Exit(confCtx(bullishInd(), 100, 150), pos).Exit {
		t.Fatal("bullish confluence must hold the long")
	}
}
