package indicators

import (
	"math"

	"github.com/rustyeddy/backsim/market"
)

// Enrich attaches an indicator snapshot to every candle. The output slice is
// a copy: same length, same order, one-to-one with the input. Indicator
// fields are NaN until their warmup period is satisfied, which downstream
// code treats as "insufficient data", never as an error.
func Enrich(candles []market.Candle) []market.Candle {
	out := make([]market.Candle, len(candles))
	copy(out, candles)
	if len(out) == 0 {
		return out
	}

	closes := make([]float64, len(out))
	for i, c := range out {
		closes[i] = c.Close
	}

	ema20 := emaSeries(closes, 20)
	ema50 := emaSeries(closes, 50)
	ema200 := emaSeries(closes, 200)
	rsi := rsiSeries(closes, 14)
	atr := atrSeries(candles, 14)
	macd, signal := macdSeries(closes, 12, 26, 9)
	volSMA := smaVolume(candles, 20)

	for i := range out {
		out[i].Ind = market.Indicators{
			EMA20:      ema20[i],
			EMA50:      ema50[i],
			EMA200:     ema200[i],
			RSI14:      rsi[i],
			ATR14:      atr[i],
			MACD:       macd[i],
			MACDSignal: signal[i],
			VolSMA20:   volSMA[i],
		}
	}
	return out
}

// emaSeries seeds with an SMA over the first period values, then applies the
// standard 2/(n+1) smoothing.
func emaSeries(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if len(values) < period {
		return out
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	out[period-1] = ema

	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema = ema + k*(values[i]-ema)
		out[i] = ema
	}
	return out
}

// rsiSeries is Wilder's RSI. With no losses in the window the value is 100.
func rsiSeries(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if len(closes) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// atrSeries is Wilder's ATR: SMA of the first period true ranges, then
// smoothed with (atr*(n-1)+tr)/n.
func atrSeries(candles []market.Candle, period int) []float64 {
	out := nanSlice(len(candles))
	if len(candles) < period+1 {
		return out
	}

	trs := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		trs[i] = trueRange(candles[i], candles[i-1])
	}

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += trs[i]
	}
	atr := sum / float64(period)
	out[period] = atr

	for i := period + 1; i < len(candles); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
		out[i] = atr
	}
	return out
}

func trueRange(c, prev market.Candle) float64 {
	a := c.High - c.Low
	b := math.Abs(c.High - prev.Close)
	d := math.Abs(c.Low - prev.Close)
	return math.Max(a, math.Max(b, d))
}

// macdSeries returns the MACD line (fast EMA - slow EMA) and its signal line
// (EMA of the MACD line), NaN until both legs are warm.
func macdSeries(closes []float64, fast, slow, signalPeriod int) (macd, signal []float64) {
	macd = nanSlice(len(closes))
	signal = nanSlice(len(closes))

	fastEMA := emaSeries(closes, fast)
	slowEMA := emaSeries(closes, slow)

	valid := make([]float64, 0, len(closes))
	firstValid := -1
	for i := range closes {
		if math.IsNaN(fastEMA[i]) || math.IsNaN(slowEMA[i]) {
			continue
		}
		if firstValid < 0 {
			firstValid = i
		}
		macd[i] = fastEMA[i] - slowEMA[i]
		valid = append(valid, macd[i])
	}
	if firstValid < 0 {
		return macd, signal
	}

	sig := emaSeries(valid, signalPeriod)
	for i, v := range sig {
		signal[firstValid+i] = v
	}
	return macd, signal
}

func smaVolume(candles []market.Candle, period int) []float64 {
	out := nanSlice(len(candles))
	if len(candles) < period {
		return out
	}
	sum := 0.0
	for i, c := range candles {
		sum += c.Volume
		if i >= period {
			sum -= candles[i-period].Volume
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
