package market

// BuildRatio synthesizes an ALT/BTC ratio series by dividing each alt candle
// by the BTC candle at the same timestamp. Alt candles with no matching BTC
// candle (or a zero BTC price) are dropped. Volume carries the alt's volume;
// the indicator snapshot is left empty for a later enrichment pass.
func BuildRatio(alt, btc []Candle) []Candle {
	btcAt := make(map[int64]Candle, len(btc))
	for _, c := range btc {
		btcAt[c.Time.UnixNano()] = c
	}

	out := make([]Candle, 0, len(alt))
	for _, a := range alt {
		b, ok := btcAt[a.Time.UnixNano()]
		if !ok {
			continue
		}
		if b.Open == 0 || b.High == 0 || b.Low == 0 || b.Close == 0 {
			continue
		}
		out = append(out, Candle{
			Time:   a.Time,
			Open:   a.Open / b.Open,
			High:   a.High / b.High,
			Low:    a.Low / b.Low,
			Close:  a.Close / b.Close,
			Volume: a.Volume,
		})
	}
	return out
}
