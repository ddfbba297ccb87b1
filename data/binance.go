package data

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/backsim/market"
)

const klineLimit = 1000

// Binance loads historical klines and funding rates from the USD-M futures
// API, backed by the JSON file cache. The fetch window is fixed at
// construction so every symbol in a run covers the same period.
type Binance struct {
	client *futures.Client
	cache  *Cache
	start  time.Time
	end    time.Time
	log    zerolog.Logger
}

func NewBinance(apiKey, secretKey string, cache *Cache, start, end time.Time, log zerolog.Logger) *Binance {
	return &Binance{
		client: futures.NewClient(apiKey, secretKey),
		cache:  cache,
		start:  start,
		end:    end,
		log:    log,
	}
}

// Candles returns the symbol's klines over the provider window, oldest
// first. A symbol unknown to the exchange maps to ErrNoData.
func (b *Binance) Candles(ctx context.Context, symbol, interval string) ([]market.Candle, error) {
	key := fmt.Sprintf("klines_%s_%s_%d_%d", symbol, interval, b.start.Unix(), b.end.Unix())

	var cached []market.Candle
	if b.cache != nil && b.cache.Get(key, &cached) {
		return cached, nil
	}

	var out []market.Candle
	from := b.start.UnixMilli()
	endMs := b.end.UnixMilli()

	for from < endMs {
		klines, err := b.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(from).
			EndTime(endMs).
			Limit(klineLimit).
			Do(ctx)
		if err != nil {
			if isUnknownSymbol(err) {
				return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
			}
			return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, interval, err)
		}
		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			c, err := parseKline(k)
			if err != nil {
				b.log.Warn().Str("symbol", symbol).Err(err).Msg("bad kline, skipping")
				continue
			}
			out = append(out, c)
		}
		from = klines[len(klines)-1].CloseTime + 1
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	if b.cache != nil {
		if err := b.cache.Put(key, out); err != nil {
			b.log.Warn().Str("symbol", symbol).Err(err).Msg("cache write failed")
		}
	}
	return out, nil
}

// FundingRates returns the symbol's funding history over the provider
// window, oldest first.
func (b *Binance) FundingRates(ctx context.Context, symbol string) ([]market.FundingRate, error) {
	key := fmt.Sprintf("funding_%s_%d_%d", symbol, b.start.Unix(), b.end.Unix())

	var cached []market.FundingRate
	if b.cache != nil && b.cache.Get(key, &cached) {
		return cached, nil
	}

	var out []market.FundingRate
	from := b.start.UnixMilli()
	endMs := b.end.UnixMilli()

	for from < endMs {
		rates, err := b.client.NewFundingRateService().
			Symbol(symbol).
			StartTime(from).
			EndTime(endMs).
			Limit(klineLimit).
			Do(ctx)
		if err != nil {
			if isUnknownSymbol(err) {
				return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
			}
			return nil, fmt.Errorf("fetch funding %s: %w", symbol, err)
		}
		if len(rates) == 0 {
			break
		}

		for _, r := range rates {
			rate, err := strconv.ParseFloat(r.FundingRate, 64)
			if err != nil {
				continue
			}
			out = append(out, market.FundingRate{
				Time: time.UnixMilli(r.FundingTime).UTC(),
				Rate: rate,
			})
		}
		from = rates[len(rates)-1].FundingTime + 1
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	if b.cache != nil {
		if err := b.cache.Put(key, out); err != nil {
			b.log.Warn().Str("symbol", symbol).Err(err).Msg("cache write failed")
		}
	}
	return out, nil
}

func parseKline(k *futures.Kline) (market.Candle, error) {
	var c market.Candle
	var err error

	if c.Open, err = strconv.ParseFloat(k.Open, 64); err != nil {
		return c, fmt.Errorf("open %q: %w", k.Open, err)
	}
	if c.High, err = strconv.ParseFloat(k.High, 64); err != nil {
		return c, fmt.Errorf("high %q: %w", k.High, err)
	}
	if c.Low, err = strconv.ParseFloat(k.Low, 64); err != nil {
		return c, fmt.Errorf("low %q: %w", k.Low, err)
	}
	if c.Close, err = strconv.ParseFloat(k.Close, 64); err != nil {
		return c, fmt.Errorf("close %q: %w", k.Close, err)
	}
	if c.Volume, err = strconv.ParseFloat(k.Volume, 64); err != nil {
		return c, fmt.Errorf("volume %q: %w", k.Volume, err)
	}
	if c.Turnover, err = strconv.ParseFloat(k.QuoteAssetVolume, 64); err != nil {
		return c, fmt.Errorf("turnover %q: %w", k.QuoteAssetVolume, err)
	}
	c.Time = time.UnixMilli(k.OpenTime).UTC()
	return c, nil
}

// isUnknownSymbol detects the exchange's invalid-symbol responses, which we
// treat as "no data" rather than a transport failure.
func isUnknownSymbol(err error) bool {
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == -1121 || apiErr.Code == -1100
}
