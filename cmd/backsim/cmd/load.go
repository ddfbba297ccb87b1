package cmd

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rustyeddy/backsim/config"
	"github.com/rustyeddy/backsim/data"
	"github.com/rustyeddy/backsim/indicators"
	"github.com/rustyeddy/backsim/market"
)

// newProvider builds the Binance provider for the configured history window.
func newProvider(cfg *config.Config) (*data.Binance, error) {
	cache, err := data.NewCache(cfg.Data.CacheDir)
	if err != nil {
		return nil, err
	}

	end := time.Now().UTC().Truncate(time.Hour)
	start := end.AddDate(0, 0, -cfg.Run.Days)

	return data.NewBinance(
		os.Getenv("BINANCE_API_KEY"),
		os.Getenv("BINANCE_SECRET_KEY"),
		cache, start, end, logger,
	), nil
}

// loadEnriched fetches and enriches candles per symbol. Symbols with no data
// are skipped with a warning, never an error.
func loadEnriched(ctx context.Context, p data.Provider, symbols []string, interval string) (map[string][]market.Candle, error) {
	out := make(map[string][]market.Candle, len(symbols))
	for _, sym := range symbols {
		candles, err := p.Candles(ctx, sym, interval)
		if err != nil {
			if errors.Is(err, data.ErrNoData) {
				logger.Warn().Str("symbol", sym).Msg("no candles available, skipping")
				continue
			}
			return nil, err
		}
		out[sym] = indicators.Enrich(candles)
	}
	return out, nil
}

// loadRaw fetches candles without indicator enrichment, for series that get
// transformed before enrichment.
func loadRaw(ctx context.Context, p data.Provider, symbols []string, interval string) (map[string][]market.Candle, error) {
	out := make(map[string][]market.Candle, len(symbols))
	for _, sym := range symbols {
		candles, err := p.Candles(ctx, sym, interval)
		if err != nil {
			if errors.Is(err, data.ErrNoData) {
				logger.Warn().Str("symbol", sym).Msg("no candles available, skipping")
				continue
			}
			return nil, err
		}
		out[sym] = candles
	}
	return out, nil
}

// loadFunding fills a funding book for every symbol that has history.
func loadFunding(ctx context.Context, p data.Provider, symbols []string) *market.FundingBook {
	book := market.NewFundingBook()
	for _, sym := range symbols {
		rates, err := p.FundingRates(ctx, sym)
		if err != nil {
			if !errors.Is(err, data.ErrNoData) {
				logger.Warn().Str("symbol", sym).Err(err).Msg("funding fetch failed")
			}
			continue
		}
		book.Add(sym, rates)
	}
	return book
}
