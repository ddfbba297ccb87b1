// Package data acquires historical market data. It is a collaborator of the
// simulation engines, never a dependency of their inner loop: engines
// receive plain candle slices and never see where they came from.
package data

import (
	"context"
	"errors"

	"github.com/rustyeddy/backsim/market"
)

// ErrNoData marks a symbol with no history available. Callers skip the
// symbol with a warning; it is never fatal to a run.
var ErrNoData = errors.New("no data for symbol")

// Provider supplies historical candles and funding history.
type Provider interface {
	Candles(ctx context.Context, symbol, interval string) ([]market.Candle, error)
	FundingRates(ctx context.Context, symbol string) ([]market.FundingRate, error)
}
