package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backsim/data"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and cache historical data for the configured symbols",
	Long: `Fetch warms the local cache with candles and funding rates for every
configured symbol, so later runs replay without touching the network.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		provider, err := newProvider(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		for _, sym := range cfg.Run.Symbols {
			if _, err := provider.Candles(ctx, sym, cfg.Run.Interval); err != nil {
				if errors.Is(err, data.ErrNoData) {
					logger.Warn().Str("symbol", sym).Msg("no candles available")
					continue
				}
				return err
			}
			logger.Info().Str("symbol", sym).Str("interval", cfg.Run.Interval).Msg("candles cached")

			if _, err := provider.FundingRates(ctx, sym); err != nil {
				if !errors.Is(err, data.ErrNoData) {
					return err
				}
				continue
			}
			logger.Info().Str("symbol", sym).Msg("funding cached")
		}

		if len(cfg.Rotation.Alts) > 0 {
			symbols := append([]string{cfg.Rotation.BTCSymbol}, cfg.Rotation.Alts...)
			for _, sym := range symbols {
				if _, err := provider.Candles(ctx, sym, cfg.Rotation.Interval); err != nil {
					if errors.Is(err, data.ErrNoData) {
						logger.Warn().Str("symbol", sym).Msg("no candles available")
						continue
					}
					return err
				}
				logger.Info().Str("symbol", sym).Str("interval", cfg.Rotation.Interval).Msg("candles cached")
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
