package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backsim/btcsim"
	"github.com/rustyeddy/backsim/indicators"
	"github.com/rustyeddy/backsim/journal"
	"github.com/rustyeddy/backsim/market"
	"github.com/rustyeddy/backsim/report"
	"github.com/rustyeddy/backsim/strategies"
)

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Run a BTC-denominated alt rotation backtest",
	Long: `Rotate replays alt/BTC ratio candles through the rotation engine.
Each alt's USD candles are divided by the BTC candles at matching
timestamps, enriched with indicators, and fed to the rotation strategy.
Equity is tracked in BTC throughout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(cfg.Rotation.Alts) == 0 {
			return fmt.Errorf("rotation.alts is empty")
		}
		strat, err := strategies.RotationByName(cfg.Rotation.Strategy)
		if err != nil {
			return err
		}

		provider, err := newProvider(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		btcSeries, err := loadRaw(ctx, provider, []string{cfg.Rotation.BTCSymbol}, cfg.Rotation.Interval)
		if err != nil {
			return err
		}
		btc, ok := btcSeries[cfg.Rotation.BTCSymbol]
		if !ok {
			return fmt.Errorf("no candles for %s", cfg.Rotation.BTCSymbol)
		}

		altSeries, err := loadRaw(ctx, provider, cfg.Rotation.Alts, cfg.Rotation.Interval)
		if err != nil {
			return err
		}

		ratios := make(map[string][]market.Candle, len(altSeries))
		for sym, cs := range altSeries {
			ratio := market.BuildRatio(cs, btc)
			if len(ratio) == 0 {
				logger.Warn().Str("symbol", sym).Msg("no overlapping BTC candles, skipping")
				continue
			}
			ratios[sym] = indicators.Enrich(ratio)
		}

		bc := cfg.BtcConfig().WithDefaults()
		dom := btcsim.NewAvgRatioTrend(ratios, bc.DominanceLookback, bc.DominanceThreshold)

		engine := btcsim.New(bc, strat, logger)
		result, err := engine.Run(cfg.Rotation.Alts, ratios, dom)
		if err != nil {
			return err
		}

		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return err
		}
		defer j.Close()

		runID, err := j.SaveRotation(result)
		if err != nil {
			return err
		}

		report.PrintRotationResult(os.Stdout, result)
		fmt.Printf("Run ID: %s\n", runID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rotateCmd)
}
