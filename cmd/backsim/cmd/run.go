package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backsim/journal"
	"github.com/rustyeddy/backsim/market"
	"github.com/rustyeddy/backsim/report"
	"github.com/rustyeddy/backsim/sim"
	"github.com/rustyeddy/backsim/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a USD-margined futures backtest",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		strat, err := strategies.ByName(cfg.Run.Strategy)
		if err != nil {
			return err
		}

		provider, err := newProvider(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		series, err := loadEnriched(ctx, provider, cfg.Run.Symbols, cfg.Run.Interval)
		if err != nil {
			return err
		}

		aux := make(map[string]map[string][]market.Candle)
		for _, tf := range strat.AuxTimeframes() {
			auxSeries, err := loadEnriched(ctx, provider, cfg.Run.Symbols, tf)
			if err != nil {
				return err
			}
			for sym, cs := range auxSeries {
				if aux[sym] == nil {
					aux[sym] = make(map[string][]market.Candle)
				}
				aux[sym][tf] = cs
			}
		}

		funding := loadFunding(ctx, provider, cfg.Run.Symbols)

		engine := sim.New(cfg.SimConfig(), strat, logger)
		result, err := engine.Run(cfg.Run.Symbols, series, aux, funding)
		if err != nil {
			return err
		}

		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return err
		}
		defer j.Close()

		runID, err := j.SaveFutures(result)
		if err != nil {
			return err
		}

		report.PrintResult(os.Stdout, result)
		fmt.Printf("Run ID: %s\n", runID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
