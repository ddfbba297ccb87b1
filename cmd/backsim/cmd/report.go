package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backsim/journal"
)

var csvOut string

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Show persisted runs, or one run in detail",
	Long: `Without arguments, report lists every persisted run. With a run ID it
prints that run's summary and trades, and can export the trades as CSV.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return err
		}
		defer j.Close()

		if len(args) == 0 {
			return listRuns(j)
		}
		return showRun(j, args[0])
	},
}

func listRuns(j *journal.SQLite) error {
	runs, err := j.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-26s  %-8s  %-12s  %-19s  %8s  %10s\n",
		"RUN ID", "KIND", "STRATEGY", "CREATED", "TRADES", "RETURN %")
	for _, r := range runs {
		fmt.Printf("%-26s  %-8s  %-12s  %-19s  %8d  %10.2f\n",
			r.RunID, r.Kind, r.Strategy,
			r.Created.Format("2006-01-02 15:04:05"),
			r.Trades, r.ReturnPct)
	}
	return nil
}

func showRun(j *journal.SQLite, runID string) error {
	run, err := j.GetRun(runID)
	if err != nil {
		return err
	}

	fmt.Printf("Run:          %s (%s)\n", run.RunID, run.Kind)
	fmt.Printf("Strategy:     %s\n", run.Strategy)
	fmt.Printf("Symbols:      %s\n", run.Symbols)
	fmt.Printf("Period:       %s to %s\n",
		run.Start.Format("2006-01-02"), run.End.Format("2006-01-02"))
	fmt.Printf("Capital:      %.4f -> %.4f (%.2f%%)\n",
		run.StartingCapital, run.FinalEquity, run.ReturnPct)
	fmt.Printf("Trades:       %d (%d wins, %d losses, %.1f%% win rate)\n",
		run.Trades, run.Wins, run.Losses, run.WinRate)
	fmt.Printf("ProfitFactor: %.2f\n", run.ProfitFactor)
	fmt.Printf("MaxDrawdown:  %.4f (%.2f%%)\n", run.MaxDrawdown, run.MaxDrawdownPct)
	fmt.Printf("Sharpe:       %.2f\n", run.Sharpe)

	if csvOut != "" {
		f, err := os.Create(csvOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := j.ExportTradesCSV(f, runID); err != nil {
			return err
		}
		fmt.Printf("Trades exported to %s\n", csvOut)
		return nil
	}

	trades, err := j.ListTrades(runID)
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		return nil
	}

	fmt.Printf("\n%-4s  %-10s  %-5s  %12s  %12s  %12s  %-19s  %s\n",
		"ID", "SYMBOL", "SIDE", "ENTRY", "EXIT", "PNL", "EXIT TIME", "REASON")
	for _, t := range trades {
		fmt.Printf("%-4d  %-10s  %-5s  %12.6f  %12.6f  %12.6f  %-19s  %s\n",
			t.TradeID, t.Symbol, t.Side, t.Entry, t.Exit, t.PnL,
			t.ExitTime.Format(time.DateTime), t.Reason)
	}
	return nil
}

func init() {
	reportCmd.Flags().StringVar(&csvOut, "csv", "", "export trades to a CSV file")
	rootCmd.AddCommand(reportCmd)
}
