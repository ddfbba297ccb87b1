// Package report renders a finished run as plain text. Rendering is the only
// job here: all numbers come ready-made from the result.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rustyeddy/backsim/btcsim"
	"github.com/rustyeddy/backsim/sim"
	"github.com/rustyeddy/backsim/stats"
)

func PrintResult(w io.Writer, r *sim.Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Symbols:       %v\n", r.Symbols)
	if !r.Start.IsZero() {
		fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Capital: %.2f\n", r.Config.StartingCapital)
	fmt.Fprintf(w, "Final Equity:  %.2f\n", r.FinalEquity)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.Stats.TotalPnL)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.Stats.ReturnPct)

	printSummary(w, r.Stats)
}

func PrintRotationResult(w io.Writer, r *btcsim.Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " BTC Rotation Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Alts:          %v\n", r.Alts)
	if !r.Start.IsZero() {
		fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "BTC Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start BTC:     %.8f\n", r.Config.StartingBTC)
	fmt.Fprintf(w, "Final BTC:     %.8f\n", r.FinalBTC)
	fmt.Fprintf(w, "Net P/L:       %.8f BTC\n", r.Stats.TotalPnL)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.Stats.ReturnPct)

	printSummary(w, r.Stats)
}

func printSummary(w io.Writer, s stats.Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", s.TotalTrades)
	fmt.Fprintf(w, "Wins:          %d\n", s.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", s.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", s.WinRate)
	fmt.Fprintf(w, "Avg Win:       %.4f\n", s.AvgWin)
	fmt.Fprintf(w, "Avg Loss:      %.4f\n", s.AvgLoss)
	fmt.Fprintf(w, "Profit Factor: %.2f\n", s.ProfitFactor)
	fmt.Fprintf(w, "Max Drawdown:  %.4f (%.2f%%)\n", s.MaxDrawdown, s.MaxDrawdownPct)
	fmt.Fprintf(w, "Sharpe:        %.2f\n", s.Sharpe)

	if len(s.Monthly) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Monthly Breakdown")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, month := range sortedKeys(s.Monthly) {
			m := s.Monthly[month]
			fmt.Fprintf(w, "%s  trades=%-3d pnl=%-12.4f win=%.1f%%\n",
				month, m.Trades, m.PnL, m.WinRate)
		}
	}

	if len(s.PerSymbol) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Per-Symbol Breakdown")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, sym := range sortedSymbols(s.PerSymbol) {
			v := s.PerSymbol[sym]
			fmt.Fprintf(w, "%-12s trades=%-3d pnl=%-12.4f win=%.1f%% pf=%.2f\n",
				sym, v.Trades, v.PnL, v.WinRate, v.ProfitFactor)
		}
	}

	fmt.Fprintln(w)
}

func sortedKeys(m map[string]stats.MonthStats) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedSymbols(m map[string]stats.SymbolStats) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
