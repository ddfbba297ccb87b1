package journal

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// ExportTradesCSV writes a run's trades to w in CSV form.
func (j *SQLite) ExportTradesCSV(w io.Writer, runID string) error {
	trades, err := j.ListTrades(runID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"trade_id", "symbol", "side", "entry", "exit", "size",
		"pnl", "commission", "entry_time", "exit_time", "reason",
	}); err != nil {
		return err
	}

	for _, t := range trades {
		err := cw.Write([]string{
			strconv.Itoa(t.TradeID),
			t.Symbol,
			t.Side,
			f(t.Entry),
			f(t.Exit),
			f(t.Size),
			f(t.PnL),
			f(t.Commission),
			t.EntryTime.Format(time.RFC3339),
			t.ExitTime.Format(time.RFC3339),
			t.Reason,
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 8, 64)
}
