package journal

import (
	"database/sql"
	"fmt"
)

const runColumns = `run_id, created, kind, strategy, symbols, config, start_time, end_time,
	starting_capital, final_equity, total_pnl, return_pct,
	trades, wins, losses, win_rate, profit_factor,
	max_drawdown, max_drawdown_pct, sharpe`

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	row := j.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)

	rec, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns every persisted run, most recent first.
func (j *SQLite) ListRuns() ([]RunRecord, error) {
	rows, err := j.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY created DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListTrades returns a run's trades ordered by exit time.
func (j *SQLite) ListTrades(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, trade_id, symbol, side, entry, exit, size, pnl, commission, entry_time, exit_time, reason
		FROM run_trades
		WHERE run_id = ?
		ORDER BY exit_time ASC, trade_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		err := rows.Scan(
			&t.RunID, &t.TradeID, &t.Symbol, &t.Side, &t.Entry, &t.Exit,
			&t.Size, &t.PnL, &t.Commission, &t.EntryTime, &t.ExitTime, &t.Reason,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListEquity returns a run's equity curve in time order.
func (j *SQLite) ListEquity(runID string) ([]EquityRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, time, equity FROM run_equity
		WHERE run_id = ? ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var p EquityRecord
		if err := rows.Scan(&p.RunID, &p.Time, &p.Equity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var rec RunRecord
	err := s.Scan(
		&rec.RunID, &rec.Created, &rec.Kind, &rec.Strategy, &rec.Symbols, &rec.Config,
		&rec.Start, &rec.End,
		&rec.StartingCapital, &rec.FinalEquity, &rec.TotalPnL, &rec.ReturnPct,
		&rec.Trades, &rec.Wins, &rec.Losses, &rec.WinRate, &rec.ProfitFactor,
		&rec.MaxDrawdown, &rec.MaxDrawdownPct, &rec.Sharpe,
	)
	return rec, err
}
