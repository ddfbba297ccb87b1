package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/backsim/btcsim"
	"github.com/rustyeddy/backsim/internal/id"
	"github.com/rustyeddy/backsim/sim"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// SaveFutures persists a finished futures run and returns its run ID.
func (j *SQLite) SaveFutures(r *sim.Result) (string, error) {
	cfg, err := json.Marshal(r.Config)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	trades := make([]TradeRecord, len(r.Trades))
	for i, t := range r.Trades {
		trades[i] = TradeRecord{
			TradeID:    t.ID,
			Symbol:     t.Symbol,
			Side:       t.Side.String(),
			Entry:      t.Entry,
			Exit:       t.Exit,
			Size:       t.Size,
			PnL:        t.PnL,
			Commission: t.Commission,
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			Reason:     t.Reason,
		}
	}

	equity := make([]EquityRecord, len(r.EquityCurve))
	for i, p := range r.EquityCurve {
		equity[i] = EquityRecord{Time: p.Time, Equity: p.Value}
	}

	rec := RunRecord{
		Kind:            "futures",
		Strategy:        r.Strategy,
		Symbols:         strings.Join(r.Symbols, ","),
		Config:          string(cfg),
		Start:           r.Start,
		End:             r.End,
		StartingCapital: r.Config.StartingCapital,
		FinalEquity:     r.FinalEquity,
		TotalPnL:        r.Stats.TotalPnL,
		ReturnPct:       r.Stats.ReturnPct,
		Trades:          r.Stats.TotalTrades,
		Wins:            r.Stats.Wins,
		Losses:          r.Stats.Losses,
		WinRate:         r.Stats.WinRate,
		ProfitFactor:    r.Stats.ProfitFactor,
		MaxDrawdown:     r.Stats.MaxDrawdown,
		MaxDrawdownPct:  r.Stats.MaxDrawdownPct,
		Sharpe:          r.Stats.Sharpe,
	}
	return j.saveRun(rec, trades, equity)
}

// SaveRotation persists a finished rotation run and returns its run ID.
func (j *SQLite) SaveRotation(r *btcsim.Result) (string, error) {
	cfg, err := json.Marshal(r.Config)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	trades := make([]TradeRecord, len(r.Trades))
	for i, t := range r.Trades {
		trades[i] = TradeRecord{
			TradeID:    t.ID,
			Symbol:     t.Alt,
			Side:       "long",
			Entry:      t.EntryRatio,
			Exit:       t.ExitRatio,
			Size:       t.Allocated,
			PnL:        t.PnL,
			Commission: t.Commission,
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			Reason:     t.Reason,
		}
	}

	equity := make([]EquityRecord, len(r.EquityCurve))
	for i, p := range r.EquityCurve {
		equity[i] = EquityRecord{Time: p.Time, Equity: p.Value}
	}

	rec := RunRecord{
		Kind:            "rotation",
		Strategy:        r.Strategy,
		Symbols:         strings.Join(r.Alts, ","),
		Config:          string(cfg),
		Start:           r.Start,
		End:             r.End,
		StartingCapital: r.Config.StartingBTC,
		FinalEquity:     r.FinalBTC,
		TotalPnL:        r.Stats.TotalPnL,
		ReturnPct:       r.Stats.ReturnPct,
		Trades:          r.Stats.TotalTrades,
		Wins:            r.Stats.Wins,
		Losses:          r.Stats.Losses,
		WinRate:         r.Stats.WinRate,
		ProfitFactor:    r.Stats.ProfitFactor,
		MaxDrawdown:     r.Stats.MaxDrawdown,
		MaxDrawdownPct:  r.Stats.MaxDrawdownPct,
		Sharpe:          r.Stats.Sharpe,
	}
	return j.saveRun(rec, trades, equity)
}

func (j *SQLite) saveRun(rec RunRecord, trades []TradeRecord, equity []EquityRecord) (string, error) {
	rec.RunID = id.New()
	rec.Created = time.Now().UTC()

	tx, err := j.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs
		(run_id, created, kind, strategy, symbols, config, start_time, end_time,
		 starting_capital, final_equity, total_pnl, return_pct,
		 trades, wins, losses, win_rate, profit_factor,
		 max_drawdown, max_drawdown_pct, sharpe)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Created, rec.Kind, rec.Strategy, rec.Symbols, rec.Config,
		rec.Start, rec.End,
		rec.StartingCapital, rec.FinalEquity, rec.TotalPnL, rec.ReturnPct,
		rec.Trades, rec.Wins, rec.Losses, rec.WinRate, rec.ProfitFactor,
		rec.MaxDrawdown, rec.MaxDrawdownPct, rec.Sharpe,
	)
	if err != nil {
		return "", err
	}

	for _, t := range trades {
		_, err = tx.Exec(`
			INSERT INTO run_trades
			(run_id, trade_id, symbol, side, entry, exit, size, pnl, commission, entry_time, exit_time, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID, t.TradeID, t.Symbol, t.Side, t.Entry, t.Exit,
			t.Size, t.PnL, t.Commission, t.EntryTime, t.ExitTime, t.Reason,
		)
		if err != nil {
			return "", err
		}
	}

	for _, p := range equity {
		_, err = tx.Exec(`
			INSERT INTO run_equity (run_id, time, equity) VALUES (?, ?, ?)`,
			rec.RunID, p.Time, p.Equity,
		)
		if err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return rec.RunID, nil
}
