// Package stats derives aggregate performance metrics from a closed-trade
// list and an equity curve. It is shared by the USD futures engine and the
// BTC rotation engine: both reduce their trades to TradePoints and their
// sampled equity to EquityPoints, with "base" being starting capital in the
// respective accounting unit.
package stats

import (
	"math"
	"time"
)

// TradePoint is the slice of a closed trade the calculator needs.
type TradePoint struct {
	Symbol   string
	PnL      float64
	ExitTime time.Time
}

// EquityPoint is one sample of total account value.
type EquityPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// MonthStats is the breakdown for one UTC year-month of trade exits.
type MonthStats struct {
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	PnL     float64 `json:"pnl"`
	WinRate float64 `json:"winRate"`
}

// SymbolStats is the breakdown for one traded symbol.
type SymbolStats struct {
	Trades       int     `json:"trades"`
	Wins         int     `json:"wins"`
	PnL          float64 `json:"pnl"`
	WinRate      float64 `json:"winRate"`
	ProfitFactor float64 `json:"profitFactor"`
}

// Summary holds every derived metric. Percentage figures are relative to the
// starting capital passed to Compute. ProfitFactor is +Inf when there are
// wins and no losses.
type Summary struct {
	TotalTrades int     `json:"totalTrades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"winRate"`

	TotalPnL     float64 `json:"totalPnl"`
	TotalWin     float64 `json:"totalWin"`
	TotalLoss    float64 `json:"totalLoss"`
	AvgWin       float64 `json:"avgWin"`
	AvgLoss      float64 `json:"avgLoss"`
	ProfitFactor float64 `json:"profitFactor"`

	MaxDrawdown    float64 `json:"maxDrawdown"`
	MaxDrawdownPct float64 `json:"maxDrawdownPct"`
	Sharpe         float64 `json:"sharpe"`
	ReturnPct      float64 `json:"returnPct"`

	Monthly   map[string]MonthStats  `json:"monthly"`
	PerSymbol map[string]SymbolStats `json:"perSymbol"`
}

// Compute runs every derivation in one pass over the inputs. It never fails:
// zero trades or a flat curve produce a zeroed Summary.
func Compute(trades []TradePoint, equity []EquityPoint, base float64) Summary {
	s := Summary{
		Monthly:   make(map[string]MonthStats),
		PerSymbol: make(map[string]SymbolStats),
	}

	for _, t := range trades {
		s.TotalTrades++
		s.TotalPnL += t.PnL
		if t.PnL > 0 {
			s.Wins++
			s.TotalWin += t.PnL
		} else {
			s.Losses++
			s.TotalLoss += t.PnL
		}

		month := t.ExitTime.UTC().Format("2006-01")
		m := s.Monthly[month]
		m.Trades++
		m.PnL += t.PnL
		if t.PnL > 0 {
			m.Wins++
		}
		s.Monthly[month] = m

		sym := s.PerSymbol[t.Symbol]
		sym.Trades++
		sym.PnL += t.PnL
		if t.PnL > 0 {
			sym.Wins++
		}
		s.PerSymbol[t.Symbol] = sym
	}

	if s.TotalTrades > 0 {
		s.WinRate = 100 * float64(s.Wins) / float64(s.TotalTrades)
	}
	if s.Wins > 0 {
		s.AvgWin = s.TotalWin / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = s.TotalLoss / float64(s.Losses)
	}
	s.ProfitFactor = profitFactor(s.TotalWin, s.TotalLoss)

	for month, m := range s.Monthly {
		if m.Trades > 0 {
			m.WinRate = 100 * float64(m.Wins) / float64(m.Trades)
		}
		s.Monthly[month] = m
	}
	for name := range s.PerSymbol {
		sym := s.PerSymbol[name]
		if sym.Trades > 0 {
			sym.WinRate = 100 * float64(sym.Wins) / float64(sym.Trades)
		}
		var win, loss float64
		for _, t := range trades {
			if t.Symbol != name {
				continue
			}
			if t.PnL > 0 {
				win += t.PnL
			} else {
				loss += t.PnL
			}
		}
		sym.ProfitFactor = profitFactor(win, loss)
		s.PerSymbol[name] = sym
	}

	s.MaxDrawdown, s.MaxDrawdownPct = MaxDrawdown(equity)
	s.Sharpe = SharpeRatio(equity)
	if base != 0 {
		s.ReturnPct = 100 * s.TotalPnL / base
	}
	return s
}

func profitFactor(totalWin, totalLoss float64) float64 {
	if totalLoss == 0 {
		if totalWin == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return totalWin / math.Abs(totalLoss)
}

// MaxDrawdown walks the equity curve with a rising peak and returns the
// deepest peak-to-trough fall in absolute terms and as a percentage of the
// peak at the time.
func MaxDrawdown(equity []EquityPoint) (abs, pct float64) {
	var peak float64
	for i, p := range equity {
		if i == 0 || p.Value > peak {
			peak = p.Value
		}
		dd := peak - p.Value
		if dd > abs {
			abs = dd
			if peak > 0 {
				pct = 100 * dd / peak
			}
		}
	}
	return abs, pct
}

// SharpeRatio computes an annualized Sharpe from one return per UTC calendar
// day, taken between the last equity sample of consecutive days. Sample
// standard deviation (n-1). Returns 0 with fewer than two valid daily
// returns or zero variance.
func SharpeRatio(equity []EquityPoint) float64 {
	if len(equity) < 2 {
		return 0
	}

	// Last sample of each day, in curve order.
	var days []float64
	lastDay := ""
	for _, p := range equity {
		day := p.Time.UTC().Format("2006-01-02")
		if day == lastDay {
			days[len(days)-1] = p.Value
		} else {
			days = append(days, p.Value)
			lastDay = day
		}
	}

	var returns []float64
	for i := 1; i < len(days); i++ {
		if days[i-1] == 0 {
			continue
		}
		returns = append(returns, (days[i]-days[i-1])/days[i-1])
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	if variance == 0 {
		return 0
	}

	return mean / math.Sqrt(variance) * math.Sqrt(365)
}
