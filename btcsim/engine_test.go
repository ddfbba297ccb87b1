package btcsim

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/backsim/market"
	"github.com/rustyeddy/backsim/strategies"
)

// rotScript is a rotation strategy whose behavior is supplied per test.
type rotScript struct {
	warmup int
	enter  func(*strategies.Context) strategies.AllocationSignal
	exit   func(*strategies.Context, strategies.HoldingView) strategies.SellSignal
}

func (s *rotScript) Name() string { return "rot-script" }

func (s *rotScript) Warmup() int {
	if s.warmup == 0 {
		return 1
	}
	return s.warmup
}

func (s *rotScript) Enter(ctx *strategies.Context) strategies.AllocationSignal {
	if s.enter == nil {
		return strategies.AllocationSignal{}
	}
	return s.enter(ctx)
}

func (s *rotScript) Exit(ctx *strategies.Context, h strategies.HoldingView) strategies.SellSignal {
	if s.exit == nil {
		return strategies.SellSignal{}
	}
	return s.exit(ctx, h)
}

// enterOnFirst allocates the fraction on the first candle only.
func enterOnFirst(fraction float64) *rotScript {
	return &rotScript{
		enter: func(ctx *strategies.Context) strategies.AllocationSignal {
			if ctx.Index != 0 {
				return strategies.AllocationSignal{}
			}
			return strategies.AllocationSignal{Enter: true, Fraction: fraction}
		},
	}
}

var rotStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func rc(i int, close float64) market.Candle {
	return market.Candle{
		Time:  rotStart.Add(time.Duration(i) * 4 * time.Hour),
		Open:  close,
		High:  close,
		Low:   close,
		Close: close,
	}
}

func spotConfig() Config {
	return Config{
		StartingBTC: 1,
		Leverage:    1,
		EquityEvery: 1,
	}
}

func runRotation(t *testing.T, cfg Config, strat strategies.RotationStrategy, candles []market.Candle, dom DominanceSignal) *Result {
	t.Helper()
	e := New(cfg, strat, zerolog.Nop())
	res, err := e.Run([]string{"ETH"}, map[string][]market.Candle{"ETH": candles}, dom)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res
}

func TestRotationTakeProfitLadder(t *testing.T) {
	candles := []market.Candle{
		rc(0, 1.0),  // entry, 1% of 1 BTC allocated
		rc(1, 1.30), // +30%: TP1, half realized
		rc(2, 1.50), // +50%: TP2, rest closed
	}

	res := runRotation(t, spotConfig(), enterOnFirst(0.01), candles, nil)

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Reason != ReasonTP2 {
		t.Fatalf("reason: %q", tr.Reason)
	}
	if math.Abs(tr.Allocated-0.01) > 1e-12 {
		t.Fatalf("allocated: got %v, want 0.01", tr.Allocated)
	}
	if len(tr.Partials) != 1 || math.Abs(tr.Partials[0].Size-0.005) > 1e-12 {
		t.Fatalf("partials: %+v", tr.Partials)
	}
	// Half at +30% earns 0.0015, the rest at +50% earns 0.0025.
	if math.Abs(tr.PnL-0.004) > 1e-12 {
		t.Fatalf("pnl: got %v, want 0.004", tr.PnL)
	}
	if math.Abs(res.FinalBTC-1.004) > 1e-12 {
		t.Fatalf("final BTC: got %v, want 1.004", res.FinalBTC)
	}
}

func TestRotationStopLoss(t *testing.T) {
	candles := []market.Candle{
		rc(0, 1.0),
		rc(1, 0.84), // -16%, through the 15% spot stop
	}

	res := runRotation(t, spotConfig(), enterOnFirst(0.01), candles, nil)

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Reason != ReasonStop {
		t.Fatalf("reason: %q", tr.Reason)
	}
	if math.Abs(tr.PnL-(-0.0016)) > 1e-12 {
		t.Fatalf("pnl: got %v, want -0.0016", tr.PnL)
	}
}

func TestRotationDominanceExit(t *testing.T) {
	candles := []market.Candle{
		rc(0, 1.0),
		rc(1, 1.05),
	}

	res := runRotation(t, spotConfig(), enterOnFirst(0.01), candles, alwaysRising{})

	if len(res.Trades) != 1 || res.Trades[0].Reason != ReasonDominance {
		t.Fatalf("dominance exit missing: %+v", res.Trades)
	}
}

type alwaysRising struct{}

func (alwaysRising) Rising(time.Time) bool { return true }

func TestRotationMaxHold(t *testing.T) {
	// Flat ratio, daily candles: nothing but the clock can close it.
	candles := make([]market.Candle, 23)
	for i := range candles {
		candles[i] = market.Candle{
			Time:  rotStart.AddDate(0, 0, i),
			Open:  1, High: 1, Low: 1, Close: 1,
		}
	}

	res := runRotation(t, spotConfig(), enterOnFirst(0.01), candles, nil)

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Reason != ReasonMaxHold {
		t.Fatalf("reason: %q", tr.Reason)
	}
	if got := tr.ExitTime.Sub(tr.EntryTime); got != 21*24*time.Hour {
		t.Fatalf("held %v, want exactly 21 days", got)
	}
}

func TestRotationStrategyExitFraction(t *testing.T) {
	strat := enterOnFirst(0.01)
	strat.exit = func(ctx *strategies.Context, h strategies.HoldingView) strategies.SellSignal {
		if ctx.Index == 1 {
			return strategies.SellSignal{Exit: true, Fraction: 0.25, Reason: "rebalance"}
		}
		return strategies.SellSignal{}
	}

	candles := []market.Candle{rc(0, 1.0), rc(1, 1.1), rc(2, 1.1)}

	res := runRotation(t, spotConfig(), strat, candles, nil)

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Reason != ReasonEndOfData {
		t.Fatalf("reason: %q", tr.Reason)
	}
	if len(tr.Partials) != 1 || tr.Partials[0].Reason != "rebalance" {
		t.Fatalf("partials: %+v", tr.Partials)
	}
	if math.Abs(tr.Partials[0].Size-0.0025) > 1e-12 {
		t.Fatalf("partial size: got %v, want 0.0025", tr.Partials[0].Size)
	}
}

func TestRotationEndOfDataClose(t *testing.T) {
	candles := []market.Candle{rc(0, 1.0), rc(1, 1.05)}

	res := runRotation(t, spotConfig(), enterOnFirst(0.01), candles, nil)

	if len(res.Trades) != 1 || res.Trades[0].Reason != ReasonEndOfData {
		t.Fatalf("end close missing: %+v", res.Trades)
	}
	if math.Abs(res.Trades[0].PnL-0.0005) > 1e-12 {
		t.Fatalf("pnl: got %v, want 0.0005", res.Trades[0].PnL)
	}
}

func TestRotationMinAllocationFloor(t *testing.T) {
	res := runRotation(t, spotConfig(), enterOnFirst(0.0001), []market.Candle{rc(0, 1.0), rc(1, 1.5)}, nil)
	if len(res.Trades) != 0 {
		t.Fatalf("dust allocation accepted: %+v", res.Trades)
	}
}

func TestRotationCommissionScalesWithLeverage(t *testing.T) {
	cfg := spotConfig()
	cfg.Leverage = 3
	cfg.CommissionRate = 0.001

	candles := []market.Candle{rc(0, 1.0), rc(1, 1.0)}

	res := runRotation(t, cfg, enterOnFirst(0.01), candles, nil)

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	// Both legs pay commission * leverage on the allocation.
	want := tr.Allocated * 0.001 * 3 * 2
	if math.Abs(tr.Commission-want) > 1e-12 {
		t.Fatalf("commission: got %v, want %v", tr.Commission, want)
	}
}

func TestRotationPoolReconciles(t *testing.T) {
	cfg := spotConfig()
	cfg.CommissionRate = 0.001

	candles := []market.Candle{
		rc(0, 1.0),
		rc(1, 1.30),
		rc(2, 1.20),
		rc(3, 1.50),
	}

	res := runRotation(t, cfg, enterOnFirst(0.05), candles, nil)

	var sum float64
	for _, tr := range res.Trades {
		sum += tr.PnL
	}
	if math.Abs(res.FinalBTC-(cfg.StartingBTC+sum)) > 1e-12 {
		t.Fatalf("pool does not reconcile: final %v vs start+pnl %v",
			res.FinalBTC, cfg.StartingBTC+sum)
	}
}

func TestRotationIdempotent(t *testing.T) {
	candles := []market.Candle{rc(0, 1.0), rc(1, 1.30), rc(2, 1.10), rc(3, 1.50)}

	a := runRotation(t, spotConfig(), enterOnFirst(0.02), candles, nil)
	b := runRotation(t, spotConfig(), enterOnFirst(0.02), candles, nil)

	if !reflect.DeepEqual(a, b) {
		t.Fatal("two runs over identical input differ")
	}
}

func TestRotationNoData(t *testing.T) {
	e := New(spotConfig(), &rotScript{}, zerolog.Nop())
	res, err := e.Run([]string{"ETH"}, nil, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.FinalBTC != 1 || len(res.Trades) != 0 {
		t.Fatalf("empty run not zeroed: %+v", res)
	}
}

func TestLeveragedValueFloorsAtZero(t *testing.T) {
	p := &Position{EntryRatio: 1, Leverage: 3}

	// -50% at 3x would be -150%: wiped out, never negative.
	if v := p.valueAt(0.01, 0.5); v != 0 {
		t.Fatalf("leveraged wipeout: got %v, want 0", v)
	}
	// +10% at 3x is +30%.
	if v := p.valueAt(0.01, 1.1); math.Abs(v-0.013) > 1e-12 {
		t.Fatalf("leveraged gain: got %v, want 0.013", v)
	}
	// Spot has no floor path: -50% halves the value.
	p.Leverage = 1
	if v := p.valueAt(0.01, 0.5); math.Abs(v-0.005) > 1e-12 {
		t.Fatalf("spot loss: got %v, want 0.005", v)
	}
}
