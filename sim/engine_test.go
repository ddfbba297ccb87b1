package sim

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/backsim/market"
	"github.com/rustyeddy/backsim/strategies"
)

// script is a strategy whose behavior is supplied per test.
type script struct {
	name   string
	warmup int
	long   func(*strategies.Context) strategies.EntrySignal
	short  func(*strategies.Context) strategies.EntrySignal
	exit   func(*strategies.Context, strategies.PositionView) strategies.ExitSignal
}

func (s *script) Name() string {
	if s.name == "" {
		return "script"
	}
	return s.name
}

func (s *script) Warmup() int {
	if s.warmup == 0 {
		return 1
	}
	return s.warmup
}

func (s *script) AuxTimeframes() []string { return nil }

func (s *script) Long(ctx *strategies.Context) strategies.EntrySignal {
	if s.long == nil {
		return strategies.EntrySignal{}
	}
	return s.long(ctx)
}

func (s *script) Short(ctx *strategies.Context) strategies.EntrySignal {
	if s.short == nil {
		return strategies.EntrySignal{}
	}
	return s.short(ctx)
}

func (s *script) Exit(ctx *strategies.Context, pos strategies.PositionView) strategies.ExitSignal {
	if s.exit == nil {
		return strategies.ExitSignal{}
	}
	return s.exit(ctx, pos)
}

var testStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func hc(i int, o, h, l, c float64) market.Candle {
	return market.Candle{
		Time:  testStart.Add(time.Duration(i) * time.Hour),
		Open:  o,
		High:  h,
		Low:   l,
		Close: c,
	}
}

// longOnFirst enters long on the very first candle with fixed levels, then
// stays quiet.
func longOnFirst(stop, take, take2 float64) *script {
	return &script{
		long: func(ctx *strategies.Context) strategies.EntrySignal {
			if ctx.Index != 0 {
				return strategies.EntrySignal{}
			}
			return strategies.EntrySignal{Enter: true, Stop: stop, Take: take, Take2: take2}
		},
	}
}

func testConfig() Config {
	return Config{
		StartingCapital: 10000,
		RiskPerTrade:    0.01,
		Leverage:        3,
		MaxPositions:    3,
		EquityEvery:     1,
	}
}

func runOne(t *testing.T, cfg Config, strat strategies.Strategy, candles []market.Candle) *Result {
	t.Helper()
	e := New(cfg, strat, zerolog.Nop())
	res, err := e.Run([]string{"AAA"}, map[string][]market.Candle{"AAA": candles}, nil, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res
}

func TestRunLongTakeProfitFullClose(t *testing.T) {
	candles := []market.Candle{
		hc(0, 100, 100.5, 99.5, 100),
		hc(1, 100, 111, 100, 108),
	}

	res := runOne(t, testConfig(), longOnFirst(95, 110, 0), candles)

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]

	// Risk sizing: 1% of 10000 over a 5% stop distance is 2000 notional.
	if tr.Size != 2000 {
		t.Fatalf("size: got %v, want 2000", tr.Size)
	}
	if tr.Entry != 100 || tr.Exit != 110 {
		t.Fatalf("prices: %v -> %v", tr.Entry, tr.Exit)
	}
	if tr.Reason != ReasonTP1Full {
		t.Fatalf("reason: %q", tr.Reason)
	}
	if tr.PnL != 200 {
		t.Fatalf("pnl: got %v, want 200", tr.PnL)
	}
	if res.FinalEquity != 10200 {
		t.Fatalf("final equity: got %v, want 10200", res.FinalEquity)
	}
	if tr.ID != 1 {
		t.Fatalf("trade ID: got %d, want 1", tr.ID)
	}
}

func TestRunShortStopLoss(t *testing.T) {
	strat := &script{
		short: func(ctx *strategies.Context) strategies.EntrySignal {
			if ctx.Index != 0 {
				return strategies.EntrySignal{}
			}
			return strategies.EntrySignal{Enter: true, Stop: 105, Take: 90}
		},
	}
	candles := []market.Candle{
		hc(0, 100, 100.5, 99.5, 100),
		hc(1, 100, 106, 99, 104),
	}

	res := runOne(t, testConfig(), strat, candles)

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Side != market.Short {
		t.Fatalf("side: %v", tr.Side)
	}
	if tr.Reason != ReasonStop || tr.Exit != 105 {
		t.Fatalf("exit: %q at %v", tr.Reason, tr.Exit)
	}
	if tr.PnL != -100 {
		t.Fatalf("pnl: got %v, want -100", tr.PnL)
	}
	if res.FinalEquity != 9900 {
		t.Fatalf("final equity: got %v, want 9900", res.FinalEquity)
	}
}

func TestRunForceCloseAtEnd(t *testing.T) {
	candles := []market.Candle{
		hc(0, 100, 100.5, 99.5, 100),
		hc(1, 100, 105, 100, 104),
	}

	res := runOne(t, testConfig(), longOnFirst(90, 200, 0), candles)

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Reason != ReasonEndOfData {
		t.Fatalf("reason: %q", tr.Reason)
	}
	if tr.Exit != 104 || !tr.ExitTime.Equal(candles[1].Time) {
		t.Fatalf("exit: %v at %v", tr.Exit, tr.ExitTime)
	}
	// 1000 notional (10% stop distance), 4% move.
	if math.Abs(tr.PnL-40) > 1e-9 {
		t.Fatalf("pnl: got %v, want 40", tr.PnL)
	}
}

func TestRunIdempotent(t *testing.T) {
	candles := []market.Candle{
		hc(0, 100, 100.5, 99.5, 100),
		hc(1, 100, 111, 100, 108),
		hc(2, 108, 112, 107, 109),
	}

	a := runOne(t, testConfig(), longOnFirst(95, 110, 120), candles)
	b := runOne(t, testConfig(), longOnFirst(95, 110, 120), candles)

	if !reflect.DeepEqual(a, b) {
		t.Fatal("two runs over identical input differ")
	}
}

func TestRunNoData(t *testing.T) {
	e := New(testConfig(), &script{}, zerolog.Nop())
	res, err := e.Run([]string{"AAA"}, nil, nil, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.FinalEquity != 10000 || len(res.Trades) != 0 || len(res.EquityCurve) != 0 {
		t.Fatalf("empty run not zeroed: %+v", res)
	}
	if res.Stats.TotalTrades != 0 {
		t.Fatalf("stats not zeroed: %+v", res.Stats)
	}
}

func TestRunSkipsEmptySymbols(t *testing.T) {
	candles := []market.Candle{hc(0, 100, 101, 99, 100)}

	e := New(testConfig(), &script{}, zerolog.Nop())
	res, err := e.Run(
		[]string{"AAA", "BBB"},
		map[string][]market.Candle{"AAA": candles},
		nil, nil,
	)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Symbols) != 1 || res.Symbols[0] != "AAA" {
		t.Fatalf("symbols: %v", res.Symbols)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.RiskPerTrade = 1.5

	e := New(cfg, &script{}, zerolog.Nop())
	if _, err := e.Run(nil, nil, nil, nil); err == nil {
		t.Fatal("risk > 1 must be rejected")
	}

	e = New(testConfig(), nil, zerolog.Nop())
	if _, err := e.Run(nil, nil, nil, nil); err == nil {
		t.Fatal("nil strategy must be rejected")
	}
}

func TestEntryLeverageCap(t *testing.T) {
	// A 0.1% stop distance asks for 100k notional; leverage 3 on 10k caps it.
	candles := []market.Candle{
		hc(0, 100, 100.5, 99.95, 100),
		hc(1, 100, 100.5, 99.95, 100),
	}

	res := runOne(t, testConfig(), longOnFirst(99.9, 200, 0), candles)

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	if res.Trades[0].Size != 30000 {
		t.Fatalf("size: got %v, want 30000", res.Trades[0].Size)
	}
}

func TestEntryRejectsZeroStopDistance(t *testing.T) {
	candles := []market.Candle{
		hc(0, 100, 101, 99, 100),
		hc(1, 100, 101, 99, 100),
	}

	res := runOne(t, testConfig(), longOnFirst(100, 110, 0), candles)
	if len(res.Trades) != 0 {
		t.Fatalf("stop at entry price must be rejected, got %d trades", len(res.Trades))
	}
}

func TestEntryRejectsNonFiniteLevels(t *testing.T) {
	candles := []market.Candle{
		hc(0, 100, 101, 99, 100),
		hc(1, 100, 101, 99, 100),
	}

	res := runOne(t, testConfig(), longOnFirst(math.NaN(), 110, 0), candles)
	if len(res.Trades) != 0 {
		t.Fatalf("NaN stop must be rejected, got %d trades", len(res.Trades))
	}
}

func TestEntryHonorsWarmup(t *testing.T) {
	strat := longOnFirst(95, 110, 0)
	strat.warmup = 5

	candles := []market.Candle{
		hc(0, 100, 101, 99, 100),
		hc(1, 100, 101, 99, 100),
	}

	res := runOne(t, testConfig(), strat, candles)
	if len(res.Trades) != 0 {
		t.Fatalf("entry before warmup, got %d trades", len(res.Trades))
	}
}

func TestMaxPositionsCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPositions = 1

	strat := &script{
		long: func(ctx *strategies.Context) strategies.EntrySignal {
			return strategies.EntrySignal{Enter: true, Stop: 95, Take: 500}
		},
	}

	series := map[string][]market.Candle{
		"AAA": {hc(0, 100, 101, 99, 100), hc(1, 100, 101, 99, 100)},
		"BBB": {hc(0, 100, 101, 99, 100), hc(1, 100, 101, 99, 100)},
	}

	e := New(cfg, strat, zerolog.Nop())
	res, err := e.Run([]string{"AAA", "BBB"}, series, nil, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Trades) != 1 || res.Trades[0].Symbol != "AAA" {
		t.Fatalf("concurrency cap broken: %+v", res.Trades)
	}
}

func TestOnePositionPerSymbol(t *testing.T) {
	strat := &script{
		long: func(ctx *strategies.Context) strategies.EntrySignal {
			return strategies.EntrySignal{Enter: true, Stop: 95, Take: 500}
		},
	}

	candles := []market.Candle{
		hc(0, 100, 101, 99, 100),
		hc(1, 100, 101, 99, 100),
		hc(2, 100, 101, 99, 100),
	}

	res := runOne(t, testConfig(), strat, candles)
	if len(res.Trades) != 1 {
		t.Fatalf("symbol opened twice: %d trades", len(res.Trades))
	}
}

func TestPartialsReconcile(t *testing.T) {
	candles := []market.Candle{
		hc(0, 100, 100.5, 99.5, 100), // entry at 100
		hc(1, 100, 111, 101, 108),    // TP1, half off at 110
		hc(2, 108, 121, 107, 119),    // TP2, rest off at 120
	}

	res := runOne(t, testConfig(), longOnFirst(95, 110, 120), candles)

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Reason != ReasonTP2 {
		t.Fatalf("reason: %q", tr.Reason)
	}
	if tr.Size != 2000 || tr.ExitSize != 1000 {
		t.Fatalf("sizes: initial %v final %v", tr.Size, tr.ExitSize)
	}
	if len(tr.Partials) != 1 || tr.Partials[0].Size != 1000 || tr.Partials[0].Price != 110 {
		t.Fatalf("partials: %+v", tr.Partials)
	}
	// 1000 at +10% plus 1000 at +20%.
	if math.Abs(tr.PnL-300) > 1e-9 {
		t.Fatalf("pnl: got %v, want 300", tr.PnL)
	}
	if math.Abs(res.FinalEquity-10300) > 1e-9 {
		t.Fatalf("final equity: got %v", res.FinalEquity)
	}
}

func TestSlippageAndCommission(t *testing.T) {
	cfg := testConfig()
	cfg.SlippageRate = 0.001
	cfg.CommissionRate = 0.0004

	candles := []market.Candle{
		hc(0, 100, 100.5, 99.5, 100),
		hc(1, 100, 100.5, 99.5, 100),
	}

	res := runOne(t, cfg, longOnFirst(95, 500, 0), candles)

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]

	// Long pays up on entry and receives less on exit.
	if math.Abs(tr.Entry-100.1) > 1e-9 {
		t.Fatalf("entry: got %v, want 100.1", tr.Entry)
	}
	if math.Abs(tr.Exit-99.9) > 1e-9 {
		t.Fatalf("exit: got %v, want 99.9", tr.Exit)
	}

	wantCommission := 0.0004 * tr.Size * 2
	if math.Abs(tr.Commission-wantCommission) > 1e-9 {
		t.Fatalf("commission: got %v, want %v", tr.Commission, wantCommission)
	}
	wantPnL := tr.Size*(99.9-100.1)/100.1 - wantCommission
	if math.Abs(tr.PnL-wantPnL) > 1e-9 {
		t.Fatalf("pnl: got %v, want %v", tr.PnL, wantPnL)
	}
}

func TestEquityCurveReconciles(t *testing.T) {
	candles := []market.Candle{
		hc(0, 100, 100.5, 99.5, 100),
		hc(1, 100, 111, 100, 108),
		hc(2, 108, 112, 107, 109),
	}

	res := runOne(t, testConfig(), longOnFirst(95, 110, 0), candles)

	if len(res.EquityCurve) == 0 {
		t.Fatal("no equity samples")
	}
	last := res.EquityCurve[len(res.EquityCurve)-1]
	if last.Value != res.FinalEquity {
		t.Fatalf("final sample %v != final equity %v", last.Value, res.FinalEquity)
	}

	var sum float64
	for _, tr := range res.Trades {
		sum += tr.PnL
	}
	if math.Abs(res.FinalEquity-(res.Config.StartingCapital+sum)) > 1e-9 {
		t.Fatalf("equity and trade PnL disagree: %v vs %v",
			res.FinalEquity, res.Config.StartingCapital+sum)
	}
}
