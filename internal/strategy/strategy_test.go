package strategy

import (
	"math"
	"strings"
	"testing"
	"time"

	"marketsim/internal/series"
	"marketsim/internal/sim"
)

func TestNewUnknownStrategy(t *testing.T) {
	_, err := New("definitely_not_real", DefaultParams())
	if err == nil {
		t.Fatal("New accepted an unknown strategy name")
	}
	if !strings.Contains(err.Error(), "buy_hold") {
		t.Errorf("error %q does not list the known names", err)
	}
}

func TestNewReturnsFreshInstances(t *testing.T) {
	factory, err := New("daytrade", DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if factory() == factory() {
		t.Error("factory returned the same instance twice")
	}
}

func TestBuilderResolvesOnce(t *testing.T) {
	build, err := Builder("daytrade")
	if err != nil {
		t.Fatal(err)
	}

	p := Params{TrailingStopPct: 7, LimitBuyDiscountPct: 3, PendingLimitDays: 5}
	s := build(p)
	if s == nil || s.Name() != "daytrade" {
		t.Fatalf("build(p) = %v, want a daytrade instance", s)
	}
	dt, ok := s.(*DayTrade)
	if !ok {
		t.Fatalf("build(p) returned %T, want *DayTrade", s)
	}
	if dt.params != p {
		t.Errorf("built with params %+v, want %+v", dt.params, p)
	}

	if _, err := Builder("definitely_not_real"); err == nil {
		t.Error("Builder accepted an unknown strategy name")
	}
}

func TestTunable(t *testing.T) {
	if !Tunable("daytrade") {
		t.Error("Tunable(daytrade) = false, want true")
	}
	for _, name := range []string{"buy_hold", "sma_cross", "momentum_breakout", "rsi"} {
		if Tunable(name) {
			t.Errorf("Tunable(%s) = true, want false", name)
		}
	}
}

func runOne(t *testing.T, s sim.Strategy, closes []float64, spread, expense float64) *sim.MultiFund {
	t.Helper()

	dates := make([]time.Time, len(closes))
	for i := range dates {
		dates[i] = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	}
	data := map[string]series.Series{"X": {Dates: dates, Closes: closes}}

	mf, err := sim.NewMultiFund(map[string]sim.Assignment{
		"X": {Strategy: s, Spread: spread, ExpenseRatio: expense},
	}, 1000.0)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := sim.Run(data, mf); err != nil {
		t.Fatal(err)
	}
	return mf
}

func TestBuyHoldTracksPrice(t *testing.T) {
	mf := runOne(t, NewBuyHold(), []float64{100, 110, 90}, 0, 0)

	want := []float64{0.0, 10.0, -10.0}
	for i := range want {
		if math.Abs(mf.History[i]-want[i]) > 1e-9 {
			t.Errorf("history[%d] = %v, want %v", i, mf.History[i], want[i])
		}
	}
	pf := mf.Sub("X")
	if pf.Cash != 0 || pf.Shares != 10.0 {
		t.Errorf("after day 0: cash=%v shares=%v, want 0 and 10", pf.Cash, pf.Shares)
	}
}

func TestDayTradeEntersThenStopsOut(t *testing.T) {
	// Day 0 queues the market buy, day 1 fills it and arms the 10% trailing
	// stop, the ramp to 120 ratchets the high-water mark, and the drop to 100
	// stops the position out.
	s := NewDayTrade(Params{TrailingStopPct: 10.0, LimitBuyDiscountPct: 4.0, PendingLimitDays: 37})
	mf := runOne(t, s, []float64{100, 100, 110, 120, 100, 100}, 0, 0)

	pf := mf.Sub("X")
	if pf.Shares > 0.00001 {
		t.Errorf("shares = %v, want position stopped out", pf.Shares)
	}
	if pf.Cash <= 0 {
		t.Errorf("cash = %v, want sale proceeds", pf.Cash)
	}

	// A discounted limit re-buy should now be pending.
	var limits int
	for _, o := range pf.Orders {
		if o.Kind == sim.Limit && o.Side == sim.Buy {
			limits++
			want := 100.0 * (1 - 4.0/100.0)
			if math.Abs(o.LimitPrice-want) > 1e-9 {
				t.Errorf("limit re-buy price = %v, want %v", o.LimitPrice, want)
			}
		}
	}
	if limits != 1 {
		t.Errorf("pending limit buys = %d, want 1", limits)
	}
}

func TestDayTradeConvertsStaleLimit(t *testing.T) {
	// Stop out, then hold the price far above the re-buy discount for longer
	// than the pending-limit window: the limit order must be converted to a
	// market re-entry and fill.
	s := NewDayTrade(Params{TrailingStopPct: 10.0, LimitBuyDiscountPct: 4.0, PendingLimitDays: 3})
	closes := []float64{100, 100, 120, 100, 100, 100, 100, 100, 100, 100}
	mf := runOne(t, s, closes, 0, 0)

	pf := mf.Sub("X")
	if pf.Shares <= 0.00001 {
		t.Errorf("shares = %v, want market re-entry after the limit went stale", pf.Shares)
	}
	for _, o := range pf.Orders {
		if o.Kind == sim.Limit {
			t.Errorf("stale limit order still pending")
		}
	}
}

func TestSMACrossBuysOnBullishCross(t *testing.T) {
	// A steadily rising series keeps the short SMA above the long SMA once
	// enough history accumulates, so the strategy must end up holding shares.
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	mf := runOne(t, NewSMACross(20, 50), closes, 0, 0)

	if mf.Sub("X").Shares <= 0 {
		t.Error("rising market produced no position")
	}
}

func TestMomentumBreakoutBuysOnNewHigh(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 105, 105, 105}
	mf := runOne(t, NewMomentumBreakout(10), closes, 0, 0)

	if mf.Sub("X").Shares <= 0 {
		t.Error("breakout above the window high produced no position")
	}
}

func TestComputeRSI(t *testing.T) {
	up := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	if rsi, ok := ComputeRSI(up, 14); !ok || rsi != 100 {
		t.Errorf("ComputeRSI(all gains) = %v, %v, want 100, true", rsi, ok)
	}

	down := []float64{15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	if rsi, ok := ComputeRSI(down, 14); !ok || rsi != 0 {
		t.Errorf("ComputeRSI(all losses) = %v, %v, want 0, true", rsi, ok)
	}

	if _, ok := ComputeRSI([]float64{1, 2, 3}, 14); ok {
		t.Error("ComputeRSI reported ok with insufficient data")
	}

	mixed := []float64{10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10}
	rsi, ok := ComputeRSI(mixed, 14)
	if !ok || rsi <= 0 || rsi >= 100 {
		t.Errorf("ComputeRSI(mixed) = %v, %v, want a value strictly inside (0, 100)", rsi, ok)
	}
}

func TestRSIBuysWhenOversold(t *testing.T) {
	// A long decline drives RSI to zero, which is well under the oversold
	// threshold of 30.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	mf := runOne(t, NewRSI(14), closes, 0, 0)

	if mf.Sub("X").Shares <= 0 {
		t.Error("oversold market produced no position")
	}
}
