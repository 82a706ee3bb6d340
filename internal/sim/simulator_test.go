package sim

import (
	"math"
	"testing"
	"time"

	"marketsim/internal/series"
)

// holdAll buys everything on the first day by mutating the portfolio
// directly, then stays idle.
type holdAll struct{ done bool }

func (h *holdAll) Name() string { return "hold_all" }

func (h *holdAll) Evaluate(pf *Portfolio, _ time.Time, price float64, _ int) {
	if h.done {
		return
	}
	h.done = true
	eff := EffectivePrice(Buy, price, pf.Spread)
	pf.Shares += pf.Cash / eff
	pf.Cash = 0
}

// idle never trades.
type idle struct{}

func (idle) Name() string                                 { return "idle" }
func (idle) Evaluate(*Portfolio, time.Time, float64, int) {}

func dates(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2020, 1, 1+i, 0, 0, 0, 0, time.UTC)
	}
	return out
}

func TestRunHoldAllHistory(t *testing.T) {
	data := map[string]series.Series{
		"X": {Dates: dates(3), Closes: []float64{100, 110, 90}},
	}
	mf, err := NewMultiFund(map[string]Assignment{
		"X": {Strategy: &holdAll{}},
	}, 1000.0)
	if err != nil {
		t.Fatal(err)
	}

	history, index, err := Run(data, mf)
	if err != nil {
		t.Fatal(err)
	}
	if len(index) != 3 {
		t.Fatalf("index len = %d, want 3", len(index))
	}

	want := []float64{0.0, 10.0, -10.0}
	for i := range want {
		if math.Abs(history[i]-want[i]) > 1e-9 {
			t.Errorf("history[%d] = %v, want %v", i, history[i], want[i])
		}
	}
}

func TestRunDeductsDailyFee(t *testing.T) {
	data := map[string]series.Series{
		"X": {Dates: dates(2), Closes: []float64{100, 100}},
	}
	mf, err := NewMultiFund(map[string]Assignment{
		"X": {Strategy: idle{}, ExpenseRatio: 1.0},
	}, 1000.0)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := Run(data, mf); err != nil {
		t.Fatal(err)
	}

	dailyFee := 1000.0 * (1.0 / 100.0) / 365.0
	wantCash := 1000.0 - dailyFee - (1000.0-dailyFee)*(1.0/100.0)/365.0
	got := mf.Sub("X").Cash
	if math.Abs(got-wantCash) > 1e-9 {
		t.Errorf("cash after two fee days = %v, want %v", got, wantCash)
	}
}

func TestRunFeeCanDriveCashNegative(t *testing.T) {
	data := map[string]series.Series{
		"X": {Dates: dates(2), Closes: []float64{100, 100}},
	}
	mf, err := NewMultiFund(map[string]Assignment{
		"X": {Strategy: &holdAll{}, ExpenseRatio: 1.0},
	}, 1000.0)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := Run(data, mf); err != nil {
		t.Fatal(err)
	}

	if got := mf.Sub("X").Cash; got >= 0 {
		t.Errorf("cash = %v, want negative once fully invested and fee is charged", got)
	}
}

func TestRunRejectsMisalignedSeries(t *testing.T) {
	data := map[string]series.Series{
		"A": {Dates: dates(3), Closes: []float64{1, 2, 3}},
		"B": {Dates: dates(2), Closes: []float64{1, 2}},
	}
	mf, err := NewMultiFund(map[string]Assignment{
		"A": {Strategy: idle{}},
		"B": {Strategy: idle{}},
	}, 1000.0)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := Run(data, mf); err == nil {
		t.Error("Run accepted series of different lengths")
	}
}

func TestRunMissingSeries(t *testing.T) {
	data := map[string]series.Series{
		"A": {Dates: dates(2), Closes: []float64{1, 2}},
	}
	mf, err := NewMultiFund(map[string]Assignment{
		"A": {Strategy: idle{}},
		"B": {Strategy: idle{}},
	}, 1000.0)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := Run(data, mf); err == nil {
		t.Error("Run accepted a portfolio symbol with no price series")
	}
}

func TestNewMultiFundSplitsCashEvenly(t *testing.T) {
	mf, err := NewMultiFund(map[string]Assignment{
		"B": {Strategy: idle{}},
		"A": {Strategy: idle{}},
	}, 1000.0)
	if err != nil {
		t.Fatal(err)
	}

	if mf.Symbols[0] != "A" || mf.Symbols[1] != "B" {
		t.Errorf("Symbols = %v, want sorted [A B]", mf.Symbols)
	}
	if mf.Sub("A").Cash != 500.0 || mf.Sub("B").Cash != 500.0 {
		t.Errorf("sub cash = %v/%v, want 500 each", mf.Sub("A").Cash, mf.Sub("B").Cash)
	}
}

func TestNewMultiFundRejectsEmpty(t *testing.T) {
	if _, err := NewMultiFund(nil, 1000.0); err == nil {
		t.Error("NewMultiFund accepted an empty assignment set")
	}
}
