package params

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"marketsim/internal/strategy"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	s := NewStore(path, discardLogger())

	e := Entry{
		TrailingStopPct:     8.0,
		LimitBuyDiscountPct: 6.0,
		PendingLimitDays:    20,
		Metric:              "final",
		AvgValue:            42.5,
	}
	s.Set(5, e)

	// A fresh store must see the persisted entry.
	s2 := NewStore(path, discardLogger())
	got, ok := s2.Get(5)
	if !ok {
		t.Fatal("entry for 5 years not persisted")
	}
	if got != e {
		t.Errorf("Get(5) = %+v, want %+v", got, e)
	}
}

func TestParamsFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	s := NewStore(path, discardLogger())

	if got := s.Params(7); got != strategy.DefaultParams() {
		t.Errorf("Params(7) = %+v, want defaults", got)
	}

	s.Set(7, Entry{TrailingStopPct: 15, LimitBuyDiscountPct: 2, PendingLimitDays: 60})
	want := strategy.Params{TrailingStopPct: 15, LimitBuyDiscountPct: 2, PendingLimitDays: 60}
	if got := s.Params(7); got != want {
		t.Errorf("Params(7) = %+v, want %+v", got, want)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	s := NewStore(path, discardLogger())
	s.Set(3, Entry{TrailingStopPct: 5})

	snap := s.Snapshot()
	snap["3"] = Entry{TrailingStopPct: 99}

	if got, _ := s.Get(3); got.TrailingStopPct != 5 {
		t.Errorf("mutating the snapshot changed the store: %+v", got)
	}
}

func TestLoadIgnoresCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path, discardLogger())
	if len(s.Snapshot()) != 0 {
		t.Error("corrupt file produced entries")
	}
}
