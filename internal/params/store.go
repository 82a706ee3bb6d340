// Package params provides a JSON-persisted store for optimizer results, so
// a sweep can pick up the parameters a previous grid search selected.
package params

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"marketsim/internal/strategy"
)

// Entry records the winning parameter tuple for one window length together
// with the average metric that selected it.
type Entry struct {
	TrailingStopPct     float64 `json:"trailing_stop_pct"`
	LimitBuyDiscountPct float64 `json:"limit_buy_discount_pct"`
	PendingLimitDays    int     `json:"pending_limit_days"`
	Metric              string  `json:"metric"`
	AvgValue            float64 `json:"avg_value"`
}

// Store holds optimizer results in memory with JSON persistence. Keys are
// window lengths in years, formatted as decimal strings in the file.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	filePath string
	log      *slog.Logger
}

// NewStore creates a Store, loading persisted state from filePath when the
// file exists.
func NewStore(filePath string, log *slog.Logger) *Store {
	s := &Store{
		entries:  make(map[string]Entry),
		filePath: filePath,
		log:      log,
	}
	s.load()
	return s
}

// Set records the winning entry for a window length and persists to disk.
func (s *Store) Set(years int, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[fmt.Sprintf("%d", years)] = e
	s.flush()
}

// Get returns the entry for a window length. The second return value
// reports whether one was recorded.
func (s *Store) Get(years int) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[fmt.Sprintf("%d", years)]
	return e, ok
}

// Params returns the recorded entry for a window length as strategy
// parameters, or the defaults when none was recorded.
func (s *Store) Params(years int) strategy.Params {
	e, ok := s.Get(years)
	if !ok {
		return strategy.DefaultParams()
	}
	return strategy.Params{
		TrailingStopPct:     e.TrailingStopPct,
		LimitBuyDiscountPct: e.LimitBuyDiscountPct,
		PendingLimitDays:    e.PendingLimitDays,
	}
}

// Snapshot returns a copy of all recorded entries keyed by window length.
func (s *Store) Snapshot() map[string]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// load reads the JSON file into memory.
func (s *Store) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return // File doesn't exist yet — start empty.
	}
	var loaded map[string]Entry
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.log.Warn("loading params file", "path", s.filePath, "error", err)
		return
	}
	s.entries = loaded
	s.log.Info("loaded optimizer params", "entries", len(loaded))
}

// flush writes the in-memory state to disk. Must be called with mu held.
func (s *Store) flush() {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		s.log.Error("marshalling params", "error", err)
		return
	}
	if err := os.WriteFile(s.filePath, data, 0o644); err != nil {
		s.log.Error("writing params file", "path", s.filePath, "error", err)
	}
}
