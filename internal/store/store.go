// Package store persists and retrieves daily bar data. It is the local side
// of the price-series provider seam: whatever fills a store (a downloader, a
// broker export, a CSV drop), the simulation layers only ever see
// chronologically sorted, duplicate-free daily bars read back from here.
package store

import (
	"context"
	"time"

	"marketsim/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bars.
type BarStore interface {
	// WriteBars persists a batch of bars, merging with and deduplicating
	// against previously stored data for the same dates.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns the bars for symbol within [start, end], sorted by
	// date. A symbol with no data yields an empty slice, not an error.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with stored data, sorted.
	ListSymbols(ctx context.Context) ([]string, error)
}

// AllTime is a convenience range covering any plausible daily history.
var (
	MinDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxDate = time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)
)
