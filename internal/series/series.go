// Package series provides in-memory daily closing-price series and the
// calendar arithmetic the sweep and optimizer engines are built on: common
// trading-day intersection, monthly start enumeration, window slicing, and
// forward-fill reindexing.
package series

import (
	"sort"
	"time"

	"marketsim/internal/domain"
)

// Series is a chronologically sorted daily close series. Dates are strictly
// ascending, duplicate-free, midnight UTC; Closes is index-aligned with
// Dates. A Series is treated as immutable once built — every operation
// returns a fresh value so simulations can share one loaded Series safely.
type Series struct {
	Dates  []time.Time
	Closes []float64
}

// FromBars builds a Series from daily bars, keeping the closing price. Bars
// are sorted by date; when the same date appears more than once the later
// element wins.
func FromBars(bars []domain.Bar) Series {
	byDate := make(map[time.Time]float64, len(bars))
	for _, b := range bars {
		byDate[domain.Day(b.Date)] = b.Close
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	closes := make([]float64, len(dates))
	for i, d := range dates {
		closes[i] = byDate[d]
	}
	return Series{Dates: dates, Closes: closes}
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Dates) }

// Slice returns the observations with start <= date < end.
func (s Series) Slice(start, end time.Time) Series {
	lo := sort.Search(len(s.Dates), func(i int) bool { return !s.Dates[i].Before(start) })
	hi := sort.Search(len(s.Dates), func(i int) bool { return !s.Dates[i].Before(end) })

	out := Series{
		Dates:  make([]time.Time, hi-lo),
		Closes: make([]float64, hi-lo),
	}
	copy(out.Dates, s.Dates[lo:hi])
	copy(out.Closes, s.Closes[lo:hi])
	return out
}

// Reindex projects the series onto the given date index, forward-filling
// gaps: a date absent from the series takes the most recent prior close.
// Dates before the first observation take the first close, so a symbol with
// a late listing still yields a fully populated window.
func (s Series) Reindex(dates []time.Time) Series {
	out := Series{
		Dates:  make([]time.Time, len(dates)),
		Closes: make([]float64, len(dates)),
	}
	copy(out.Dates, dates)

	j := 0
	var last float64
	if len(s.Closes) > 0 {
		last = s.Closes[0]
	}
	for i, d := range dates {
		for j < len(s.Dates) && !s.Dates[j].After(d) {
			last = s.Closes[j]
			j++
		}
		out.Closes[i] = last
	}
	return out
}

// Intersect computes the trading calendar shared by every series: the sorted
// set of dates present in all of them. The result is empty when the symbols
// share no trading day (or when data is empty).
func Intersect(data map[string]Series) []time.Time {
	if len(data) == 0 {
		return nil
	}

	counts := make(map[time.Time]int)
	for _, s := range data {
		for _, d := range s.Dates {
			counts[d]++
		}
	}

	var common []time.Time
	for d, n := range counts {
		if n == len(data) {
			common = append(common, d)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })
	return common
}

// MonthlyFirstOpens scans a sorted date index and returns the first date of
// each distinct (year, month) pair, in chronological order. Running it twice
// on the same index yields the same result.
func MonthlyFirstOpens(dates []time.Time) []time.Time {
	type ym struct {
		year  int
		month time.Month
	}

	var starts []time.Time
	seen := make(map[ym]bool)
	for _, d := range dates {
		k := ym{d.Year(), d.Month()}
		if !seen[k] {
			seen[k] = true
			starts = append(starts, d)
		}
	}
	return starts
}

// WindowEnd returns the exclusive end of a simulation window of the given
// length anchored at start. Window arithmetic uses a flat 365 days per year
// everywhere in this module.
func WindowEnd(start time.Time, years int) time.Time {
	return start.Add(time.Duration(years) * 365 * 24 * time.Hour)
}
