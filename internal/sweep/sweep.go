// Package sweep implements the rolling-window sweep engine: it repeats one
// strategy configuration across many monthly start dates and reduces the
// per-window results into summary statistics with provenance.
package sweep

import (
	"fmt"
	"math"
	"time"

	"marketsim/internal/series"
	"marketsim/internal/sim"
	"marketsim/internal/strategy"
)

// TickerSpec describes how one instrument is traded during a sweep. New is
// called once per simulated window so every run gets a fresh strategy value.
type TickerSpec struct {
	New          strategy.Factory
	Spread       float64
	ExpenseRatio float64
}

// WindowResult holds the four per-window metrics for one start date.
type WindowResult struct {
	Start        time.Time
	LowestValley float64
	HighestPeak  float64
	FinalReturn  float64
	AnnualReturn float64
}

// MetricSummary aggregates one metric across all windows. MinStart/MaxStart
// record the start date that produced the extreme; ties resolve to the
// earliest start date because windows are processed chronologically.
type MetricSummary struct {
	Min      float64
	MinStart time.Time
	Max      float64
	MaxStart time.Time
	Avg      float64
}

// Summary is the sweep's aggregate output, one MetricSummary per metric.
type Summary struct {
	LowestValley    MetricSummary
	HighestPeak     MetricSummary
	FinalResult     MetricSummary
	AvgAnnualReturn MetricSummary
}

// Run sweeps the configured approach across monthly start dates. It
// intersects the instruments' trading calendars, anchors one window of
// `years` years at every stepsize-th monthly first-open date, simulates each
// window that fits inside the available history, and aggregates the results.
//
// Windows that would extend past the last common date are filtered, not
// failed. Run returns an error only when the instruments share no trading
// day or when no window survives — both conditions name the approach.
func Run(
	data map[string]series.Series,
	approach string,
	specs map[string]TickerSpec,
	years, stepsize int,
	initialCash float64,
) (Summary, []WindowResult, error) {
	common := series.Intersect(data)
	if len(common) == 0 {
		return Summary{}, nil, fmt.Errorf("approach %s: no common trading days", approach)
	}

	starts := series.MonthlyFirstOpens(common)
	var selected []time.Time
	for i := 0; i < len(starts); i += stepsize {
		selected = append(selected, starts[i])
	}

	lastCommon := common[len(common)-1]
	var results []WindowResult

	for _, start := range selected {
		end := series.WindowEnd(start, years)
		if end.After(lastCommon) {
			// Not enough history for a full window — normal filtering.
			continue
		}

		hist, err := simulateWindow(data, common, specs, start, end, initialCash)
		if err != nil || len(hist) == 0 {
			continue
		}
		results = append(results, windowMetrics(hist, start, years))
	}

	if len(results) == 0 {
		return Summary{}, nil, fmt.Errorf("approach %s: no window with %d years of history", approach, years)
	}

	return summarize(results), results, nil
}

// simulateWindow runs one simulation over [start, end): it restricts the
// common calendar to the window, slices and forward-fills each instrument's
// series onto that sub-index, and drives a fresh multi-fund portfolio.
func simulateWindow(
	data map[string]series.Series,
	common []time.Time,
	specs map[string]TickerSpec,
	start, end time.Time,
	initialCash float64,
) ([]float64, error) {
	var sub []time.Time
	for _, d := range common {
		if !d.Before(start) && d.Before(end) {
			sub = append(sub, d)
		}
	}
	if len(sub) == 0 {
		return nil, fmt.Errorf("empty window %s", start.Format("2006-01-02"))
	}

	windowed := make(map[string]series.Series, len(data))
	for sym, s := range data {
		windowed[sym] = s.Slice(start, end).Reindex(sub)
	}

	assignments := make(map[string]sim.Assignment, len(specs))
	for sym, spec := range specs {
		assignments[sym] = sim.Assignment{
			Strategy:     spec.New(),
			Spread:       spec.Spread,
			ExpenseRatio: spec.ExpenseRatio,
		}
	}
	mf, err := sim.NewMultiFund(assignments, initialCash)
	if err != nil {
		return nil, err
	}

	hist, _, err := sim.Run(windowed, mf)
	return hist, err
}

// windowMetrics derives the four per-window metrics from a history.
func windowMetrics(hist []float64, start time.Time, years int) WindowResult {
	lv, hv := hist[0], hist[0]
	for _, v := range hist[1:] {
		if v < lv {
			lv = v
		}
		if v > hv {
			hv = v
		}
	}
	final := hist[len(hist)-1]

	aar := 0.0
	if years > 0 {
		aar = (math.Pow(1+final/100.0, 1/float64(years)) - 1) * 100.0
	}

	return WindowResult{
		Start:        start,
		LowestValley: lv,
		HighestPeak:  hv,
		FinalReturn:  final,
		AnnualReturn: aar,
	}
}

// summarize reduces the chronological window results to min/max/avg per
// metric. Strict comparisons keep the first (earliest) start date on ties.
func summarize(results []WindowResult) Summary {
	return Summary{
		LowestValley:    summarizeMetric(results, func(r WindowResult) float64 { return r.LowestValley }),
		HighestPeak:     summarizeMetric(results, func(r WindowResult) float64 { return r.HighestPeak }),
		FinalResult:     summarizeMetric(results, func(r WindowResult) float64 { return r.FinalReturn }),
		AvgAnnualReturn: summarizeMetric(results, func(r WindowResult) float64 { return r.AnnualReturn }),
	}
}

func summarizeMetric(results []WindowResult, metric func(WindowResult) float64) MetricSummary {
	ms := MetricSummary{
		Min:      metric(results[0]),
		MinStart: results[0].Start,
		Max:      metric(results[0]),
		MaxStart: results[0].Start,
	}
	sum := 0.0
	for _, r := range results {
		v := metric(r)
		sum += v
		if v < ms.Min {
			ms.Min = v
			ms.MinStart = r.Start
		}
		if v > ms.Max {
			ms.Max = v
			ms.MaxStart = r.Start
		}
	}
	ms.Avg = sum / float64(len(results))
	return ms
}
