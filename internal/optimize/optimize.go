// Package optimize implements the grid-search optimizer: it evaluates the
// Cartesian product of candidate window lengths, monthly start dates, and
// day-trade parameter tuples, and selects the parameter tuple with the best
// average metric per window length.
package optimize

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"marketsim/internal/series"
	"marketsim/internal/sim"
	"marketsim/internal/strategy"
)

// TickerSpec describes one instrument in an optimization run. New receives
// the candidate parameter tuple; specs whose strategy is not tunable ignore
// it. Tunable is informational (reported in results, not consulted here —
// parameter injection happens inside New).
type TickerSpec struct {
	New          func(strategy.Params) sim.Strategy
	Tunable      bool
	Spread       float64
	ExpenseRatio float64
}

// Grid enumerates the candidate values of the search space.
type Grid struct {
	Years            []int
	TrailingStop     []float64
	LimitBuyDiscount []float64
	PendingLimitDays []int
}

// Result is the outcome of one (window length, start date, params) task.
// OK is false when the task's simulation failed; failed tasks contribute
// nothing to aggregation.
type Result struct {
	Start  time.Time
	Years  int
	Params strategy.Params
	Value  float64
	OK     bool
}

// Best holds the winning parameter tuple for one window length, with the
// group averages of every tuple for inspection.
type Best struct {
	Params strategy.Params
	Avg    float64
	Groups map[strategy.Params]float64
}

// Sweep evaluates every grid combination, distributing tasks over a bounded
// pool of workers. The price data is shared read-only across workers; each
// task constructs its own portfolio and strategy values. A failing or
// panicking task yields Result.OK == false without disturbing its siblings.
// Cancellation via ctx aborts outstanding tasks; completed results are
// retained.
func Sweep(
	ctx context.Context,
	data map[string]series.Series,
	specs map[string]TickerSpec,
	grid Grid,
	initialCash float64,
	metric Metric,
	maxWorkers int,
) ([]Result, error) {
	common := series.Intersect(data)
	if len(common) == 0 {
		return nil, fmt.Errorf("optimize: no common trading days")
	}
	starts := series.MonthlyFirstOpens(common)
	lastCommon := common[len(common)-1]

	type task struct {
		start  time.Time
		years  int
		params strategy.Params
	}
	var tasks []task
	for _, years := range grid.Years {
		for _, start := range starts {
			if series.WindowEnd(start, years).After(lastCommon) {
				continue
			}
			for _, ts := range grid.TrailingStop {
				for _, lb := range grid.LimitBuyDiscount {
					for _, pd := range grid.PendingLimitDays {
						tasks = append(tasks, task{
							start: start,
							years: years,
							params: strategy.Params{
								TrailingStopPct:     ts,
								LimitBuyDiscountPct: lb,
								PendingLimitDays:    pd,
							},
						})
					}
				}
			}
		}
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("optimize: no candidate window fits the available history")
	}

	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	results := make([]Result, len(tasks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for i, t := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Result{Start: t.start, Years: t.years, Params: t.params}

			// A panicking simulation is a failed task like any other: its
			// result stays OK == false and the siblings keep running.
			defer func() {
				if r := recover(); r != nil {
					results[i].Value = 0
					results[i].OK = false
				}
			}()

			hist, err := runWindow(data, specs, t.start, t.years, t.params, initialCash)
			if err == nil && len(hist) > 0 {
				results[i].Value = metric(hist, t.years)
				results[i].OK = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Cancellation aborts outstanding tasks only: results of tasks that
		// already completed are returned alongside the error.
		return results, err
	}
	return results, nil
}

// runWindow runs a single simulation over one window with the candidate
// parameters injected into every tunable instrument.
func runWindow(
	data map[string]series.Series,
	specs map[string]TickerSpec,
	start time.Time,
	years int,
	params strategy.Params,
	initialCash float64,
) ([]float64, error) {
	end := series.WindowEnd(start, years)

	sliced := make(map[string]series.Series, len(data))
	for sym, s := range data {
		sliced[sym] = s.Slice(start, end)
	}

	common := series.Intersect(sliced)
	if len(common) == 0 {
		return nil, fmt.Errorf("no common trading days in window starting %s", start.Format("2006-01-02"))
	}

	aligned := make(map[string]series.Series, len(sliced))
	for sym, s := range sliced {
		aligned[sym] = s.Reindex(common)
	}

	assignments := make(map[string]sim.Assignment, len(specs))
	for sym, spec := range specs {
		assignments[sym] = sim.Assignment{
			Strategy:     spec.New(params),
			Spread:       spec.Spread,
			ExpenseRatio: spec.ExpenseRatio,
		}
	}
	mf, err := sim.NewMultiFund(assignments, initialCash)
	if err != nil {
		return nil, err
	}

	hist, _, err := sim.Run(aligned, mf)
	return hist, err
}

// Optimize runs the grid sweep and aggregates: results are grouped by
// (window length, parameter tuple), the start-date dimension is collapsed
// into an arithmetic mean, and the tuple with the highest average wins per
// window length. Failed tasks are excluded from their group, not counted as
// zero. An error is returned only when no task at all produced a value.
func Optimize(
	ctx context.Context,
	data map[string]series.Series,
	specs map[string]TickerSpec,
	grid Grid,
	initialCash float64,
	metric Metric,
	maxWorkers int,
) (map[int]Best, error) {
	results, err := Sweep(ctx, data, specs, grid, initialCash, metric, maxWorkers)
	if err != nil {
		return nil, err
	}
	best := Aggregate(results)
	if len(best) == 0 {
		return nil, fmt.Errorf("optimize: no combination produced a result")
	}
	return best, nil
}

// Aggregate groups task results by (years, params) and selects the best
// average per window length. Ties resolve to the smallest parameter tuple in
// sort order so the outcome is deterministic.
func Aggregate(results []Result) map[int]Best {
	type group struct {
		sum float64
		n   int
	}
	type key struct {
		years  int
		params strategy.Params
	}
	grouped := make(map[key]*group)
	for _, r := range results {
		if !r.OK {
			continue
		}
		k := key{r.Years, r.Params}
		g := grouped[k]
		if g == nil {
			g = &group{}
			grouped[k] = g
		}
		g.sum += r.Value
		g.n++
	}

	byYear := make(map[int]map[strategy.Params]float64)
	for k, g := range grouped {
		if byYear[k.years] == nil {
			byYear[k.years] = make(map[strategy.Params]float64)
		}
		byYear[k.years][k.params] = g.sum / float64(g.n)
	}

	best := make(map[int]Best, len(byYear))
	for years, groups := range byYear {
		params := make([]strategy.Params, 0, len(groups))
		for p := range groups {
			params = append(params, p)
		}
		sort.Slice(params, func(i, j int) bool { return lessParams(params[i], params[j]) })

		winner := params[0]
		for _, p := range params[1:] {
			if groups[p] > groups[winner] {
				winner = p
			}
		}
		best[years] = Best{Params: winner, Avg: groups[winner], Groups: groups}
	}
	return best
}

func lessParams(a, b strategy.Params) bool {
	if a.TrailingStopPct != b.TrailingStopPct {
		return a.TrailingStopPct < b.TrailingStopPct
	}
	if a.LimitBuyDiscountPct != b.LimitBuyDiscountPct {
		return a.LimitBuyDiscountPct < b.LimitBuyDiscountPct
	}
	return a.PendingLimitDays < b.PendingLimitDays
}
