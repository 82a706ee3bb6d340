// Command marketsim runs strategy backtests from a YAML configuration:
// rolling-window sweeps across approaches, grid-search optimization of the
// day-trade parameters, and CSV import into the local bar store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"marketsim/internal/config"
	"marketsim/internal/optimize"
	"marketsim/internal/params"
	"marketsim/internal/series"
	"marketsim/internal/sim"
	"marketsim/internal/store"
	"marketsim/internal/strategy"
	"marketsim/internal/sweep"
	"marketsim/internal/util"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: marketsim <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  sweep      Run the rolling-window sweep for every configured approach\n")
		fmt.Fprintf(os.Stderr, "  optimize   Grid-search the day-trade parameters for one approach\n")
		fmt.Fprintf(os.Stderr, "  import     Import a daily-bar CSV file into the configured store\n")
		fmt.Fprintf(os.Stderr, "  version    Print the version\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("marketsim %s\n", version)

	case "sweep":
		err = runSweep(os.Args[2:])

	case "optimize":
		err = runOptimize(os.Args[2:])

	case "import":
		err = runImport(os.Args[2:])

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "marketsim %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// sweep
// ---------------------------------------------------------------------------

func runSweep(args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	configPath := fs.String("config", "config/marketsim.yaml", "path to configuration file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(log)

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	type approachOutput struct {
		summary sweep.Summary
		windows []sweep.WindowResult
	}
	outputs := make(map[string]approachOutput)
	var mu sync.Mutex

	// One goroutine per approach; each loads only the series it needs.
	// A failed approach is reported and skipped, not fatal to its siblings.
	g, ctx := errgroup.WithContext(context.Background())
	for _, a := range cfg.Approaches {
		g.Go(func() error {
			data, err := loadSeries(ctx, st, symbols(a))
			if err != nil {
				log.Error("loading data", "approach", a.Name, "error", err)
				return nil
			}

			specs, err := sweepSpecs(a)
			if err != nil {
				return err
			}

			summary, windows, err := sweep.Run(data, a.Name, specs,
				cfg.Simulation.Years, cfg.Simulation.Stepsize, cfg.Simulation.InitialCash)
			if err != nil {
				log.Error("sweep failed", "approach", a.Name, "error", err)
				return nil
			}

			mu.Lock()
			outputs[a.Name] = approachOutput{summary: summary, windows: windows}
			mu.Unlock()
			log.Info("sweep finished", "approach", a.Name, "windows", len(windows))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if len(outputs) == 0 {
		return fmt.Errorf("no approach produced results")
	}

	for _, a := range cfg.Approaches {
		out, ok := outputs[a.Name]
		if !ok {
			continue
		}
		printSummary(a.Name, cfg.Simulation.Years, out.summary, len(out.windows))
	}
	return nil
}

func printSummary(approach string, years int, s sweep.Summary, windows int) {
	fmt.Printf("=== %s (%d-year windows, %d runs) ===\n", approach, years, windows)
	printMetric("lowest valley", s.LowestValley)
	printMetric("highest peak", s.HighestPeak)
	printMetric("final result", s.FinalResult)
	printMetric("avg annual return", s.AvgAnnualReturn)
	fmt.Println()
}

func printMetric(label string, m sweep.MetricSummary) {
	fmt.Printf("  %-18s min %9.2f%% (%s)  max %9.2f%% (%s)  avg %9.2f%%\n",
		label,
		m.Min, m.MinStart.Format("2006-01-02"),
		m.Max, m.MaxStart.Format("2006-01-02"),
		m.Avg)
}

// ---------------------------------------------------------------------------
// optimize
// ---------------------------------------------------------------------------

func runOptimize(args []string) error {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	configPath := fs.String("config", "config/marketsim.yaml", "path to configuration file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(log)

	opt := cfg.Optimize
	if len(opt.Years) == 0 {
		return fmt.Errorf("optimize.years is empty")
	}
	metric, err := optimize.MetricByName(opt.Metric)
	if err != nil {
		return err
	}
	approachName := opt.Approach
	if approachName == "" && len(cfg.Approaches) == 1 {
		approachName = cfg.Approaches[0].Name
	}
	a, err := cfg.Approach(approachName)
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	data, err := loadSeries(ctx, st, symbols(a))
	if err != nil {
		return err
	}

	specs, err := optimizeSpecs(a)
	if err != nil {
		return err
	}

	grid := optimize.Grid{
		Years:            opt.Years,
		TrailingStop:     opt.TrailingStop,
		LimitBuyDiscount: opt.LimitBuyDiscount,
		PendingLimitDays: opt.PendingLimitDays,
	}
	log.Info("starting grid search", "approach", a.Name,
		"years", grid.Years, "metric", opt.Metric, "max_workers", opt.MaxWorkers)

	start := time.Now()
	best, err := optimize.Optimize(ctx, data, specs, grid,
		cfg.Simulation.InitialCash, metric, opt.MaxWorkers)
	if err != nil {
		return err
	}
	log.Info("grid search finished", "elapsed", time.Since(start).Round(time.Second))

	var pstore *params.Store
	if opt.ParamsPath != "" {
		pstore = params.NewStore(opt.ParamsPath, log)
	}

	yearsList := make([]int, 0, len(best))
	for y := range best {
		yearsList = append(yearsList, y)
	}
	sort.Ints(yearsList)

	for _, y := range yearsList {
		b := best[y]
		fmt.Printf("%d years: trailing_stop=%.1f limit_buy_discount=%.1f pending_limit_days=%d (avg %s %.2f over %d tuples)\n",
			y, b.Params.TrailingStopPct, b.Params.LimitBuyDiscountPct, b.Params.PendingLimitDays,
			opt.Metric, b.Avg, len(b.Groups))

		if pstore != nil {
			pstore.Set(y, params.Entry{
				TrailingStopPct:     b.Params.TrailingStopPct,
				LimitBuyDiscountPct: b.Params.LimitBuyDiscountPct,
				PendingLimitDays:    b.Params.PendingLimitDays,
				Metric:              opt.Metric,
				AvgValue:            b.Avg,
			})
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// import
// ---------------------------------------------------------------------------

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", "config/marketsim.yaml", "path to configuration file")
	csvPath := fs.String("csv", "", "CSV file with Date,Open,High,Low,Close,Volume rows")
	symbol := fs.String("symbol", "", "instrument symbol for the imported bars")
	fs.Parse(args)

	if *csvPath == "" || *symbol == "" {
		return fmt.Errorf("both -csv and -symbol are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log := util.NewLogger(cfg.Logging.Level)

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	bars, err := store.ParseCSVFile(*csvPath, *symbol)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		return fmt.Errorf("no bars parsed from %s", *csvPath)
	}

	if err := st.WriteBars(ctx, bars); err != nil {
		return err
	}
	log.Info("imported bars", "symbol", *symbol, "bars", len(bars),
		"from", bars[0].Date.Format("2006-01-02"),
		"to", bars[len(bars)-1].Date.Format("2006-01-02"))
	return nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func openStore(cfg *config.Config) (store.BarStore, func(), error) {
	switch cfg.Storage.Source {
	case "csv":
		return store.NewCSVStore(cfg.Storage.DataDir), func() {}, nil
	case "parquet":
		return store.NewParquetStore(cfg.Storage.DataDir), func() {}, nil
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage source %q", cfg.Storage.Source)
	}
}

func symbols(a config.Approach) []string {
	syms := make([]string, 0, len(a.Tickers))
	for _, t := range a.Tickers {
		syms = append(syms, t.Symbol)
	}
	return syms
}

func loadSeries(ctx context.Context, st store.BarStore, syms []string) (map[string]series.Series, error) {
	data := make(map[string]series.Series, len(syms))
	for _, sym := range syms {
		bars, err := st.ReadBars(ctx, sym, store.MinDate, store.MaxDate)
		if err != nil {
			return nil, fmt.Errorf("reading bars for %s: %w", sym, err)
		}
		s := series.FromBars(bars)
		if s.Len() == 0 {
			return nil, fmt.Errorf("no price data for %s", sym)
		}
		data[sym] = s
	}
	return data, nil
}

func sweepSpecs(a config.Approach) (map[string]sweep.TickerSpec, error) {
	specs := make(map[string]sweep.TickerSpec, len(a.Tickers))
	for _, t := range a.Tickers {
		factory, err := strategy.New(t.Strategy, t.Params())
		if err != nil {
			return nil, err
		}
		specs[t.Symbol] = sweep.TickerSpec{
			New:          factory,
			Spread:       t.Spread,
			ExpenseRatio: t.ExpenseRatio,
		}
	}
	return specs, nil
}

func optimizeSpecs(a config.Approach) (map[string]optimize.TickerSpec, error) {
	specs := make(map[string]optimize.TickerSpec, len(a.Tickers))
	for _, t := range a.Tickers {
		build, err := strategy.Builder(t.Strategy)
		if err != nil {
			return nil, err
		}
		tunable := strategy.Tunable(t.Strategy)
		base := t.Params()

		specs[t.Symbol] = optimize.TickerSpec{
			Tunable:      tunable,
			Spread:       t.Spread,
			ExpenseRatio: t.ExpenseRatio,
			New: func(p strategy.Params) sim.Strategy {
				if tunable {
					return build(p)
				}
				return build(base)
			},
		}
	}
	return specs, nil
}
