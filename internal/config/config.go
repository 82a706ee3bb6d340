// Package config loads and validates the YAML run configuration: trading
// approaches, sweep density, the optimizer grid, storage paths, and logging.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"marketsim/internal/strategy"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for a marketsim run.
type Config struct {
	Simulation Simulation     `yaml:"simulation"`
	Approaches []Approach     `yaml:"approaches"`
	Optimize   OptimizeConfig `yaml:"optimize"`
	Storage    Storage        `yaml:"storage"`
	Logging    Logging        `yaml:"logging"`
}

// Simulation holds the sweep parameters shared by all approaches.
type Simulation struct {
	Years       int     `yaml:"years"`
	Stepsize    int     `yaml:"stepsize"`
	InitialCash float64 `yaml:"initial_cash"`
}

// Approach names one strategy configuration: a set of instruments with their
// assigned strategies and trading costs.
type Approach struct {
	Name    string   `yaml:"name"`
	Tickers []Ticker `yaml:"tickers"`
}

// Ticker assigns a strategy to one instrument. The three day-trade
// parameters are optional overrides; zero values fall back to the strategy
// defaults.
type Ticker struct {
	Symbol       string  `yaml:"symbol"`
	Strategy     string  `yaml:"strategy"`
	Spread       float64 `yaml:"spread"`
	ExpenseRatio float64 `yaml:"expense_ratio"`

	TrailingStopPct     float64 `yaml:"trailing_stop_pct"`
	LimitBuyDiscountPct float64 `yaml:"limit_buy_discount_pct"`
	PendingLimitDays    int     `yaml:"pending_limit_days"`
}

// OptimizeConfig defines the grid-search space and scheduling.
type OptimizeConfig struct {
	Approach         string    `yaml:"approach"`
	Years            []int     `yaml:"years"`
	TrailingStop     []float64 `yaml:"trailing_stop"`
	LimitBuyDiscount []float64 `yaml:"limit_buy_discount"`
	PendingLimitDays []int     `yaml:"pending_limit_days"`
	Metric           string    `yaml:"metric"`
	MaxWorkers       int       `yaml:"max_workers"`
	ParamsPath       string    `yaml:"params_path"`
}

// Storage holds paths and backend selection for the local bar store.
type Storage struct {
	Source     string `yaml:"source"` // "csv", "parquet", or "sqlite"
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Logging configures the application logger.
type Logging struct {
	Level string `yaml:"level"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration at path, applies environment overrides,
// fills defaults, and validates. Validation failures are fatal before any
// simulation starts.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Simulation.InitialCash == 0 {
		cfg.Simulation.InitialCash = 10000.0
	}
	if cfg.Storage.Source == "" {
		cfg.Storage.Source = "csv"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Optimize.Metric == "" {
		cfg.Optimize.Metric = "final"
	}
}

// Validate enforces the fail-fast configuration rules: positive sweep
// parameters, at least one approach, known strategy names, and sane costs.
func (c *Config) Validate() error {
	if c.Simulation.Years <= 0 {
		return fmt.Errorf("simulation.years must be > 0, got %d", c.Simulation.Years)
	}
	if c.Simulation.Stepsize < 1 {
		return fmt.Errorf("simulation.stepsize must be >= 1, got %d", c.Simulation.Stepsize)
	}
	if c.Simulation.InitialCash <= 0 {
		return fmt.Errorf("simulation.initial_cash must be > 0, got %v", c.Simulation.InitialCash)
	}
	if len(c.Approaches) == 0 {
		return fmt.Errorf("no approaches defined")
	}

	seen := make(map[string]bool)
	for _, a := range c.Approaches {
		if a.Name == "" {
			return fmt.Errorf("approach without a name")
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate approach %q", a.Name)
		}
		seen[a.Name] = true
		if len(a.Tickers) == 0 {
			return fmt.Errorf("approach %s: no tickers", a.Name)
		}
		for _, t := range a.Tickers {
			if t.Symbol == "" {
				return fmt.Errorf("approach %s: ticker without a symbol", a.Name)
			}
			if _, err := strategy.New(t.Strategy, strategy.DefaultParams()); err != nil {
				return fmt.Errorf("approach %s, ticker %s: %w", a.Name, t.Symbol, err)
			}
			if t.Spread < 0 {
				return fmt.Errorf("approach %s, ticker %s: spread must be >= 0, got %v", a.Name, t.Symbol, t.Spread)
			}
			if t.ExpenseRatio < 0 {
				return fmt.Errorf("approach %s, ticker %s: expense_ratio must be >= 0, got %v", a.Name, t.Symbol, t.ExpenseRatio)
			}
		}
	}

	switch c.Storage.Source {
	case "csv", "parquet", "sqlite":
	default:
		return fmt.Errorf("storage.source must be csv, parquet, or sqlite, got %q", c.Storage.Source)
	}

	for _, y := range c.Optimize.Years {
		if y <= 0 {
			return fmt.Errorf("optimize.years entries must be > 0, got %d", y)
		}
	}
	return nil
}

// Params returns the day-trade parameters for a ticker, falling back to the
// strategy defaults for unset fields.
func (t Ticker) Params() strategy.Params {
	p := strategy.DefaultParams()
	if t.TrailingStopPct != 0 {
		p.TrailingStopPct = t.TrailingStopPct
	}
	if t.LimitBuyDiscountPct != 0 {
		p.LimitBuyDiscountPct = t.LimitBuyDiscountPct
	}
	if t.PendingLimitDays != 0 {
		p.PendingLimitDays = t.PendingLimitDays
	}
	return p
}

// Approach returns the named approach, or an error listing the known names.
func (c *Config) Approach(name string) (Approach, error) {
	for _, a := range c.Approaches {
		if a.Name == name {
			return a, nil
		}
	}
	names := make([]string, 0, len(c.Approaches))
	for _, a := range c.Approaches {
		names = append(names, a.Name)
	}
	return Approach{}, fmt.Errorf("unknown approach %q (known: %v)", name, names)
}
