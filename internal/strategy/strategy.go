// Package strategy provides the built-in trading strategies and a name
// registry for constructing them from configuration.
//
// A strategy value carries its own working state (price windows, cooldown
// timers, position flags) as struct fields, so a fresh instance must be
// constructed for every simulation run. The registry therefore hands out
// factories rather than shared instances.
package strategy

import (
	"fmt"
	"sort"

	"marketsim/internal/sim"
)

// Params are the tunable day-trade parameters swept by the optimizer.
type Params struct {
	TrailingStopPct     float64
	LimitBuyDiscountPct float64
	PendingLimitDays    int
}

// DefaultParams returns the day-trade defaults used when configuration does
// not override them.
func DefaultParams() Params {
	return Params{
		TrailingStopPct:     11.0,
		LimitBuyDiscountPct: 4.0,
		PendingLimitDays:    37,
	}
}

// Factory constructs a fresh strategy instance for one simulation run.
type Factory func() sim.Strategy

var builtins = map[string]func(Params) sim.Strategy{
	"buy_hold":          func(Params) sim.Strategy { return NewBuyHold() },
	"daytrade":          func(p Params) sim.Strategy { return NewDayTrade(p) },
	"sma_cross":         func(Params) sim.Strategy { return NewSMACross(20, 50) },
	"momentum_breakout": func(Params) sim.Strategy { return NewMomentumBreakout(10) },
	"rsi":               func(Params) sim.Strategy { return NewRSI(14) },
}

// New returns a factory for the named built-in strategy. An unrecognised
// name is a configuration error and is reported before any simulation
// starts.
func New(name string, p Params) (Factory, error) {
	ctor, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (known: %v)", name, Names())
	}
	return func() sim.Strategy { return ctor(p) }, nil
}

// Builder resolves the named built-in strategy to its parameterised
// constructor, so the name lookup happens once and callers that inject
// per-run parameters (the optimizer) have no error path left at build time.
func Builder(name string) (func(Params) sim.Strategy, error) {
	ctor, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (known: %v)", name, Names())
	}
	return ctor, nil
}

// Tunable reports whether the optimizer's parameter grid applies to the
// named strategy. Only the day-trade strategy consumes Params.
func Tunable(name string) bool {
	return name == "daytrade"
}

// Names returns the sorted list of built-in strategy names.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
