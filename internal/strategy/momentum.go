package strategy

import (
	"time"

	"marketsim/internal/sim"
)

// Compile-time interface check.
var _ sim.Strategy = (*MomentumBreakout)(nil)

// MomentumBreakout watches a rolling window of recent closes. A close above
// the window high buys with 30% of cash; a close below the window low sells
// half the position. Today's price is appended to the window only after both
// conditions have been evaluated so it never influences its own thresholds.
type MomentumBreakout struct {
	window int

	prices      []float64
	lastBuyDay  int
	lastSellDay int
	inPosition  bool
}

// NewMomentumBreakout creates a momentum breakout strategy with the given
// lookback window length.
func NewMomentumBreakout(window int) *MomentumBreakout {
	return &MomentumBreakout{
		window:      window,
		lastBuyDay:  -100,
		lastSellDay: -100,
	}
}

// Name returns "momentum_breakout".
func (s *MomentumBreakout) Name() string { return "momentum_breakout" }

func (s *MomentumBreakout) Evaluate(pf *sim.Portfolio, _ time.Time, price float64, day int) {
	if len(s.prices) < s.window {
		s.prices = append(s.prices, price)
		return
	}

	recent := s.prices[len(s.prices)-s.window:]
	highest, lowest := recent[0], recent[0]
	for _, p := range recent[1:] {
		if p > highest {
			highest = p
		}
		if p < lowest {
			lowest = p
		}
	}

	if price > highest && !s.inPosition && day-s.lastBuyDay >= 1 {
		qty := pf.Cash * 0.30 / price
		if qty > 0 {
			o := sim.NewOrder(sim.Buy, sim.Market, day)
			o.Quantity = sim.Qty(qty)
			pf.Place(o)
			s.lastBuyDay = day
			s.inPosition = true
		}
	}

	if price < lowest && s.inPosition && day-s.lastSellDay >= 1 {
		qty := pf.Shares * 0.50
		if qty > 0 {
			o := sim.NewOrder(sim.Sell, sim.Market, day)
			o.Quantity = sim.Qty(qty)
			pf.Place(o)
			s.lastSellDay = day
			if pf.Shares-qty < 1e-6 {
				s.inPosition = false
			}
		}
	}

	s.prices = append(s.prices, price)
}
