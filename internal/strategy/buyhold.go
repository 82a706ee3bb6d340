package strategy

import (
	"time"

	"marketsim/internal/sim"
)

// Compile-time interface check.
var _ sim.Strategy = (*BuyHold)(nil)

// BuyHold buys with all available cash on the first day and then holds for
// the rest of the simulation.
type BuyHold struct {
	initialized bool
}

// NewBuyHold creates a buy-and-hold strategy.
func NewBuyHold() *BuyHold { return &BuyHold{} }

// Name returns "buy_hold".
func (s *BuyHold) Name() string { return "buy_hold" }

// Evaluate performs the day-0 all-in purchase directly at that day's
// spread-adjusted price, so the return path is anchored at the first close.
// An enqueued order would only fill on day 1, shifting the whole history by
// one day of price movement.
func (s *BuyHold) Evaluate(pf *sim.Portfolio, _ time.Time, price float64, day int) {
	if day != 0 || s.initialized {
		return
	}
	s.initialized = true

	eff := sim.EffectivePrice(sim.Buy, price, pf.Spread)
	if eff <= 0 || pf.Cash <= 0 {
		return
	}
	pf.Shares += pf.Cash / eff
	pf.Cash = 0
}
