package strategy

import (
	"time"

	"marketsim/internal/sim"
)

// Compile-time interface check.
var _ sim.Strategy = (*SMACross)(nil)

// SMACross trades on two simple moving averages. It buys with 20% of
// available cash when the short SMA is above the long SMA (one-day cooldown
// between buys), and sells half the position when the price runs 10% above
// the short SMA (three-day cooldown between sells).
type SMACross struct {
	shortPeriod int
	longPeriod  int

	prices      []float64
	lastBuyDay  int
	lastSellDay int
}

// NewSMACross creates an SMA crossover strategy with the given short and
// long window lengths.
func NewSMACross(short, long int) *SMACross {
	return &SMACross{
		shortPeriod: short,
		longPeriod:  long,
		lastBuyDay:  -100,
		lastSellDay: -100,
	}
}

// Name returns "sma_cross".
func (s *SMACross) Name() string { return "sma_cross" }

func (s *SMACross) Evaluate(pf *sim.Portfolio, _ time.Time, price float64, day int) {
	s.prices = append(s.prices, price)
	if len(s.prices) < s.longPeriod {
		return
	}

	smaShort := mean(s.prices[len(s.prices)-s.shortPeriod:])
	smaLong := mean(s.prices[len(s.prices)-s.longPeriod:])

	// The one-day cooldown avoids flip-flopping when prices oscillate
	// around the crossover point.
	if smaShort > smaLong && day-s.lastBuyDay >= 1 {
		qty := pf.Cash * 0.20 / price
		if qty > 0 {
			o := sim.NewOrder(sim.Buy, sim.Market, day)
			o.Quantity = sim.Qty(qty)
			pf.Place(o)
			s.lastBuyDay = day
		}
	}

	// Take profit after a 10% run-up over the short average.
	if price > 1.1*smaShort && day-s.lastSellDay >= 3 {
		qty := pf.Shares * 0.50
		if qty > 0 {
			o := sim.NewOrder(sim.Sell, sim.Market, day)
			o.Quantity = sim.Qty(qty)
			pf.Place(o)
			s.lastSellDay = day
		}
	}
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
