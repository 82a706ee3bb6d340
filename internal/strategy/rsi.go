package strategy

import (
	"math"
	"time"

	"marketsim/internal/sim"
)

// Compile-time interface check.
var _ sim.Strategy = (*RSI)(nil)

// RSI trades on the Relative Strength Index: oversold (RSI < 30) buys with
// 25% of cash, overbought (RSI > 70) sells half the position, each with a
// one-day cooldown.
type RSI struct {
	period int

	prices      []float64
	lastBuyDay  int
	lastSellDay int
	inPosition  bool
}

// NewRSI creates an RSI strategy with the given lookback period.
func NewRSI(period int) *RSI {
	return &RSI{
		period:      period,
		lastBuyDay:  -100,
		lastSellDay: -100,
	}
}

// Name returns "rsi".
func (s *RSI) Name() string { return "rsi" }

func (s *RSI) Evaluate(pf *sim.Portfolio, _ time.Time, price float64, day int) {
	s.prices = append(s.prices, price)
	if len(s.prices) < s.period+1 {
		return
	}

	rsi, ok := ComputeRSI(s.prices, s.period)
	if !ok {
		return
	}

	if rsi < 30 && !s.inPosition && day-s.lastBuyDay >= 1 {
		qty := pf.Cash * 0.25 / price
		if qty > 0 {
			o := sim.NewOrder(sim.Buy, sim.Market, day)
			o.Quantity = sim.Qty(qty)
			pf.Place(o)
			s.lastBuyDay = day
			s.inPosition = true
		}
	}

	if rsi > 70 && s.inPosition && day-s.lastSellDay >= 1 {
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
}

// ComputeRSI computes the Relative Strength Index over the most recent
// period+1 prices. The second return value is false when there is not
// enough data. A period with no losing days returns 100.
func ComputeRSI(prices []float64, period int) (float64, bool) {
	if len(prices) < period+1 {
		return 0, false
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := prices[len(prices)-i] - prices[len(prices)-i-1]
		if change > 0 {
			gains += change
		} else {
			losses += math.Abs(change)
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}
