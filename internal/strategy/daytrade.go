package strategy

import (
	"time"

	"marketsim/internal/sim"
)

// Compile-time interface check.
var _ sim.Strategy = (*DayTrade)(nil)

// position states for DayTrade.
const (
	posNone       = "none"
	posWaitingBuy = "waiting_buy"
	posLong       = "long"
)

// DayTrade protects profits with a trailing stop and re-enters at a discount
// with a limit order after a position is stopped out. Its three parameters
// (trailing stop percent, limit re-buy discount percent, and the number of
// days an unfilled limit order is left pending before being converted to a
// market order) are the tunables swept by the grid-search optimizer.
type DayTrade struct {
	params Params

	initialized  bool
	position     string
	pendingLimit bool
	limitBuyDay  int
	limitPrice   float64
	lastSell     float64
}

// NewDayTrade creates a day-trade strategy with the given parameters.
func NewDayTrade(p Params) *DayTrade {
	return &DayTrade{params: p, position: posNone}
}

// Name returns "daytrade".
func (s *DayTrade) Name() string { return "daytrade" }

func (s *DayTrade) Evaluate(pf *sim.Portfolio, _ time.Time, price float64, day int) {
	if day == 0 && !s.initialized {
		s.initialized = true
		pf.Place(sim.NewOrder(sim.Buy, sim.Market, day))
		s.position = posWaitingBuy
		return
	}

	haveShares := pf.Shares > 0.00001

	// Entered a position since last check: arm the trailing stop. Any
	// pending limit re-buy has filled, so its conversion timer is void.
	if s.position != posLong && haveShares {
		s.position = posLong
		s.pendingLimit = false
		ts := sim.NewOrder(sim.Sell, sim.TrailingStop, day)
		ts.TrailPercent = s.params.TrailingStopPct
		pf.Place(ts)
	}

	// Stopped out: queue a discounted limit re-buy.
	if s.position == posLong && !haveShares {
		s.position = posNone
		s.lastSell = price
		s.limitPrice = price * (1 - s.params.LimitBuyDiscountPct/100.0)

		lb := sim.NewOrder(sim.Buy, sim.Limit, day)
		lb.LimitPrice = s.limitPrice
		pf.Place(lb)
		s.pendingLimit = true
		s.limitBuyDay = day
	}

	// The discount never materialised: convert the stale limit order into a
	// market re-entry.
	if s.pendingLimit && day-s.limitBuyDay >= s.params.PendingLimitDays {
		remaining := pf.Orders[:0]
		for _, o := range pf.Orders {
			if o.Kind == sim.Limit && o.Side == sim.Buy && o.PlacementDay == s.limitBuyDay {
				continue
			}
			remaining = append(remaining, o)
		}
		pf.Orders = remaining

		pf.Place(sim.NewOrder(sim.Buy, sim.Market, day))
		s.pendingLimit = false
		s.limitBuyDay = 0
		s.limitPrice = 0
	}
}
