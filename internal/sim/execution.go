package sim

// EffectivePrice applies the fixed bid/ask spread to the raw market price.
// The spread is a total percentage, half on each side: buys pay
// price*(1+spread/200), sells receive price*(1-spread/200).
func EffectivePrice(side Side, price, spread float64) float64 {
	half := spread / 200.0
	if side == Buy {
		return price * (1 + half)
	}
	return price * (1 - half)
}

// ExecuteOrders evaluates the portfolio's pending orders against the day's
// price, in insertion order, mutating cash and shares in place. Later orders
// in the same pass see the balances left by earlier ones. Every order whose
// condition was met — including zero-quantity fills — is removed after the
// pass; the rest persist unchanged into the next day.
func ExecuteOrders(price float64, pf *Portfolio, day int) {
	_ = day // placement-day bookkeeping is on the orders themselves

	var executed []*Order
	for _, o := range pf.Orders {
		eff := EffectivePrice(o.Side, price, pf.Spread)

		switch o.Kind {
		case Market:
			fill(pf, o, eff)
			executed = append(executed, o)

		case Limit:
			if o.Side == Buy && eff <= o.LimitPrice {
				fill(pf, o, eff)
				executed = append(executed, o)
			} else if o.Side == Sell && eff >= o.LimitPrice {
				fill(pf, o, eff)
				executed = append(executed, o)
			}

		case Stop:
			// Sell is a stop-loss, buy is a stop-entry on breakout.
			if o.Side == Sell && eff <= o.StopPrice {
				fill(pf, o, eff)
				executed = append(executed, o)
			} else if o.Side == Buy && eff >= o.StopPrice {
				fill(pf, o, eff)
				executed = append(executed, o)
			}

		case TrailingStop:
			// Sell-only. The high-water mark only ratchets upward, so the
			// trigger level is monotonically non-decreasing over the
			// order's life.
			if o.Side != Sell {
				continue
			}
			if !o.HighestSeen || eff > o.HighestPrice {
				o.HighestPrice = eff
				o.HighestSeen = true
			}
			trigger := o.HighestPrice * (1 - o.TrailPercent/100.0)
			if eff <= trigger {
				fill(pf, o, eff)
				executed = append(executed, o)
			}
		}
	}

	if len(executed) == 0 {
		return
	}
	remaining := pf.Orders[:0]
	for _, o := range pf.Orders {
		if !isExecuted(executed, o) {
			remaining = append(remaining, o)
		}
	}
	pf.Orders = remaining
}

// fill applies an order's cash/share mutation at the effective price,
// clamping the quantity to what the portfolio can support. A non-positive
// resulting quantity is a no-op.
func fill(pf *Portfolio, o *Order, eff float64) {
	if o.Side == Buy {
		affordable := pf.Cash / eff
		qty := affordable
		if o.Quantity != nil && *o.Quantity < qty {
			qty = *o.Quantity
		}
		if qty > 0 {
			pf.Shares += qty
			pf.Cash -= qty * eff
		}
		return
	}

	qty := pf.Shares
	if o.Quantity != nil && *o.Quantity < qty {
		qty = *o.Quantity
	}
	if qty > 0 {
		pf.Cash += qty * eff
		pf.Shares -= qty
	}
}

func isExecuted(executed []*Order, o *Order) bool {
	for _, e := range executed {
		if e == o {
			return true
		}
	}
	return false
}
