package sim

import (
	"math"
	"testing"
)

func TestMarketBuyAllCash(t *testing.T) {
	pf := NewPortfolio(1000.0)
	pf.Place(NewOrder(Buy, Market, 0))

	ExecuteOrders(10.0, pf, 1)

	if pf.Shares != 100.0 {
		t.Errorf("Shares = %v, want 100", pf.Shares)
	}
	if pf.Cash != 0.0 {
		t.Errorf("Cash = %v, want 0", pf.Cash)
	}
	if len(pf.Orders) != 0 {
		t.Errorf("pending orders = %d, want 0", len(pf.Orders))
	}
}

func TestSpreadRoundTripLoss(t *testing.T) {
	for _, spread := range []float64{0.0, 0.1, 1.0, 5.0} {
		pf := NewPortfolio(1000.0)
		pf.Spread = spread
		pf.Place(NewOrder(Buy, Market, 0))
		ExecuteOrders(10.0, pf, 1)

		pf.Place(NewOrder(Sell, Market, 1))
		ExecuteOrders(10.0, pf, 2)

		want := 1000.0 * (1 - spread/200.0) / (1 + spread/200.0)
		if math.Abs(pf.Cash-want) > 1e-9 {
			t.Errorf("spread %v: round-trip cash = %v, want %v", spread, pf.Cash, want)
		}
		if spread == 0 && pf.Cash != 1000.0 {
			t.Errorf("zero spread round trip lost money: cash = %v", pf.Cash)
		}
	}
}

func TestLimitBuyWaitsForPrice(t *testing.T) {
	pf := NewPortfolio(1000.0)
	o := NewOrder(Buy, Limit, 0)
	o.LimitPrice = 9.0
	pf.Place(o)

	ExecuteOrders(10.0, pf, 1)
	if len(pf.Orders) != 1 || pf.Shares != 0 {
		t.Fatalf("limit buy filled above limit: shares=%v orders=%d", pf.Shares, len(pf.Orders))
	}

	ExecuteOrders(8.0, pf, 2)
	if len(pf.Orders) != 0 {
		t.Errorf("limit buy not removed after fill")
	}
	if pf.Shares != 1000.0/8.0 {
		t.Errorf("Shares = %v, want %v", pf.Shares, 1000.0/8.0)
	}
}

func TestLimitSellRequiresPriceAtOrAboveLimit(t *testing.T) {
	pf := NewPortfolio(0)
	pf.Shares = 10
	o := NewOrder(Sell, Limit, 0)
	o.LimitPrice = 12.0
	pf.Place(o)

	ExecuteOrders(11.0, pf, 1)
	if pf.Shares != 10 {
		t.Fatalf("limit sell filled below limit")
	}

	ExecuteOrders(12.0, pf, 2)
	if pf.Shares != 0 || pf.Cash != 120.0 {
		t.Errorf("after fill: shares=%v cash=%v, want 0 and 120", pf.Shares, pf.Cash)
	}
}

func TestStopSellTriggersAtOrBelowStop(t *testing.T) {
	pf := NewPortfolio(0)
	pf.Shares = 10
	o := NewOrder(Sell, Stop, 0)
	o.StopPrice = 9.0
	pf.Place(o)

	ExecuteOrders(9.5, pf, 1)
	if pf.Shares != 10 {
		t.Fatalf("stop sell triggered above stop price")
	}

	ExecuteOrders(8.5, pf, 2)
	if pf.Shares != 0 {
		t.Errorf("stop sell did not trigger at %v <= stop %v", 8.5, o.StopPrice)
	}
}

func TestStopBuyTriggersAtOrAboveStop(t *testing.T) {
	pf := NewPortfolio(100.0)
	o := NewOrder(Buy, Stop, 0)
	o.StopPrice = 11.0
	pf.Place(o)

	ExecuteOrders(10.0, pf, 1)
	if pf.Shares != 0 {
		t.Fatalf("stop buy triggered below stop price")
	}

	ExecuteOrders(11.0, pf, 2)
	if pf.Shares == 0 {
		t.Errorf("stop buy did not trigger at the stop price")
	}
}

func TestTrailingStopRatchetsAndSells(t *testing.T) {
	pf := NewPortfolio(0)
	pf.Shares = 10
	o := NewOrder(Sell, TrailingStop, 0)
	o.TrailPercent = 10.0
	pf.Place(o)

	prevHigh := 0.0
	for day, price := range []float64{100, 110, 120, 115} {
		ExecuteOrders(price, pf, day+1)
		if o.HighestPrice < prevHigh {
			t.Fatalf("high-water mark decreased: %v -> %v", prevHigh, o.HighestPrice)
		}
		prevHigh = o.HighestPrice
	}
	if pf.Shares != 10 {
		t.Fatalf("trailing stop sold at %v, trigger is %v", 115.0, 120.0*0.9)
	}

	ExecuteOrders(108.0, pf, 5)
	if pf.Shares != 0 {
		t.Errorf("trailing stop did not sell at %v <= trigger %v", 108.0, 120.0*0.9)
	}
	if pf.Cash != 10*108.0 {
		t.Errorf("Cash = %v, want %v", pf.Cash, 10*108.0)
	}
}

func TestTrailingStopBuySideIgnored(t *testing.T) {
	pf := NewPortfolio(1000.0)
	o := NewOrder(Buy, TrailingStop, 0)
	o.TrailPercent = 10.0
	pf.Place(o)

	ExecuteOrders(100.0, pf, 1)
	ExecuteOrders(50.0, pf, 2)

	if pf.Shares != 0 || len(pf.Orders) != 1 {
		t.Errorf("buy-side trailing stop should never fill: shares=%v orders=%d", pf.Shares, len(pf.Orders))
	}
}

func TestZeroQuantityFillStillRemovesOrder(t *testing.T) {
	pf := NewPortfolio(0) // no cash, nothing to buy with
	pf.Place(NewOrder(Buy, Market, 0))

	ExecuteOrders(10.0, pf, 1)

	if len(pf.Orders) != 0 {
		t.Errorf("zero-quantity market buy should still be consumed, %d orders remain", len(pf.Orders))
	}
	if pf.Shares != 0 || pf.Cash != 0 {
		t.Errorf("zero-quantity fill mutated balances: shares=%v cash=%v", pf.Shares, pf.Cash)
	}
}

func TestExplicitQuantityClamped(t *testing.T) {
	pf := NewPortfolio(100.0)
	o := NewOrder(Buy, Market, 0)
	o.Quantity = Qty(50) // far more than cash allows
	pf.Place(o)

	ExecuteOrders(10.0, pf, 1)
	if pf.Shares != 10.0 {
		t.Errorf("Shares = %v, want clamp to 10", pf.Shares)
	}

	o = NewOrder(Sell, Market, 1)
	o.Quantity = Qty(4)
	pf.Place(o)
	ExecuteOrders(10.0, pf, 2)
	if pf.Shares != 6.0 {
		t.Errorf("Shares = %v, want 6 after partial sell", pf.Shares)
	}
}

func TestOrdersShareBalancesWithinPass(t *testing.T) {
	// A sell earlier in the book funds a buy later in the same pass.
	pf := NewPortfolio(0)
	pf.Shares = 10
	pf.Place(NewOrder(Sell, Market, 0))
	pf.Place(NewOrder(Buy, Market, 0))

	ExecuteOrders(10.0, pf, 1)

	if pf.Shares != 10.0 {
		t.Errorf("Shares = %v, want 10 (sell proceeds re-bought)", pf.Shares)
	}
	if pf.Cash != 0.0 {
		t.Errorf("Cash = %v, want 0", pf.Cash)
	}
}

func TestEffectivePrice(t *testing.T) {
	if got := EffectivePrice(Buy, 100.0, 1.0); got != 100.5 {
		t.Errorf("buy effective price = %v, want 100.5", got)
	}
	if got := EffectivePrice(Sell, 100.0, 1.0); got != 99.5 {
		t.Errorf("sell effective price = %v, want 99.5", got)
	}
}
